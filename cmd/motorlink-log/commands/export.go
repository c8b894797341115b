package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/motorlink/motorlink-go/pkg/log"
)

// RunExport writes every event matching filter as one JSON object per line.
func RunExport(path string, filter log.Filter, output string) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return exportJSONL(path, filter, w)
}

func exportJSONL(path string, filter log.Filter, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return each(path, filter, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}
