// Command motorlink-log views and analyzes protocol captures written by
// motorlink-ui, motorlink-worker and motorlink-devd with the -protocol-log
// flag.
//
// Usage:
//
//	motorlink-log <command> [flags] <file.mlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file as JSON lines
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View only wire-layer events
//	motorlink-log view -layer wire worker.mlog
//
//	# Everything that concerned one device
//	motorlink-log view -device 0x10 worker.mlog
//
//	# Re-addressing as seen by the daemon
//	motorlink-log view -role daemon -method idAssignment devd.mlog
//
//	# Export error events to a file
//	motorlink-log export -category error -o errors.jsonl ui.mlog
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/motorlink/motorlink-go/cmd/motorlink-log/commands"
	"github.com/motorlink/motorlink-go/pkg/log"
)

const usage = `motorlink-log - MotorLink Protocol Log Analyzer

Usage:
  motorlink-log <command> [flags] <file.mlog>

Commands:
  view     View log file in human-readable format
  export   Export log file as JSON lines
  stats    Show statistics about the log file

Use "motorlink-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// filterFlags registers the event filter flags shared by view and export.
type filterFlags struct {
	layer     *string
	direction *string
	category  *string
	role      *string
	connID    *string
	device    *string
	method    *string
}

func addFilterFlags(fs *flag.FlagSet) *filterFlags {
	return &filterFlags{
		layer:     fs.String("layer", "", "Filter by layer (transport, wire, service)"),
		direction: fs.String("direction", "", "Filter by direction (in, out)"),
		category:  fs.String("category", "", "Filter by category (message, state, error)"),
		role:      fs.String("role", "", "Filter by capturing process (ui, worker, daemon)"),
		connID:    fs.String("conn-id", "", "Filter by connection ID"),
		device:    fs.String("device", "", "Filter by device ID"),
		method:    fs.String("method", "", "Filter by message method (e.g. device.changeId)"),
	}
}

func (f *filterFlags) build() (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: *f.connID,
		DeviceID:     *f.device,
		Method:       *f.method,
	}
	if *f.role != "" {
		r, err := commands.ParseRole(*f.role)
		if err != nil {
			return filter, err
		}
		filter.Role = &r
	}
	if *f.layer != "" {
		l, err := commands.ParseLayer(*f.layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if *f.direction != "" {
		d, err := commands.ParseDirection(*f.direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if *f.category != "" {
		c, err := commands.ParseCategory(*f.category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func parse(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required (- for stdin)")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	if errors.Is(err, commands.ErrTruncated) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `motorlink-log view - View log file in human-readable format

Usage:
  motorlink-log view [flags] <file.mlog>

Flags:
`)
		fs.PrintDefaults()
	}
	ff := addFilterFlags(fs)
	path := parse(fs, args)

	filter, err := ff.build()
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `motorlink-log export - Export log file as JSON lines

Usage:
  motorlink-log export [flags] <file.mlog>

Flags:
`)
		fs.PrintDefaults()
	}
	ff := addFilterFlags(fs)
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parse(fs, args)

	filter, err := ff.build()
	if err != nil {
		fail(err)
	}
	if err := commands.RunExport(path, filter, *output); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `motorlink-log stats - Show statistics about the log file

Usage:
  motorlink-log stats <file.mlog>
`)
	}
	path := parse(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
