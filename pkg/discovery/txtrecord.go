package discovery

import (
	"fmt"
	"slices"
	"strings"

	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/version"
)

// TXTRecordMap holds TXT key/value pairs.
type TXTRecordMap map[string]string

// EncodeWorkerTXT builds the TXT records for info.
func EncodeWorkerTXT(info *WorkerInfo) TXTRecordMap {
	txt := TXTRecordMap{TXTKeyVersion: ProtocolVersion}
	if info.Firmware != "" {
		txt[TXTKeyFirmware] = info.Firmware
	}
	if len(info.Nodes) > 0 {
		ids := make([]string, len(info.Nodes))
		for i, id := range info.Nodes {
			ids[i] = string(id)
		}
		txt[TXTKeyNodes] = strings.Join(ids, ",")
	}
	return txt
}

// DecodeWorkerTXT parses worker TXT records. The version is required and
// must share our major version.
func DecodeWorkerTXT(txt TXTRecordMap) (ver, firmware string, nodes []resource.DeviceID, err error) {
	ver, ok := txt[TXTKeyVersion]
	if !ok || ver == "" {
		return "", "", nil, fmt.Errorf("%w: missing %s", ErrInvalidTXT, TXTKeyVersion)
	}
	if _, err := version.Check(ver); err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", ErrInvalidTXT, err)
	}
	if s := txt[TXTKeyNodes]; s != "" {
		for _, id := range strings.Split(s, ",") {
			if id == "" {
				return "", "", nil, fmt.Errorf("%w: empty node id", ErrInvalidTXT)
			}
			nodes = append(nodes, resource.DeviceID(id))
		}
	}
	return ver, txt[TXTKeyFirmware], nodes, nil
}

// TXTRecordsToStrings converts records to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	out := make([]string, 0, len(txt))
	for k, v := range txt {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

// StringsToTXTRecords parses "key=value" strings. A bare key maps to "".
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(strs))
	for _, s := range strs {
		if s == "" {
			continue
		}
		k, v, _ := strings.Cut(s, "=")
		txt[k] = v
	}
	return txt
}
