package discovery

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorlink/motorlink-go/pkg/resource"
)

func TestWorkerTXTRoundTrip(t *testing.T) {
	info := &WorkerInfo{
		Instance: "motorlink-bench",
		Port:     7400,
		Firmware: "sim-1.0.0",
		Nodes:    []resource.DeviceID{"20501", "20502"},
	}

	strs := TXTRecordsToStrings(EncodeWorkerTXT(info))
	assert.Equal(t, []string{"fw=sim-1.0.0", "nodes=20501,20502", "ver=1.0"}, strs)

	version, firmware, nodes, err := DecodeWorkerTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, ProtocolVersion, version)
	assert.Equal(t, "sim-1.0.0", firmware)
	assert.Equal(t, info.Nodes, nodes)
}

func TestDecodeWorkerTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
	}{
		{"missing version", TXTRecordMap{TXTKeyNodes: "1"}},
		{"empty version", TXTRecordMap{TXTKeyVersion: ""}},
		{"empty node", TXTRecordMap{TXTKeyVersion: "1.0", TXTKeyNodes: "1,,2"}},
		{"malformed version", TXTRecordMap{TXTKeyVersion: "1"}},
		{"newer major", TXTRecordMap{TXTKeyVersion: "2.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := DecodeWorkerTXT(tt.txt)
			assert.ErrorIs(t, err, ErrInvalidTXT)
		})
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "", "b=x=y"})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestWorkerInfoValidate(t *testing.T) {
	ok := &WorkerInfo{Instance: "w", Port: 1}
	assert.NoError(t, ok.Validate())

	assert.ErrorIs(t, (&WorkerInfo{Port: 1}).Validate(), ErrInstanceNameTooLong)
	assert.ErrorIs(t, (&WorkerInfo{Instance: strings.Repeat("x", 64), Port: 1}).Validate(), ErrInstanceNameTooLong)
	assert.ErrorIs(t, (&WorkerInfo{Instance: "w"}).Validate(), ErrInvalidPort)
}

func TestWorkerServiceAddr(t *testing.T) {
	svc := &WorkerService{Host: "bench.local.", Port: 7400}
	assert.Equal(t, "bench.local.:7400", svc.Addr())

	svc.Addresses = []string{"fe80::1", "10.0.0.2"}
	assert.Equal(t, "[fe80::1]:7400", svc.Addr())
}

func testEntry() *zeroconf.ServiceEntry {
	entry := &zeroconf.ServiceEntry{}
	entry.Instance = "motorlink-bench"
	entry.HostName = "bench.local."
	entry.Port = 7400
	entry.Text = []string{"ver=1.3", "nodes=7"}
	entry.AddrIPv4 = []net.IP{net.ParseIP("10.0.0.2")}
	entry.AddrIPv6 = []net.IP{net.ParseIP("fe80::2")}
	return entry
}

func TestEntryToWorker(t *testing.T) {
	svc := entryToWorker(testEntry())
	require.NotNil(t, svc)
	assert.Equal(t, "motorlink-bench", svc.InstanceName)
	assert.Equal(t, uint16(7400), svc.Port)
	assert.Equal(t, []string{"10.0.0.2", "fe80::2"}, svc.Addresses)
	assert.Equal(t, []resource.DeviceID{"7"}, svc.Nodes)

	assert.Equal(t, "1.3", svc.Version)

	bad := testEntry()
	bad.Text = nil
	assert.Nil(t, entryToWorker(bad))

	future := testEntry()
	future.Text = []string{"ver=2.0"}
	assert.Nil(t, entryToWorker(future))
}

func TestMergeAndRemoveAddresses(t *testing.T) {
	addrs := mergeAddresses([]string{"10.0.0.2"}, []string{"10.0.0.2", "10.0.0.3"})
	assert.Equal(t, []string{"10.0.0.2", "10.0.0.3"}, addrs)

	entry := testEntry()
	addrs = removeAddresses(addrs, entry)
	assert.Equal(t, []string{"10.0.0.3"}, addrs)
}

type chanBrowser struct {
	ch chan *WorkerService
}

func (b chanBrowser) Browse(context.Context) (<-chan *WorkerService, error) {
	return b.ch, nil
}

func TestFindWorker(t *testing.T) {
	ch := make(chan *WorkerService, 1)
	ch <- &WorkerService{InstanceName: "w"}

	svc, err := FindWorker(context.Background(), chanBrowser{ch})
	require.NoError(t, err)
	assert.Equal(t, "w", svc.InstanceName)

	closed := make(chan *WorkerService)
	close(closed)
	_, err = FindWorker(context.Background(), chanBrowser{closed})
	assert.ErrorIs(t, err, ErrNotFound)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = FindWorker(ctx, chanBrowser{make(chan *WorkerService)})
	assert.ErrorIs(t, err, ErrNotFound)
}
