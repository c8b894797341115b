package log

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// StdinPath makes NewFilteredReader read from standard input.
const StdinPath = "-"

// Filter selects events by their header fields. Zero fields match all.
type Filter struct {
	ConnectionID string
	Direction    *Direction
	Layer        *Layer
	Category     *Category
	Role         *Role
	DeviceID     string
	Method       string
	TimeStart    *time.Time
	TimeEnd      *time.Time
}

// Match reports whether event passes every set criterion. TimeEnd is
// exclusive.
func (f *Filter) Match(event Event) bool {
	switch {
	case f.ConnectionID != "" && event.ConnectionID != f.ConnectionID,
		f.Direction != nil && event.Direction != *f.Direction,
		f.Layer != nil && event.Layer != *f.Layer,
		f.Category != nil && event.Category != *f.Category,
		f.Role != nil && event.LocalRole != *f.Role,
		f.DeviceID != "" && event.DeviceID != f.DeviceID,
		f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart),
		f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
		return false
	}
	if f.Method != "" && (event.Message == nil || event.Message.Method != f.Method) {
		return false
	}
	return true
}

// Reader decodes a capture written by FileLogger.
type Reader struct {
	src       io.Closer
	decoder   *cbor.Decoder
	filter    Filter
	truncated bool
}

// NewReader opens a capture and returns every event in it.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens a capture and returns only events matching
// filter. A path of StdinPath reads standard input.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	if path == StdinPath {
		return NewStreamReader(io.NopCloser(os.Stdin), filter), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewStreamReader(f, filter), nil
}

// NewStreamReader reads events from rc until it is exhausted.
func NewStreamReader(rc io.ReadCloser, filter Filter) *Reader {
	return &Reader{src: rc, decoder: NewDecoder(rc), filter: filter}
}

// Next returns the next matching event, or io.EOF at the end of the
// capture. A record cut short by a killed writer also ends the capture;
// Truncated reports it afterwards.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		err := r.decoder.Decode(&event)
		switch {
		case errors.Is(err, io.ErrUnexpectedEOF):
			r.truncated = true
			return Event{}, io.EOF
		case err != nil:
			return Event{}, err
		}
		if r.filter.Match(event) {
			return event, nil
		}
	}
}

// Truncated reports whether the capture ended in a partial record.
func (r *Reader) Truncated() bool {
	return r.truncated
}

// Close releases the underlying source.
func (r *Reader) Close() error {
	return r.src.Close()
}
