package transport

// Link is a framed message link to the peer process.
// Implemented by Conn.
type Link interface {
	// Send sends a message to the peer.
	Send(data []byte) error

	// Receive blocks for the next message; io.EOF after close.
	Receive() ([]byte, error)

	// Close closes the link.
	Close() error
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
}

var (
	_ Link            = (*Conn)(nil)
	_ FrameReadWriter = (*Framer)(nil)
)
