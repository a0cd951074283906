// Package transport defines the narrow byte-in/byte-out interface the core
// protocol engines ride on. Physical transport discovery (USB HID, NFC,
// PC/SC reader enumeration) is explicitly out of scope; callers supply an
// already-opened Connection.
package transport

import "context"

// Connection delivers one APDU and returns one response. Implementations
// are not required to be safe for concurrent use; the core serializes all
// APDUs on a connection itself.
type Connection interface {
	// Send transmits cmd and returns the raw response bytes (including any
	// trailing status word, for APDU-based connections; CTAP HID
	// connections return CBOR+status only, with framing already stripped).
	Send(ctx context.Context, cmd []byte) ([]byte, error)

	// SupportsExtendedLength reports whether the connection can carry
	// ISO 7816-4 extended-length APDUs. Short-form framing is used when
	// this is false.
	SupportsExtendedLength() bool
}

// CommandState is a caller-owned cancellation flag. Cancel sets the flag
// and Cancelled reports it; no Card, Session or Client in this module
// checks it, so setting it does not stop an operation already in progress.
type CommandState struct {
	cancel chan struct{}
}

// NewCommandState returns a CommandState ready for use.
func NewCommandState() *CommandState {
	return &CommandState{cancel: make(chan struct{})}
}

// Cancel requests cancellation. Safe to call multiple times.
func (c *CommandState) Cancel() {
	if c == nil {
		return
	}
	select {
	case <-c.cancel:
	default:
		close(c.cancel)
	}
}

// Cancelled reports whether Cancel has been called.
func (c *CommandState) Cancelled() bool {
	if c == nil {
		return false
	}
	select {
	case <-c.cancel:
		return true
	default:
		return false
	}
}
