// Package ctap2 implements the CTAP2 authenticator session: command
// dispatch, cached GetInfo data, and per-command CBOR encode/decode.
// State beyond the cached InfoData is stateless; each command call is an
// atomic CBOR request/response (spec.md §4.2).
package ctap2

import (
	"context"

	"github.com/gravitational/trace"

	yubicbor "github.com/yubicore/yubicore/cbor"
	"github.com/yubicore/yubicore/transport"
)

// Command opcodes, first byte of the request.
const (
	CmdMakeCredential       = 0x01
	CmdGetAssertion         = 0x02
	CmdGetInfo              = 0x04
	CmdClientPin            = 0x06
	CmdReset                = 0x07
	CmdGetNextAssertion     = 0x08
	CmdBioEnrollment        = 0x09
	CmdCredentialManagement = 0x0A
	CmdSelection            = 0x0B
	CmdLargeBlobs           = 0x0C
	CmdConfig               = 0x0D
)

// Error is a CTAP2 status-byte failure (spec.md §7: taxonomy "APDU/CTAP
// status failure").
type Error struct {
	Status byte
}

func (e *Error) Error() string {
	return "ctap2: status 0x" + hexByte(e.Status)
}

func hexByte(b byte) string {
	const hexdigits = "0123456789ABCDEF"
	return string([]byte{hexdigits[b>>4], hexdigits[b&0xF]})
}

// CTAP2 status bytes referenced by higher layers.
const (
	StatusSuccess              = 0x00
	StatusInvalidCommand       = 0x01
	StatusCredentialExcluded   = 0x19
	StatusUnsupportedAlgorithm = 0x26
	StatusOperationDenied      = 0x27
	StatusInvalidOption        = 0x2C
	StatusKeepAliveCancel      = 0x2D
	StatusNoCredentials        = 0x2E
	StatusUserActionTimeout    = 0x2F
	StatusNotAllowed           = 0x30
	StatusPinInvalid           = 0x31
	StatusPinBlocked           = 0x32
	StatusPinAuthInvalid       = 0x33
	StatusPinAuthBlocked       = 0x34
	StatusPinNotSet            = 0x35
	StatusPinRequired          = 0x36 // CTAP2_ERR_PUAT_REQUIRED
	StatusPinPolicyViolation   = 0x37
	StatusRequestTooLarge      = 0x39
	StatusActionTimeout        = 0x3A
	StatusUpRequired           = 0x3B
	StatusUvBlocked            = 0x3C
)

// Session drives a single CTAP2-speaking Connection. It caches InfoData
// after the first GetInfo call; InfoData is read-only thereafter and safe
// to share across goroutines (spec.md §5).
type Session struct {
	conn transport.Connection
	info *InfoData
}

// NewSession wraps a Connection. Call GetInfo before issuing any other
// command; no command helper calls it implicitly.
func NewSession(conn transport.Connection) *Session {
	return &Session{conn: conn}
}

// Call issues one CTAP2 command: opcode byte, optional CBOR-encoded
// parameter map, and decodes the response into out (which may be nil for
// commands with no response body). A non-zero status byte is returned as
// *Error.
func (s *Session) Call(ctx context.Context, cmd byte, params any, out any) error {
	req := []byte{cmd}
	if params != nil {
		enc, err := yubicbor.Marshal(params)
		if err != nil {
			return trace.Wrap(err)
		}
		req = append(req, enc...)
	}

	resp, err := s.conn.Send(ctx, req)
	if err != nil {
		return trace.ConnectionProblem(err, "ctap2: transmit failed")
	}
	if len(resp) == 0 {
		return trace.BadParameter("ctap2: empty response")
	}

	status := resp[0]
	if status != StatusSuccess {
		return trace.Wrap(&Error{Status: status})
	}
	if out == nil {
		return nil
	}
	if len(resp) == 1 {
		return trace.BadParameter("ctap2: success status but no response body")
	}
	if err := yubicbor.Unmarshal(resp[1:], out); err != nil {
		return trace.Wrap(err)
	}
	return nil
}

// GetInfo issues CmdGetInfo, caches, and returns the InfoData. Subsequent
// calls return the cached value without a round-trip.
func (s *Session) GetInfo(ctx context.Context) (*InfoData, error) {
	if s.info != nil {
		return s.info, nil
	}
	var info InfoData
	if err := s.Call(ctx, CmdGetInfo, nil, &info); err != nil {
		return nil, trace.Wrap(err)
	}
	s.info = &info
	return s.info, nil
}

// Info returns the cached InfoData, or nil if GetInfo has not been called.
func (s *Session) Info() *InfoData {
	return s.info
}

// Reset issues CTAP2 authenticatorReset. Per CTAP2, only valid within a
// short power-up window; callers must not rely on it succeeding generally.
func (s *Session) Reset(ctx context.Context) error {
	return trace.Wrap(s.Call(ctx, CmdReset, nil, nil))
}

// Selection issues authenticatorSelection (CTAP2.1), used to pick one
// authenticator out of several that are simultaneously prompting.
func (s *Session) Selection(ctx context.Context) error {
	return trace.Wrap(s.Call(ctx, CmdSelection, nil, nil))
}
