// Package apdu implements bit-exact ISO 7816-4 command/response APDU
// framing: short and extended length forms, and response chaining via
// GET RESPONSE / 61xx.
package apdu

import (
	"encoding/binary"

	"github.com/gravitational/trace"
)

// Well-known status words.
const (
	SWSuccess                 = 0x9000
	SWSecurityStatusNotSat    = 0x6982
	SWConditionsNotSatisfied  = 0x6985
	SWFileNotFound            = 0x6A82
	SWDataObjectNotFound      = 0x6A88
	SWWrongData               = 0x6A80
	SWIncorrectP1P2           = 0x6A86
	SWWrongP1P2               = 0x6B00
	SWAuthMethodBlocked       = 0x6983
	SWInstructionNotSupported = 0x6D00
	SWApplicationNotFound     = 0x6999
)

const (
	insGetResponse = 0xC0
	insSelect      = 0xA4
)

// Command is a tuple {cla,ins,p1,p2,data,ne}. If Ne is absent (NeAbsent),
// no Le field is encoded; any response body the card sends is still
// returned to the caller, not discarded. Otherwise Ne bounds the
// expected reply length (0 meaning 256 in short form, 0 meaning 65536 in
// extended form, per ISO 7816-4 §5.1).
type Command struct {
	CLA, INS, P1, P2 byte
	Data             []byte
	Ne               int // -1 means absent
}

// NeAbsent marks a Command with no expected response length.
const NeAbsent = -1

// Error is a card-level error carrying the raw status word.
type Error struct {
	SW uint16
}

func (e *Error) Error() string {
	return "apdu: status word " + swHex(e.SW)
}

func swHex(sw uint16) string {
	const hexdigits = "0123456789ABCDEF"
	b := [4]byte{
		hexdigits[(sw>>12)&0xF],
		hexdigits[(sw>>8)&0xF],
		hexdigits[(sw>>4)&0xF],
		hexdigits[sw&0xF],
	}
	return string(b[:])
}

// NewError wraps an SW as a trace-compatible error.
func NewError(sw uint16) error {
	return trace.Wrap(&Error{SW: sw})
}

// Encode renders cmd as wire bytes using short form if it fits, otherwise
// extended form (caller must have confirmed the connection supports
// extended length; Session callers do this via
// transport.Connection.SupportsExtendedLength).
func Encode(cmd Command, extended bool) ([]byte, error) {
	if len(cmd.Data) > 65535 {
		return nil, trace.BadParameter("apdu: data too long: %d bytes", len(cmd.Data))
	}
	if cmd.Ne > 65536 {
		return nil, trace.BadParameter("apdu: Ne too large: %d", cmd.Ne)
	}

	useExtended := extended && (len(cmd.Data) > 255 || cmd.Ne > 256)
	if !extended && (len(cmd.Data) > 255 || cmd.Ne > 256) {
		return nil, trace.BadParameter("apdu: command requires extended length but connection doesn't support it")
	}

	if useExtended {
		return encodeExtended(cmd), nil
	}
	return encodeShort(cmd)
}

func encodeShort(cmd Command) ([]byte, error) {
	if len(cmd.Data) > 255 {
		return nil, trace.BadParameter("apdu: data too long for short form: %d bytes", len(cmd.Data))
	}
	if cmd.Ne > 256 {
		return nil, trace.BadParameter("apdu: Ne too large for short form: %d", cmd.Ne)
	}

	out := make([]byte, 4, 4+1+len(cmd.Data)+1)
	out[0], out[1], out[2], out[3] = cmd.CLA, cmd.INS, cmd.P1, cmd.P2

	if len(cmd.Data) > 0 {
		out = append(out, byte(len(cmd.Data)))
		out = append(out, cmd.Data...)
	}
	if cmd.Ne != NeAbsent {
		le := byte(0) // 0 means 256
		if cmd.Ne != 256 {
			le = byte(cmd.Ne)
		}
		out = append(out, le)
	}
	return out, nil
}

func encodeExtended(cmd Command) []byte {
	out := make([]byte, 4, 4+3+len(cmd.Data)+2)
	out[0], out[1], out[2], out[3] = cmd.CLA, cmd.INS, cmd.P1, cmd.P2

	if len(cmd.Data) > 0 {
		out = append(out, 0x00)
		lc := make([]byte, 2)
		binary.BigEndian.PutUint16(lc, uint16(len(cmd.Data)))
		out = append(out, lc...)
		out = append(out, cmd.Data...)
	}
	if cmd.Ne != NeAbsent {
		if len(cmd.Data) == 0 {
			out = append(out, 0x00)
		}
		le := make([]byte, 2)
		if cmd.Ne != 65536 {
			binary.BigEndian.PutUint16(le, uint16(cmd.Ne))
		}
		out = append(out, le...)
	}
	return out
}

// Decode parses wire-format command bytes back into a Command. It
// recognizes both short and extended forms. Used by property tests
// (encode/decode round trip, spec.md §8 invariant 1) and by any server-side
// consumer that needs to inspect raw APDUs.
func Decode(raw []byte) (Command, error) {
	if len(raw) < 4 {
		return Command{}, trace.BadParameter("apdu: command too short: %d bytes", len(raw))
	}
	cmd := Command{CLA: raw[0], INS: raw[1], P1: raw[2], P2: raw[3], Ne: NeAbsent}
	rest := raw[4:]

	switch {
	case len(rest) == 0:
		return cmd, nil
	case len(rest) == 1:
		cmd.Ne = leValue(rest[0])
		return cmd, nil
	case rest[0] == 0x00 && len(rest) == 3:
		// Extended form with Le only: 00 Le(2)
		le := binary.BigEndian.Uint16(rest[1:3])
		if le == 0 {
			cmd.Ne = 65536
		} else {
			cmd.Ne = int(le)
		}
		return cmd, nil
	case rest[0] == 0x00 && len(rest) >= 3:
		// Extended form: 00 Lc(2) data [Le(2)]
		lc := int(binary.BigEndian.Uint16(rest[1:3]))
		body := rest[3:]
		if lc > 0 {
			if len(body) < lc {
				return Command{}, trace.BadParameter("apdu: truncated extended data")
			}
			cmd.Data = append([]byte(nil), body[:lc]...)
			body = body[lc:]
		}
		switch len(body) {
		case 0:
		case 2:
			le := binary.BigEndian.Uint16(body)
			if le == 0 {
				cmd.Ne = 65536
			} else {
				cmd.Ne = int(le)
			}
		default:
			return Command{}, trace.BadParameter("apdu: malformed extended Le")
		}
		return cmd, nil
	default:
		// Short form: Lc data [Le]
		lc := int(rest[0])
		body := rest[1:]
		if len(body) < lc {
			return Command{}, trace.BadParameter("apdu: truncated short data")
		}
		cmd.Data = append([]byte(nil), body[:lc]...)
		body = body[lc:]
		switch len(body) {
		case 0:
		case 1:
			cmd.Ne = leValue(body[0])
		default:
			return Command{}, trace.BadParameter("apdu: trailing bytes after short Le")
		}
		return cmd, nil
	}
}

func leValue(le byte) int {
	if le == 0 {
		return 256
	}
	return int(le)
}

// Response is a parsed {data, sw} pair.
type Response struct {
	Data []byte
	SW   uint16
}

// ParseResponse splits raw wire bytes into body and trailing status word.
func ParseResponse(raw []byte) (Response, error) {
	if len(raw) < 2 {
		return Response{}, trace.BadParameter("apdu: response too short: %d bytes", len(raw))
	}
	n := len(raw)
	return Response{
		Data: raw[:n-2],
		SW:   binary.BigEndian.Uint16(raw[n-2:]),
	}, nil
}

// Select builds a SELECT command for the given AID, requesting FCI data
// back (P1=04 AID select, P2=00).
func Select(aid []byte) Command {
	return Command{CLA: 0x00, INS: insSelect, P1: 0x04, P2: 0x00, Data: aid, Ne: 256}
}

// GetResponse builds a GET RESPONSE command requesting n bytes, following
// a 61xx chaining status.
func GetResponse(n byte) Command {
	ne := 256
	if n != 0 {
		ne = int(n)
	}
	return Command{CLA: 0x00, INS: insGetResponse, P1: 0x00, P2: 0x00, Ne: ne}
}
