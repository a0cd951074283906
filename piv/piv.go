// Package piv implements the PIV (NIST SP 800-73-4) card application:
// slot-addressed key generation, signing via GENERAL AUTHENTICATE, PIN/PUK
// management, and X.509 certificate storage (spec.md §4.6). Slot and
// algorithm identifiers mirror go-piv/piv-go/v2's public constants so
// callers migrating from that library recognize the vocabulary, but the
// protocol implementation here is self-contained.
package piv

import (
	"context"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/apdu"
	"github.com/yubicore/yubicore/transport"
)

// AID is the PIV application identifier (NIST SP 800-73-4 Part 1 §2.2).
var AID = []byte{0xA0, 0x00, 0x00, 0x03, 0x08, 0x00, 0x00, 0x10, 0x00, 0x01, 0x00}

// Slot identifies a PIV key slot by its one-byte reference.
type Slot byte

// Well-known PIV slots.
const (
	SlotAuthentication     Slot = 0x9A
	SlotSignature          Slot = 0x9C
	SlotCardAuthentication Slot = 0x9E
	SlotKeyManagement      Slot = 0x9D
)

// RetiredKeyManagementSlot returns one of the 20 retired key management
// slots (0x82-0x95), numbered 1-20.
func RetiredKeyManagementSlot(n int) (Slot, error) {
	if n < 1 || n > 20 {
		return 0, trace.BadParameter("piv: retired slot number %d out of range [1,20]", n)
	}
	return Slot(0x82 + n - 1), nil
}

func (s Slot) String() string {
	switch s {
	case SlotAuthentication:
		return "9a"
	case SlotSignature:
		return "9c"
	case SlotCardAuthentication:
		return "9e"
	case SlotKeyManagement:
		return "9d"
	default:
		return hexByte(byte(s))
	}
}

func hexByte(b byte) string {
	const hexdigits = "0123456789abcdef"
	return string([]byte{hexdigits[b>>4], hexdigits[b&0xF]})
}

// objectTagFor maps a key slot to its certificate data object tag
// (NIST SP 800-73-4 Part 1 Table 3).
func objectTagFor(slot Slot) (uint32, error) {
	switch slot {
	case SlotAuthentication:
		return 0x5FC105, nil
	case SlotSignature:
		return 0x5FC10A, nil
	case SlotCardAuthentication:
		return 0x5FC101, nil
	case SlotKeyManagement:
		return 0x5FC10B, nil
	default:
		n := int(slot) - 0x82
		if n < 0 || n > 19 {
			return 0, trace.BadParameter("piv: no certificate object for slot %s", slot)
		}
		return uint32(0x5FC10D + n), nil
	}
}

// Algorithm is a PIV cryptographic algorithm identifier (SP 800-78-4
// Table 6-2).
type Algorithm byte

const (
	AlgorithmTDES   Algorithm = 0x03
	AlgorithmRSA1024 Algorithm = 0x06
	AlgorithmRSA2048 Algorithm = 0x07
	AlgorithmEC256   Algorithm = 0x11
	AlgorithmEC384   Algorithm = 0x14
	AlgorithmEd25519 Algorithm = 0x22 // YubiKey-specific extension
	AlgorithmX25519  Algorithm = 0x23 // YubiKey-specific extension
)

// PINPolicy controls when the PIN must be verified before a private key
// operation.
type PINPolicy byte

const (
	PINPolicyNever  PINPolicy = 0x01
	PINPolicyOnce   PINPolicy = 0x02
	PINPolicyAlways PINPolicy = 0x03
)

// TouchPolicy controls when a physical touch is required.
type TouchPolicy byte

const (
	TouchPolicyNever  TouchPolicy = 0x01
	TouchPolicyAlways TouchPolicy = 0x02
	TouchPolicyCached TouchPolicy = 0x03
)

// Default factory credentials (NIST SP 800-73-4 Part 2 Appendix A).
var (
	DefaultPIN            = "123456"
	DefaultPUK            = "12345678"
	DefaultManagementKey  = [24]byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	}
)

// Key describes the parameters for GenerateKey.
type Key struct {
	Algorithm   Algorithm
	PINPolicy   PINPolicy
	TouchPolicy TouchPolicy
}

// KeyAuth describes how a slot's PIN is supplied for a private key
// operation.
type KeyAuth struct {
	PIN       string
	PINPolicy PINPolicy
	// PINPrompt is invoked to obtain a PIN interactively when PIN is
	// empty and PINPolicy requires one.
	PINPrompt func() (string, error)
}

// Session drives the PIV application over a transport.Card.
type Session struct {
	card *transport.Card
}

// NewSession selects the PIV application on card and returns a Session.
func NewSession(ctx context.Context, card *transport.Card) (*Session, error) {
	if _, err := card.Select(ctx, AID); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Session{card: card}, nil
}

// send transmits cmd and returns its response body. A non-9000 status is
// returned as *apdu.Error by transport.Card.
func (s *Session) send(ctx context.Context, cmd apdu.Command) ([]byte, error) {
	return s.card.SendAndReceive(ctx, cmd)
}
