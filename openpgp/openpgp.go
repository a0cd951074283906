// Package openpgp implements the OpenPGP card application (ISO 7816-4 over
// the card AID D2 76 00 01 24 01): data object access, PIN-protected
// signing/decryption, and the applet-inactive recovery path (spec.md
// §4.7). It has no relation to golang.org/x/crypto/openpgp — the card
// application and the OpenPGP message format are different things.
package openpgp

import (
	"context"
	"errors"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/apdu"
	"github.com/yubicore/yubicore/tlv"
	"github.com/yubicore/yubicore/transport"
)

// AID is the OpenPGP card application identifier.
var AID = []byte{0xD2, 0x76, 0x00, 0x01, 0x24, 0x01}

// Data object tags (16-bit, addressed via GET DATA/PUT DATA).
const (
	TagApplicationRelatedData = 0x006E
	TagDiscretionaryData      = 0x0073
	TagPWStatusBytes          = 0x00C4
	TagSecuritySupportTemplate = 0x007A
	TagKDF                    = 0x00F9
	TagAlgorithmInformation   = 0x00FA
	TagAttestationCert        = 0x00FC
)

// PIN reference numbers.
const (
	PWUser  = 0x81
	PWReset = 0x82
	PWAdmin = 0x83
)

const (
	insActivate      = 0x44
	insTerminate     = 0xE6
	insGetData       = 0xCA
	insPutData       = 0xDA
	insVerify        = 0x20
	insPSO           = 0x2A
	insInternalAuth  = 0x88
)

// PSO (PERFORM SECURITY OPERATION) parameter bytes.
const (
	psoP1ComputeDS = 0x9E
	psoP2ComputeDS = 0x9A
	psoP1Decipher  = 0x80
	psoP2Decipher  = 0x86
)

// Session drives the OpenPGP application over a transport.Card.
type Session struct {
	card *transport.Card
}

// NewSession selects the OpenPGP application, recovering transparently from
// the applet-inactive (6285) condition via ACTIVATE + re-SELECT.
func NewSession(ctx context.Context, card *transport.Card) (*Session, error) {
	s := &Session{card: card}
	if err := s.selectApplet(ctx); err != nil {
		return nil, trace.Wrap(err)
	}
	return s, nil
}

func (s *Session) selectApplet(ctx context.Context) error {
	_, err := s.card.Select(ctx, AID)
	if err == nil {
		return nil
	}
	var apduErr *apdu.Error
	if !errors.As(err, &apduErr) || apduErr.SW != 0x6285 {
		return trace.Wrap(err)
	}
	if _, err := s.card.SendAndReceive(ctx, apdu.Command{CLA: 0x00, INS: insActivate, P1: 0x00, P2: 0x00}); err != nil {
		return trace.Wrap(err)
	}
	_, err = s.card.Select(ctx, AID)
	return trace.Wrap(err)
}

// GetData issues GET DATA for a 16-bit tag.
func (s *Session) GetData(ctx context.Context, tag uint16) ([]byte, error) {
	return s.card.SendAndReceive(ctx, apdu.Command{
		CLA: 0x00, INS: insGetData, P1: byte(tag >> 8), P2: byte(tag),
	})
}

// PutData issues PUT DATA for a 16-bit tag.
func (s *Session) PutData(ctx context.Context, tag uint16, value []byte) error {
	_, err := s.card.SendAndReceive(ctx, apdu.Command{
		CLA: 0x00, INS: insPutData, P1: byte(tag >> 8), P2: byte(tag), Data: value,
	})
	return trace.Wrap(err)
}

// Verify presents pin for the given PIN reference (PWUser/PWReset/PWAdmin).
func (s *Session) Verify(ctx context.Context, ref byte, pin []byte) error {
	_, err := s.card.SendAndReceive(ctx, apdu.Command{CLA: 0x00, INS: insVerify, P1: 0x00, P2: ref, Data: pin})
	return trace.Wrap(err)
}

// ComputeDigitalSignature performs PSO CDS over a pre-hashed digest using
// the signature (SIG) key.
func (s *Session) ComputeDigitalSignature(ctx context.Context, digest []byte) ([]byte, error) {
	return s.card.SendAndReceive(ctx, apdu.Command{
		CLA: 0x00, INS: insPSO, P1: psoP1ComputeDS, P2: psoP2ComputeDS, Data: digest, Ne: apdu.NeAbsent,
	})
}

// DecipherRSA performs PSO DEC for an RSA-encrypted block.
func (s *Session) DecipherRSA(ctx context.Context, ciphertext []byte) ([]byte, error) {
	padded := append([]byte{0x00}, ciphertext...)
	return s.card.SendAndReceive(ctx, apdu.Command{
		CLA: 0x00, INS: insPSO, P1: psoP1Decipher, P2: psoP2Decipher, Data: padded, Ne: apdu.NeAbsent,
	})
}

// DecipherECDH performs PSO DEC for an ECDH peer public key, wrapped in the
// external public key DO (A6 7F49 86) the card expects.
func (s *Session) DecipherECDH(ctx context.Context, peerPoint []byte) ([]byte, error) {
	wrapped := tlv.Encode([]tlv.Node{
		{Tag: 0xA6, Value: tlv.Encode([]tlv.Node{
			{Tag: 0x7F49, Value: tlv.EncodeOne(0x86, peerPoint)},
		})},
	})
	return s.card.SendAndReceive(ctx, apdu.Command{
		CLA: 0x00, INS: insPSO, P1: psoP1Decipher, P2: psoP2Decipher, Data: wrapped, Ne: apdu.NeAbsent,
	})
}

// InternalAuthenticate uses the AUT key to sign/authenticate digest.
func (s *Session) InternalAuthenticate(ctx context.Context, digest []byte) ([]byte, error) {
	return s.card.SendAndReceive(ctx, apdu.Command{
		CLA: 0x00, INS: insInternalAuth, P1: 0x00, P2: 0x00, Data: digest, Ne: apdu.NeAbsent,
	})
}

// Reset exhausts the user and admin PIN retry counters deliberately, then
// TERMINATEs and ACTIVATEs the card, returning it to its factory state
// (spec.md §4.7).
func (s *Session) Reset(ctx context.Context) error {
	wrongPIN := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	for _, ref := range []byte{PWUser, PWAdmin} {
		for i := 0; i < 4; i++ {
			if err := s.Verify(ctx, ref, wrongPIN); err == nil {
				break
			}
		}
	}
	if _, err := s.card.SendAndReceive(ctx, apdu.Command{CLA: 0x00, INS: insTerminate, P1: 0x00, P2: 0x00}); err != nil {
		return trace.Wrap(err)
	}
	if _, err := s.card.SendAndReceive(ctx, apdu.Command{CLA: 0x00, INS: insActivate, P1: 0x00, P2: 0x00}); err != nil {
		return trace.Wrap(err)
	}
	return nil
}
