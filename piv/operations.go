package piv

import (
	"context"
	"crypto"
	"crypto/des"
	"crypto/rand"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/apdu"
	"github.com/yubicore/yubicore/tlv"
)

// PIV instruction bytes (NIST SP 800-73-4 Part 2 Table 2).
const (
	insVerify                 = 0x20
	insChangeReferenceData    = 0x24
	insResetRetryCounter      = 0x2C
	insGeneralAuthenticate    = 0x87
	insGenerateAsymmetricPair = 0x47
	insPutData                = 0xDB
	insGetData                = 0xCB
)

const (
	tagDynAuth        = 0x7C
	tagChallenge      = 0x81
	tagResponse       = 0x82
	tagWitness        = 0x80
	keyRefManagement  = 0x9B
	keyRefPIN         = 0x80
	keyRefPUK         = 0x81
)

// VerifyPIN authenticates pin against the card's PIN reference data.
func (s *Session) VerifyPIN(ctx context.Context, pin string) error {
	_, err := s.send(ctx, apdu.Command{
		CLA: 0x00, INS: insVerify, P1: 0x00, P2: keyRefPIN,
		Data: padPIN(pin),
	})
	return trace.Wrap(err)
}

// SetPIN changes the PIN from oldPIN to newPIN.
func (s *Session) SetPIN(ctx context.Context, oldPIN, newPIN string) error {
	data := append(padPIN(oldPIN), padPIN(newPIN)...)
	_, err := s.send(ctx, apdu.Command{
		CLA: 0x00, INS: insChangeReferenceData, P1: 0x00, P2: keyRefPIN,
		Data: data,
	})
	return trace.Wrap(err)
}

// SetPUK changes the PUK from oldPUK to newPUK.
func (s *Session) SetPUK(ctx context.Context, oldPUK, newPUK string) error {
	data := append(padPIN(oldPUK), padPIN(newPUK)...)
	_, err := s.send(ctx, apdu.Command{
		CLA: 0x00, INS: insChangeReferenceData, P1: 0x00, P2: keyRefPUK,
		Data: data,
	})
	return trace.Wrap(err)
}

// Unblock resets a blocked PIN to newPIN using puk.
func (s *Session) Unblock(ctx context.Context, puk, newPIN string) error {
	data := append(padPIN(puk), padPIN(newPIN)...)
	_, err := s.send(ctx, apdu.Command{
		CLA: 0x00, INS: insResetRetryCounter, P1: 0x00, P2: keyRefPIN,
		Data: data,
	})
	return trace.Wrap(err)
}

func padPIN(pin string) []byte {
	out := make([]byte, 8)
	copy(out, pin)
	for i := len(pin); i < 8; i++ {
		out[i] = 0xFF
	}
	return out
}

// authenticateManagementKey performs single-direction external
// authentication: the card issues a challenge under key, the host
// decrypts it with the management key and returns it, proving possession
// (NIST SP 800-73-4 Part 2 §3.2.4, simplified to external auth only).
func (s *Session) authenticateManagementKey(ctx context.Context, key [24]byte) error {
	witnessReq := tlv.Encode([]tlv.Node{{Tag: tagDynAuth, Value: tlv.Encode([]tlv.Node{{Tag: tagWitness, Value: nil}})}})
	resp, err := s.send(ctx, apdu.Command{CLA: 0x00, INS: insGeneralAuthenticate, P1: byte(AlgorithmTDES), P2: keyRefManagement, Data: witnessReq})
	if err != nil {
		return trace.Wrap(err)
	}
	nodes, err := tlv.Decode(resp)
	if err != nil || len(nodes) == 0 {
		return trace.BadParameter("piv: malformed management key challenge")
	}
	inner, err := tlv.Decode(nodes[0].Value)
	if err != nil || len(inner) == 0 {
		return trace.BadParameter("piv: malformed management key witness")
	}
	challenge := inner[0].Value

	block, err := des.NewTripleDESCipher(key[:])
	if err != nil {
		return trace.Wrap(err)
	}
	decrypted := make([]byte, len(challenge))
	block.Decrypt(decrypted, challenge)

	authReq := tlv.Encode([]tlv.Node{{Tag: tagDynAuth, Value: tlv.Encode([]tlv.Node{{Tag: tagResponse, Value: decrypted}})}})
	_, err = s.send(ctx, apdu.Command{CLA: 0x00, INS: insGeneralAuthenticate, P1: byte(AlgorithmTDES), P2: keyRefManagement, Data: authReq})
	return trace.Wrap(err)
}

// GenerateKey creates a new key pair in slot and returns its public key.
func (s *Session) GenerateKey(ctx context.Context, mgmtKey [24]byte, slot Slot, key Key) (crypto.PublicKey, error) {
	if err := s.authenticateManagementKey(ctx, mgmtKey); err != nil {
		return nil, trace.Wrap(err)
	}

	var params []tlv.Node
	params = append(params, tlv.Node{Tag: 0x80, Value: []byte{byte(key.Algorithm)}})
	if key.PINPolicy != 0 {
		params = append(params, tlv.Node{Tag: 0xAA, Value: []byte{byte(key.PINPolicy)}})
	}
	if key.TouchPolicy != 0 {
		params = append(params, tlv.Node{Tag: 0xAB, Value: []byte{byte(key.TouchPolicy)}})
	}
	template := tlv.Encode([]tlv.Node{{Tag: 0xAC, Value: tlv.Encode(params)}})

	resp, err := s.send(ctx, apdu.Command{CLA: 0x00, INS: insGenerateAsymmetricPair, P1: 0x00, P2: byte(slot), Data: template})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return parseGeneratedPublicKey(key.Algorithm, resp)
}

// Sign performs GENERAL AUTHENTICATE with the private key in slot over
// digest, which must already be padded/hashed as the algorithm requires.
func (s *Session) Sign(ctx context.Context, slot Slot, algorithm Algorithm, digest []byte) ([]byte, error) {
	req := tlv.Encode([]tlv.Node{{Tag: tagDynAuth, Value: tlv.Encode([]tlv.Node{{Tag: tagChallenge, Value: digest}})}})
	resp, err := s.send(ctx, apdu.Command{CLA: 0x00, INS: insGeneralAuthenticate, P1: byte(algorithm), P2: byte(slot), Data: req})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	nodes, err := tlv.Decode(resp)
	if err != nil || len(nodes) == 0 {
		return nil, trace.BadParameter("piv: malformed sign response")
	}
	inner, err := tlv.Decode(nodes[0].Value)
	if err != nil || len(inner) == 0 {
		return nil, trace.BadParameter("piv: malformed sign response witness")
	}
	return inner[0].Value, nil
}

// SetCertificate stores a DER-encoded X.509 certificate in slot.
func (s *Session) SetCertificate(ctx context.Context, mgmtKey [24]byte, slot Slot, certDER []byte) error {
	if err := s.authenticateManagementKey(ctx, mgmtKey); err != nil {
		return trace.Wrap(err)
	}
	objTag, err := objectTagFor(slot)
	if err != nil {
		return trace.Wrap(err)
	}

	body := tlv.Encode([]tlv.Node{
		{Tag: 0x70, Value: certDER},
		{Tag: 0x71, Value: []byte{0x00}},
		{Tag: 0xFE, Value: nil},
	})
	req := tlv.Encode([]tlv.Node{
		{Tag: 0x5C, Value: encodeObjectTag(objTag)},
		{Tag: 0x53, Value: body},
	})
	_, err = s.send(ctx, apdu.Command{CLA: 0x00, INS: insPutData, P1: 0x3F, P2: 0xFF, Data: req})
	return trace.Wrap(err)
}

// Certificate retrieves the DER-encoded X.509 certificate stored in slot.
func (s *Session) Certificate(ctx context.Context, slot Slot) ([]byte, error) {
	objTag, err := objectTagFor(slot)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	req := tlv.Encode([]tlv.Node{{Tag: 0x5C, Value: encodeObjectTag(objTag)}})
	resp, err := s.send(ctx, apdu.Command{CLA: 0x00, INS: insGetData, P1: 0x3F, P2: 0xFF, Data: req})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	nodes, err := tlv.Decode(resp)
	if err != nil || len(nodes) == 0 {
		return nil, trace.BadParameter("piv: malformed GET DATA response")
	}
	inner, err := tlv.DecodeMap(nodes[0].Value)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	cert, ok := inner[0x70]
	if !ok {
		return nil, trace.NotFound("piv: no certificate stored in slot %s", slot)
	}
	return cert, nil
}

func encodeObjectTag(tag uint32) []byte {
	return []byte{byte(tag >> 16), byte(tag >> 8), byte(tag)}
}

// randomSerial returns 16 random bytes usable as a certificate serial
// number. Nothing in this package calls it.
func randomSerial() ([]byte, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, trace.Wrap(err)
	}
	return b, nil
}
