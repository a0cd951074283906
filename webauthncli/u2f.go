package webauthncli

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/apdu"
	yubicbor "github.com/yubicore/yubicore/cbor"
	"github.com/yubicore/yubicore/clienterr"
	"github.com/yubicore/yubicore/cose"
	"github.com/yubicore/yubicore/transport"
	"github.com/yubicore/yubicore/webauthntypes"
)

// CTAP1/U2F instruction bytes.
const (
	insU2FRegister     = 0x01
	insU2FAuthenticate = 0x02
	insU2FVersion      = 0x03
)

// U2F_AUTHENTICATE control bytes (P1). The authenticator reports whether a
// key handle belongs to it without requiring a touch under control byte
// 0x07; signing a real assertion (requiring touch) uses 0x03.
const (
	u2fControlCheckOnly               = 0x07
	u2fControlEnforceUserPresenceSign = 0x03
)

type u2fAttStmt struct {
	X5C [][]byte `cbor:"x5c"`
	Sig []byte   `cbor:"sig"`
}

// u2fTransmit sends one ISO 7816-4 APDU over a raw transport.Connection,
// following 61xx GET RESPONSE chaining, and returns the response body and
// status word without mapping a non-9000 SW to an error: U2F_AUTHENTICATE
// overloads the SW space for check-only signaling (spec.md §4.4 "CTAP1
// fallback"), so the caller must inspect sw itself.
func u2fTransmit(ctx context.Context, conn transport.Connection, cmd apdu.Command) ([]byte, uint16, error) {
	raw, err := apdu.Encode(cmd, conn.SupportsExtendedLength())
	if err != nil {
		return nil, 0, trace.Wrap(err)
	}
	respRaw, err := conn.Send(ctx, raw)
	if err != nil {
		return nil, 0, trace.ConnectionProblem(err, "webauthncli: u2f transmit failed")
	}
	resp, err := apdu.ParseResponse(respRaw)
	if err != nil {
		return nil, 0, trace.Wrap(err)
	}

	body := append([]byte(nil), resp.Data...)
	for byte(resp.SW>>8) == 0x61 {
		grRaw, err := apdu.Encode(apdu.GetResponse(byte(resp.SW)), conn.SupportsExtendedLength())
		if err != nil {
			return nil, 0, trace.Wrap(err)
		}
		respRaw, err = conn.Send(ctx, grRaw)
		if err != nil {
			return nil, 0, trace.ConnectionProblem(err, "webauthncli: u2f GET RESPONSE failed")
		}
		resp, err = apdu.ParseResponse(respRaw)
		if err != nil {
			return nil, 0, trace.Wrap(err)
		}
		body = append(body, resp.Data...)
	}
	return body, resp.SW, nil
}

func u2fAppParam(rpID string) []byte {
	sum := sha256.Sum256([]byte(rpID))
	return sum[:]
}

// u2fRegister issues U2F_REGISTER and splits its response into the raw
// uncompressed EC point, key handle, attestation certificate, and
// signature (the certificate and signature are both variable-length DER,
// distinguished by parsing the certificate's own length prefix).
func u2fRegister(ctx context.Context, conn transport.Connection, challenge, appParam []byte) (pubKey, keyHandle, cert, sig []byte, err error) {
	data := append(append([]byte(nil), challenge...), appParam...)
	cmd := apdu.Command{CLA: 0x00, INS: insU2FRegister, P1: 0x00, P2: 0x00, Data: data, Ne: 65536}

	body, sw, err := u2fTransmit(ctx, conn, cmd)
	if err != nil {
		return nil, nil, nil, nil, trace.Wrap(err)
	}
	if sw != apdu.SWSuccess {
		return nil, nil, nil, nil, apdu.NewError(sw)
	}
	if len(body) < 1+65+1 {
		return nil, nil, nil, nil, trace.BadParameter("webauthncli: u2f register response truncated")
	}
	if body[0] != 0x05 {
		return nil, nil, nil, nil, trace.BadParameter("webauthncli: unexpected u2f register reserved byte 0x%02x", body[0])
	}
	rest := body[1:]

	pubKey, rest = rest[:65], rest[65:]

	khLen := int(rest[0])
	rest = rest[1:]
	if len(rest) < khLen {
		return nil, nil, nil, nil, trace.BadParameter("webauthncli: u2f register key handle truncated")
	}
	keyHandle, rest = rest[:khLen], rest[khLen:]

	certLen, err := derElementLength(rest)
	if err != nil {
		return nil, nil, nil, nil, trace.Wrap(err)
	}
	if len(rest) < certLen {
		return nil, nil, nil, nil, trace.BadParameter("webauthncli: u2f register certificate truncated")
	}
	cert, sig = rest[:certLen], rest[certLen:]
	return pubKey, keyHandle, cert, sig, nil
}

// u2fCheckOnly issues U2F_AUTHENTICATE with the check-only control byte,
// reporting whether keyHandle is one this authenticator holds.
func u2fCheckOnly(ctx context.Context, conn transport.Connection, challenge, appParam, keyHandle []byte) (bool, error) {
	cmd := apdu.Command{
		CLA: 0x00, INS: insU2FAuthenticate, P1: u2fControlCheckOnly, P2: 0x00,
		Data: u2fAuthenticateData(challenge, appParam, keyHandle), Ne: 65536,
	}
	_, sw, err := u2fTransmit(ctx, conn, cmd)
	if err != nil {
		return false, trace.Wrap(err)
	}
	switch sw {
	case apdu.SWConditionsNotSatisfied:
		return true, nil
	case apdu.SWWrongData:
		return false, nil
	default:
		return false, apdu.NewError(sw)
	}
}

// u2fAuthenticate issues U2F_AUTHENTICATE with the enforce-user-presence
// control byte, producing a real assertion signature.
func u2fAuthenticate(ctx context.Context, conn transport.Connection, challenge, appParam, keyHandle []byte) (counter uint32, sig []byte, err error) {
	cmd := apdu.Command{
		CLA: 0x00, INS: insU2FAuthenticate, P1: u2fControlEnforceUserPresenceSign, P2: 0x00,
		Data: u2fAuthenticateData(challenge, appParam, keyHandle), Ne: 65536,
	}
	body, sw, err := u2fTransmit(ctx, conn, cmd)
	if err != nil {
		return 0, nil, trace.Wrap(err)
	}
	if sw != apdu.SWSuccess {
		return 0, nil, apdu.NewError(sw)
	}
	if len(body) < 5 {
		return 0, nil, trace.BadParameter("webauthncli: u2f authenticate response truncated")
	}
	return binary.BigEndian.Uint32(body[1:5]), body[5:], nil
}

func u2fAuthenticateData(challenge, appParam, keyHandle []byte) []byte {
	out := make([]byte, 0, len(challenge)+len(appParam)+1+len(keyHandle))
	out = append(out, challenge...)
	out = append(out, appParam...)
	out = append(out, byte(len(keyHandle)))
	out = append(out, keyHandle...)
	return out
}

// derElementLength reports the total byte length (tag + length + content)
// of the single DER TLV element at the front of data, without otherwise
// parsing it: enough to split a X.509 certificate from the signature that
// immediately follows it in a U2F_REGISTER response.
func derElementLength(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, trace.BadParameter("webauthncli: truncated DER element")
	}
	b := data[1]
	if b&0x80 == 0 {
		return 2 + int(b), nil
	}
	n := int(b &^ 0x80)
	if n == 0 || n > 4 || len(data) < 2+n {
		return 0, trace.BadParameter("webauthncli: malformed DER length")
	}
	length := 0
	for i := 0; i < n; i++ {
		length = length<<8 | int(data[2+i])
	}
	return 2 + n + length, nil
}

func coseFromU2FPublicKey(raw []byte) ([]byte, error) {
	if len(raw) != 65 || raw[0] != 0x04 {
		return nil, trace.BadParameter("webauthncli: unexpected u2f public key encoding")
	}
	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[1:33]),
		Y:     new(big.Int).SetBytes(raw[33:65]),
	}
	return cose.EncodeEC2(pub, cose.AlgES256)
}

// synthesizeU2FAttestationObject builds the WebAuthn authData and
// "fido-u2f" attStmt a CTAP1 registration is reported as, per the
// fido-u2f attestation statement format (spec.md §4.4 "CTAP1 fallback"):
// a zero AAGUID, the U2F key handle as credential ID, and the
// uncompressed EC point re-encoded as a COSE EC2 key.
func synthesizeU2FAttestationObject(rpIDHash, pubKey, keyHandle, cert, sig []byte) (authData, attStmtBytes []byte, err error) {
	coseKey, err := coseFromU2FPublicKey(pubKey)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}

	authData = make([]byte, 0, 32+1+4+16+2+len(keyHandle)+len(coseKey))
	authData = append(authData, rpIDHash...)
	authData = append(authData, flagUP|flagAT)
	authData = append(authData, 0, 0, 0, 0)
	authData = append(authData, make([]byte, 16)...) // AAGUID is always zero for fido-u2f
	authData = append(authData, byte(len(keyHandle)>>8), byte(len(keyHandle)))
	authData = append(authData, keyHandle...)
	authData = append(authData, coseKey...)

	attStmtBytes, err = yubicbor.Marshal(u2fAttStmt{X5C: [][]byte{cert}, Sig: sig})
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	return authData, attStmtBytes, nil
}

// makeCredentialU2F runs the CTAP1/U2F registration ceremony, used when
// the authenticator does not answer authenticatorGetInfo. It supports
// only ES256 and cannot honor a resident-key request.
func (c *Client) makeCredentialU2F(ctx context.Context, cc *webauthntypes.CredentialCreation, clientDataHash []byte) (*MakeCredentialResult, error) {
	rk, err := cc.RequireResidentKey()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if rk {
		return nil, clienterr.New(clienterr.ConfigurationUnsupported,
			trace.BadParameter("webauthncli: resident keys require CTAP2"))
	}

	supportsES256 := false
	for _, p := range cc.Response.Parameters {
		if int64(p.Algorithm) == int64(cose.AlgES256) {
			supportsES256 = true
			break
		}
	}
	if !supportsES256 {
		return nil, clienterr.New(clienterr.ConfigurationUnsupported,
			trace.BadParameter("webauthncli: CTAP1 fallback only supports ES256"))
	}

	appParam := u2fAppParam(cc.Response.RelyingParty.ID)

	for _, excl := range cc.Response.ExcludeCredentials {
		excluded, err := u2fCheckOnly(ctx, c.conn, clientDataHash, appParam, excl.CredentialID)
		if err != nil {
			return nil, classifyCeremonyError(err)
		}
		if excluded {
			return nil, clienterr.New(clienterr.BadRequest, trace.BadParameter("webauthncli: credentialExcluded"))
		}
	}

	touch, err := c.prompt.PromptTouch()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	defer touch()

	pubKey, keyHandle, cert, sig, err := u2fRegister(ctx, c.conn, clientDataHash, appParam)
	if err != nil {
		return nil, classifyCeremonyError(err)
	}

	authData, attStmt, err := synthesizeU2FAttestationObject(appParam, pubKey, keyHandle, cert, sig)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	return &MakeCredentialResult{
		CredentialID: keyHandle,
		AuthData:     authData,
		Fmt:          "fido-u2f",
		AttStmt:      attStmt,
	}, nil
}

// getAssertionU2F runs the CTAP1/U2F authentication ceremony, trying each
// allowed credential's key handle in turn (U2F has no discoverable
// credentials, so allowCredentials is mandatory here).
func (c *Client) getAssertionU2F(ctx context.Context, ca *webauthntypes.CredentialAssertion, clientDataHash []byte) (*GetAssertionResult, error) {
	if len(ca.Response.AllowedCredentials) == 0 {
		return nil, clienterr.New(clienterr.DeviceIneligible,
			trace.BadParameter("webauthncli: CTAP1 fallback requires allowCredentials"))
	}

	appParam := u2fAppParam(ca.Response.RelyingPartyID)

	touch, err := c.prompt.PromptTouch()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	defer touch()

	var lastErr error
	for _, cred := range ca.Response.AllowedCredentials {
		counter, sig, err := u2fAuthenticate(ctx, c.conn, clientDataHash, appParam, cred.CredentialID)
		if err != nil {
			var apduErr *apdu.Error
			if errors.As(err, &apduErr) && apduErr.SW == apdu.SWWrongData {
				lastErr = err
				continue
			}
			return nil, classifyCeremonyError(err)
		}

		authData := make([]byte, 0, 37)
		authData = append(authData, appParam...)
		authData = append(authData, flagUP)
		ctr := make([]byte, 4)
		binary.BigEndian.PutUint32(ctr, counter)
		authData = append(authData, ctr...)

		return &GetAssertionResult{
			CredentialID: cred.CredentialID,
			AuthData:     authData,
			Signature:    sig,
		}, nil
	}

	return nil, clienterr.New(clienterr.DeviceIneligible, trace.Wrap(lastErr, "webauthncli: no allowed credential recognized"))
}
