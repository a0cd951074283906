package pinuv

import (
	"context"
	"crypto/ecdh"

	"github.com/gravitational/trace"

	yubicbor "github.com/yubicore/yubicore/cbor"
	"github.com/yubicore/yubicore/ctap2"
	"github.com/yubicore/yubicore/secret"
)

// ClientPin subcommand numbers (spec.md §4.3).
const (
	subGetPinRetries                      = 0x01
	subGetKeyAgreement                    = 0x02
	subSetPin                             = 0x03
	subChangePin                          = 0x04
	subGetPinToken                        = 0x05
	subGetPinUvAuthTokenUsingUvWithPerms  = 0x06
	subGetUvRetries                       = 0x07
	subGetPinUvAuthTokenUsingPinWithPerms = 0x09
)

// Permission bits for pinUvAuthToken requests.
const (
	PermissionMakeCredential       = 0x01
	PermissionGetAssertion         = 0x02
	PermissionCredentialManagement = 0x04
	PermissionBioEnrollment        = 0x08
	PermissionLargeBlobWrite       = 0x10
	PermissionAuthenticatorConfig  = 0x20
)

// Caller issues authenticatorClientPIN commands over a ctap2.Session using
// a negotiated Protocol.
type Caller struct {
	sess  *ctap2.Session
	proto Protocol
}

// NewCaller binds a ctap2.Session to a negotiated Protocol.
func NewCaller(sess *ctap2.Session, proto Protocol) *Caller {
	return &Caller{sess: sess, proto: proto}
}

type pinParams struct {
	PinUvAuthProtocol uint32          `cbor:"1,keyasint"`
	SubCommand        uint32          `cbor:"2,keyasint"`
	KeyAgreement      yubicbor.RawMessage `cbor:"3,keyasint,omitempty"`
	PinUvAuthParam    []byte          `cbor:"4,keyasint,omitempty"`
	NewPinEnc         []byte          `cbor:"5,keyasint,omitempty"`
	PinHashEnc        []byte          `cbor:"6,keyasint,omitempty"`
	Permissions       uint32          `cbor:"9,keyasint,omitempty"`
	RpID              string          `cbor:"10,keyasint,omitempty"`
}

type pinResponse struct {
	KeyAgreement yubicbor.RawMessage `cbor:"1,keyasint,omitempty"`
	PinUvAuthToken []byte            `cbor:"2,keyasint,omitempty"`
	PinRetries     uint32            `cbor:"3,keyasint,omitempty"`
	PowerCycleState bool             `cbor:"4,keyasint,omitempty"`
	UvRetries      uint32            `cbor:"5,keyasint,omitempty"`
}

// GetPinRetries returns the number of PIN attempts remaining before the
// authenticator blocks.
func (c *Caller) GetPinRetries(ctx context.Context) (int, error) {
	var resp pinResponse
	params := pinParams{PinUvAuthProtocol: uint32(c.proto.Version()), SubCommand: subGetPinRetries}
	if err := c.sess.Call(ctx, ctap2.CmdClientPin, params, &resp); err != nil {
		return 0, trace.Wrap(err)
	}
	return int(resp.PinRetries), nil
}

// GetUvRetries returns the number of built-in-UV attempts remaining.
func (c *Caller) GetUvRetries(ctx context.Context) (int, error) {
	var resp pinResponse
	params := pinParams{PinUvAuthProtocol: uint32(c.proto.Version()), SubCommand: subGetUvRetries}
	if err := c.sess.Call(ctx, ctap2.CmdClientPin, params, &resp); err != nil {
		return 0, trace.Wrap(err)
	}
	return int(resp.UvRetries), nil
}

// KeyAgreement performs getKeyAgreement and returns the authenticator's
// ephemeral public key alongside the platform's ephemeral key pair (which
// the caller feeds into Protocol.SharedSecret).
func (c *Caller) KeyAgreement(ctx context.Context) (*ecdh.PrivateKey, *ecdh.PublicKey, error) {
	platformPriv, err := c.proto.KeyAgreement()
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}

	var resp pinResponse
	params := pinParams{PinUvAuthProtocol: uint32(c.proto.Version()), SubCommand: subGetKeyAgreement}
	if err := c.sess.Call(ctx, ctap2.CmdClientPin, params, &resp); err != nil {
		return nil, nil, trace.Wrap(err)
	}
	authPub, err := ParseAuthenticatorKeyAgreementKey(resp.KeyAgreement)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	return platformPriv, authPub, nil
}

// sharedSecretFor performs the full key-agreement round-trip and returns
// the derived shared secret plus the platform's public key (to embed in
// subsequent requests' "keyAgreement" field).
func (c *Caller) sharedSecretFor(ctx context.Context) (*secret.Bytes, *ecdh.PublicKey, error) {
	platformPriv, authPub, err := c.KeyAgreement(ctx)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	shared, err := c.proto.SharedSecret(platformPriv, authPub)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	return shared, platformPriv.PublicKey(), nil
}

// GetPinUvAuthTokenUsingPinWithPermissions acquires a pinUvAuthToken bound
// to rpID (optional) with the given permission bitfield, authenticated by
// the PIN's hash. pin is zeroized before returning.
func (c *Caller) GetPinUvAuthTokenUsingPinWithPermissions(ctx context.Context, pin *secret.Bytes, permissions uint32, rpID string) (*secret.Bytes, error) {
	defer pin.Zero()

	shared, platformPub, err := c.sharedSecretFor(ctx)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	defer shared.Zero()

	pinHash := sha256First16(pin.Bytes())
	pinHashEnc, err := c.proto.Encrypt(shared, pinHash)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	platformCOSE, err := coseFromECDHPublicKey(platformPub)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var resp pinResponse
	params := pinParams{
		PinUvAuthProtocol: uint32(c.proto.Version()),
		SubCommand:        subGetPinUvAuthTokenUsingPinWithPerms,
		KeyAgreement:      platformCOSE,
		PinHashEnc:        pinHashEnc,
		Permissions:       permissions,
		RpID:              rpID,
	}
	if err := c.sess.Call(ctx, ctap2.CmdClientPin, params, &resp); err != nil {
		return nil, trace.Wrap(err)
	}

	tokenEnc := resp.PinUvAuthToken
	token, err := c.proto.Decrypt(shared, tokenEnc)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return secret.New(token), nil
}

// GetPinUvAuthTokenUsingUvWithPermissions mirrors the PIN variant but
// authenticates via the authenticator's built-in user verification.
func (c *Caller) GetPinUvAuthTokenUsingUvWithPermissions(ctx context.Context, permissions uint32, rpID string) (*secret.Bytes, error) {
	shared, platformPub, err := c.sharedSecretFor(ctx)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	defer shared.Zero()

	platformCOSE, err := coseFromECDHPublicKey(platformPub)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var resp pinResponse
	params := pinParams{
		PinUvAuthProtocol: uint32(c.proto.Version()),
		SubCommand:        subGetPinUvAuthTokenUsingUvWithPerms,
		KeyAgreement:      platformCOSE,
		Permissions:       permissions,
		RpID:              rpID,
	}
	if err := c.sess.Call(ctx, ctap2.CmdClientPin, params, &resp); err != nil {
		return nil, trace.Wrap(err)
	}
	token, err := c.proto.Decrypt(shared, resp.PinUvAuthToken)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return secret.New(token), nil
}

// SetPin configures a PIN on an authenticator that has none set yet.
func (c *Caller) SetPin(ctx context.Context, newPin *secret.Bytes) error {
	defer newPin.Zero()

	shared, platformPub, err := c.sharedSecretFor(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	defer shared.Zero()

	padded := padPIN(newPin.Bytes())
	newPinEnc, err := c.proto.Encrypt(shared, padded)
	if err != nil {
		return trace.Wrap(err)
	}
	pinAuth := c.proto.Authenticate(shared, newPinEnc)

	platformCOSE, err := coseFromECDHPublicKey(platformPub)
	if err != nil {
		return trace.Wrap(err)
	}

	params := pinParams{
		PinUvAuthProtocol: uint32(c.proto.Version()),
		SubCommand:        subSetPin,
		KeyAgreement:      platformCOSE,
		NewPinEnc:         newPinEnc,
		PinUvAuthParam:    pinAuth,
	}
	return trace.Wrap(c.sess.Call(ctx, ctap2.CmdClientPin, params, nil))
}

// ChangePin replaces an existing PIN.
func (c *Caller) ChangePin(ctx context.Context, oldPin, newPin *secret.Bytes) error {
	defer oldPin.Zero()
	defer newPin.Zero()

	shared, platformPub, err := c.sharedSecretFor(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	defer shared.Zero()

	padded := padPIN(newPin.Bytes())
	newPinEnc, err := c.proto.Encrypt(shared, padded)
	if err != nil {
		return trace.Wrap(err)
	}
	oldHash := sha256First16(oldPin.Bytes())
	oldHashEnc, err := c.proto.Encrypt(shared, oldHash)
	if err != nil {
		return trace.Wrap(err)
	}
	authMsg := append(append([]byte(nil), newPinEnc...), oldHashEnc...)
	pinAuth := c.proto.Authenticate(shared, authMsg)

	platformCOSE, err := coseFromECDHPublicKey(platformPub)
	if err != nil {
		return trace.Wrap(err)
	}

	params := pinParams{
		PinUvAuthProtocol: uint32(c.proto.Version()),
		SubCommand:        subChangePin,
		KeyAgreement:      platformCOSE,
		NewPinEnc:         newPinEnc,
		PinHashEnc:        oldHashEnc,
		PinUvAuthParam:    pinAuth,
	}
	return trace.Wrap(c.sess.Call(ctx, ctap2.CmdClientPin, params, nil))
}

func sha256First16(pin []byte) []byte {
	h := sha256Sum(pin)
	return h[:16]
}

func padPIN(pin []byte) []byte {
	const padLen = 64
	if len(pin) > padLen {
		pin = pin[:padLen]
	}
	out := make([]byte, padLen)
	copy(out, pin)
	return out
}
