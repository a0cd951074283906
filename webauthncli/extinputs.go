package webauthncli

import (
	"context"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/clienterr"
	"github.com/yubicore/yubicore/ctap2"
	"github.com/yubicore/yubicore/pinuv"
	"github.com/yubicore/yubicore/secret"
	"github.com/yubicore/yubicore/webauthncli/extension"
)

// createExtensionInputsFrom reads the CTAP2 extensions webauthncli knows
// how to request out of a CredentialCreation's client extension map.
func createExtensionInputsFrom(ext protocol.AuthenticationExtensions) extension.MakeCredentialInputs {
	var in extension.MakeCredentialInputs
	if ext == nil {
		return in
	}
	if v, ok := ext["hmacCreateSecret"].(bool); ok {
		in.HMACSecret = v
	}
	switch v := ext["credentialProtectionPolicy"].(type) {
	case int:
		in.CredProtect = v
	case int64:
		in.CredProtect = int(v)
	case float64:
		in.CredProtect = int(v)
	}
	if v, ok := ext["minPinLength"].(bool); ok {
		in.MinPinLength = v
	}
	return in
}

// hmacSecretSaltsFrom reads the hmac-secret salts out of a
// CredentialAssertion's client extension map (WebAuthn "hmacGetSecret").
func hmacSecretSaltsFrom(ext protocol.AuthenticationExtensions) (salt1, salt2 []byte) {
	if ext == nil {
		return nil, nil
	}
	raw, ok := ext["hmacGetSecret"].(map[string]any)
	if !ok {
		return nil, nil
	}
	if s, ok := raw["salt1"].([]byte); ok {
		salt1 = s
	}
	if s, ok := raw["salt2"].([]byte); ok {
		salt2 = s
	}
	return salt1, salt2
}

// beginHMACSecretExtension performs the hmac-secret extension's own
// ECDH key-agreement exchange (independent of any pinUvAuthToken key
// agreement already performed for this ceremony), encrypts salt1||salt2
// under the resulting shared secret, and authenticates the ciphertext.
// The returned shared secret must be zeroed by the caller once the
// response's encrypted output has been decrypted.
func (c *Client) beginHMACSecretExtension(ctx context.Context, proto pinuv.Protocol, salt1, salt2 []byte) (extension.GetResult, *secret.Bytes, error) {
	if len(salt1) != 32 || (len(salt2) != 0 && len(salt2) != 32) {
		return extension.GetResult{}, nil, clienterr.New(clienterr.BadRequest,
			trace.BadParameter("webauthncli: hmac-secret salts must be 32 bytes"))
	}

	caller := pinuv.NewCaller(c.sess, proto)
	platformPriv, authPub, err := caller.KeyAgreement(ctx)
	if err != nil {
		return extension.GetResult{}, nil, trace.Wrap(err)
	}
	shared, err := proto.SharedSecret(platformPriv, authPub)
	if err != nil {
		return extension.GetResult{}, nil, trace.Wrap(err)
	}

	salts := append(append([]byte(nil), salt1...), salt2...)
	saltEnc, err := proto.Encrypt(shared, salts)
	if err != nil {
		shared.Zero()
		return extension.GetResult{}, nil, trace.Wrap(err)
	}
	saltAuth := proto.Authenticate(shared, saltEnc)

	platformCOSE, err := pinuv.COSEFromPublicKey(platformPriv.PublicKey())
	if err != nil {
		shared.Zero()
		return extension.GetResult{}, nil, trace.Wrap(err)
	}

	in := extension.GetAssertionInputs{HMACSecretSalt1: salt1, HMACSecretSalt2: salt2}
	return extension.BuildGetExtensions(in, saltEnc, saltAuth, platformCOSE, uint32(proto.Version())), shared, nil
}

// negotiatedProtocol picks the PIN/UV auth protocol version this host and
// the authenticator have in common, preferring protocol 2.
func negotiatedProtocol(info *ctap2.InfoData) (pinuv.Protocol, error) {
	version, err := pinuv.Negotiate([]pinuv.Version{pinuv.Version2, pinuv.Version1}, info.PinUvAuthProtocols)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return pinuv.For(version)
}
