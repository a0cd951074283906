// Package extension implements the CTAP2 extension input/output pipeline
// used by webauthncli: hmac-secret, credBlob, credProtect, minPinLength,
// and largeBlobKey compression (spec.md §4.5).
package extension

import (
	"bytes"
	"io"

	"github.com/gravitational/trace"
	"github.com/klauspost/compress/zstd"
)

// Names of CTAP2 extension identifiers this package handles.
const (
	HMACSecret    = "hmac-secret"
	CredBlob      = "credBlob"
	CredProtect   = "credProtect"
	MinPinLength  = "minPinLength"
	LargeBlobKey  = "largeBlobKey"
)

// CredProtect policy levels (CTAP2.1 §12.3).
const (
	CredProtectUserVerificationOptional          = 1
	CredProtectUserVerificationOptionalWithList  = 2
	CredProtectUserVerificationRequired          = 3
)

// MakeCredentialInputs collects the extension inputs a caller wants echoed
// into an authenticatorMakeCredential request's "extensions" map.
type MakeCredentialInputs struct {
	HMACSecret   bool
	CredBlob     []byte
	CredProtect  int
	MinPinLength bool
}

// ToMap renders the requested inputs into the CBOR "extensions" map shape.
func (in MakeCredentialInputs) ToMap() map[string]any {
	if !in.HMACSecret && len(in.CredBlob) == 0 && in.CredProtect == 0 && !in.MinPinLength {
		return nil
	}
	out := map[string]any{}
	if in.HMACSecret {
		out[HMACSecret] = true
	}
	if len(in.CredBlob) > 0 {
		out[CredBlob] = in.CredBlob
	}
	if in.CredProtect != 0 {
		out[CredProtect] = in.CredProtect
	}
	if in.MinPinLength {
		out[MinPinLength] = true
	}
	return out
}

// GetAssertionInputs collects the extension inputs for
// authenticatorGetAssertion.
type GetAssertionInputs struct {
	HMACSecretSalt1 []byte
	HMACSecretSalt2 []byte
}

// ToMap renders the requested inputs into the CBOR "extensions" map shape.
// The raw salts are encrypted by the caller (HMACSecret requires the
// shared PIN/UV secret) before this map is sent; ToMap assumes the caller
// has already produced the encrypted saltEnc/saltAuth/keyAgreement fields
// and simply passes them through.
func (in GetAssertionInputs) ToMap(saltEnc, saltAuth, platformCOSEKey []byte, pinUvAuthProtocol uint32) map[string]any {
	if len(in.HMACSecretSalt1) == 0 {
		return nil
	}
	return map[string]any{
		HMACSecret: map[string]any{
			1: platformCOSEKey,
			2: saltEnc,
			3: saltAuth,
			4: pinUvAuthProtocol,
		},
	}
}

// CompressLargeBlob zstd-compresses a large-blob array entry per the
// CTAP2.1 large-blob data format (spec.md §4.5): the stored value is
// compressed and the original length is carried alongside it out-of-band.
func CompressLargeBlob(plaintext []byte) (compressed []byte, originalSize int, err error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, 0, trace.Wrap(err)
	}
	if _, err := w.Write(plaintext); err != nil {
		_ = w.Close()
		return nil, 0, trace.Wrap(err)
	}
	if err := w.Close(); err != nil {
		return nil, 0, trace.Wrap(err)
	}
	return buf.Bytes(), len(plaintext), nil
}

// DecompressLargeBlob reverses CompressLargeBlob, verifying the
// decompressed length matches originalSize.
func DecompressLargeBlob(compressed []byte, originalSize int) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, int64(originalSize)+1))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if len(out) != originalSize {
		return nil, trace.BadParameter("extension: decompressed large blob size mismatch: got %d want %d", len(out), originalSize)
	}
	return out, nil
}
