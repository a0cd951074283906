package pinuv

import (
	"crypto/ecdh"
	"crypto/ecdsa"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/cose"
)

// ParseAuthenticatorKeyAgreementKey converts the COSE EC2 key returned by
// authenticatorClientPIN getKeyAgreement into a P-256 ecdh.PublicKey.
func ParseAuthenticatorKeyAgreementKey(coseKey []byte) (*ecdh.PublicKey, error) {
	parsed, _, err := cose.Parse(coseKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	ecdsaPub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, trace.BadParameter("pinuv: key agreement key is not EC2")
	}
	uncompressed := marshalUncompressedPoint(ecdsaPub)
	pub, err := ecdh.P256().NewPublicKey(uncompressed)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return pub, nil
}

func marshalUncompressedPoint(pub *ecdsa.PublicKey) []byte {
	size := (pub.Curve.Params().BitSize + 7) / 8
	out := make([]byte, 1+2*size)
	out[0] = 0x04
	xb, yb := pub.X.Bytes(), pub.Y.Bytes()
	copy(out[1+size-len(xb):1+size], xb)
	copy(out[1+2*size-len(yb):1+2*size], yb)
	return out
}
