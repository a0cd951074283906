package pinuv

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"math/big"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/cose"
)

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// COSEFromPublicKey re-encodes a P-256 ecdh.PublicKey as the COSE EC2 key
// structure callers embed in a "keyAgreement" field outside the ClientPin
// subcommands this package issues directly (e.g. the hmac-secret
// extension's platform public key).
func COSEFromPublicKey(pub *ecdh.PublicKey) ([]byte, error) {
	return coseFromECDHPublicKey(pub)
}

// coseFromECDHPublicKey re-encodes a P-256 ecdh.PublicKey as the COSE EC2
// key structure the authenticator expects in the "keyAgreement" field of
// ClientPin requests.
func coseFromECDHPublicKey(pub *ecdh.PublicKey) ([]byte, error) {
	raw := pub.Bytes()
	size := (elliptic.P256().Params().BitSize + 7) / 8
	if len(raw) != 1+2*size || raw[0] != 0x04 {
		return nil, trace.BadParameter("pinuv: unexpected ECDH public key encoding")
	}
	ecdsaPub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[1 : 1+size]),
		Y:     new(big.Int).SetBytes(raw[1+size : 1+2*size]),
	}
	enc, err := cose.EncodeEC2(ecdsaPub, cose.AlgES256)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return enc, nil
}
