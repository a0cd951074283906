// Package cose parses and builds COSE_Key structures (RFC 9052) as used by
// CTAP2 attestation and assertion public keys.
package cose

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"math/big"

	"github.com/gravitational/trace"

	yubicbor "github.com/yubicore/yubicore/cbor"
)

// Algorithm identifiers, per spec.md §3.
type Algorithm int64

const (
	AlgES256 Algorithm = -7
	AlgEdDSA Algorithm = -8
	AlgES384 Algorithm = -35
	AlgES512 Algorithm = -36
	AlgPS256 Algorithm = -37
	AlgRS256 Algorithm = -257
)

// Key type values (COSE "kty").
const (
	ktyOKP = 1
	ktyEC2 = 2
	ktyRSA = 3
)

// Curve identifiers (COSE "crv").
const (
	crvP256    = 1
	crvP384    = 2
	crvP521    = 3
	crvEd25519 = 6
)

// rawKey mirrors the integer-keyed CBOR map grounded on spec.md §3: keys
// 1 kty, 3 alg, -1 crv, -2 x/n, -3 y/e.
type rawKey struct {
	Kty int64  `cbor:"1,keyasint"`
	Alg int64  `cbor:"3,keyasint"`
	Crv int64  `cbor:"-1,keyasint,omitempty"`
	X   []byte `cbor:"-2,keyasint,omitempty"`
	Y   []byte `cbor:"-3,keyasint,omitempty"`
}

// Parse decodes a CBOR COSE key into a crypto.PublicKey-compatible value
// (*ecdsa.PublicKey, ed25519.PublicKey, or *rsa.PublicKey) plus its
// algorithm.
func Parse(data []byte) (any, Algorithm, error) {
	var rk rawKey
	if err := yubicbor.Unmarshal(data, &rk); err != nil {
		return nil, 0, trace.Wrap(err)
	}

	switch rk.Kty {
	case ktyEC2:
		curve, err := curveFor(rk.Crv)
		if err != nil {
			return nil, 0, trace.Wrap(err)
		}
		if len(rk.X) == 0 || len(rk.Y) == 0 {
			return nil, 0, trace.BadParameter("cose: EC2 key missing x/y")
		}
		pub := &ecdsa.PublicKey{
			Curve: curve,
			X:     new(big.Int).SetBytes(rk.X),
			Y:     new(big.Int).SetBytes(rk.Y),
		}
		return pub, Algorithm(rk.Alg), nil

	case ktyOKP:
		if rk.Crv != crvEd25519 {
			return nil, 0, trace.BadParameter("cose: unsupported OKP curve %d", rk.Crv)
		}
		if len(rk.X) != ed25519.PublicKeySize {
			return nil, 0, trace.BadParameter("cose: bad Ed25519 key length %d", len(rk.X))
		}
		return ed25519.PublicKey(append([]byte(nil), rk.X...)), Algorithm(rk.Alg), nil

	case ktyRSA:
		if len(rk.X) == 0 || len(rk.Y) == 0 {
			return nil, 0, trace.BadParameter("cose: RSA key missing n/e")
		}
		e := new(big.Int).SetBytes(rk.Y)
		pub := &rsa.PublicKey{
			N: new(big.Int).SetBytes(rk.X),
			E: int(e.Int64()),
		}
		return pub, Algorithm(rk.Alg), nil

	default:
		return nil, 0, trace.BadParameter("cose: unsupported kty %d", rk.Kty)
	}
}

func curveFor(crv int64) (elliptic.Curve, error) {
	switch crv {
	case crvP256:
		return elliptic.P256(), nil
	case crvP384:
		return elliptic.P384(), nil
	case crvP521:
		return elliptic.P521(), nil
	default:
		return nil, trace.BadParameter("cose: unsupported EC2 curve %d", crv)
	}
}

// EncodeEC2 builds a CBOR COSE key for an EC2 (ECDSA) public key.
func EncodeEC2(pub *ecdsa.PublicKey, alg Algorithm) ([]byte, error) {
	var crv int64
	switch pub.Curve {
	case elliptic.P256():
		crv = crvP256
	case elliptic.P384():
		crv = crvP384
	case elliptic.P521():
		crv = crvP521
	default:
		return nil, trace.BadParameter("cose: unsupported curve")
	}
	size := (pub.Curve.Params().BitSize + 7) / 8
	rk := rawKey{
		Kty: ktyEC2,
		Alg: int64(alg),
		Crv: crv,
		X:   leftPad(pub.X.Bytes(), size),
		Y:   leftPad(pub.Y.Bytes(), size),
	}
	return yubicbor.Marshal(rk)
}

// EncodeEd25519 builds a CBOR COSE key for an Ed25519 (OKP) public key.
func EncodeEd25519(pub ed25519.PublicKey) ([]byte, error) {
	rk := rawKey{Kty: ktyOKP, Alg: int64(AlgEdDSA), Crv: crvEd25519, X: append([]byte(nil), pub...)}
	return yubicbor.Marshal(rk)
}

// EncodeRSA builds a CBOR COSE key for an RSA public key.
func EncodeRSA(pub *rsa.PublicKey, alg Algorithm) ([]byte, error) {
	rk := rawKey{
		Kty: ktyRSA,
		Alg: int64(alg),
		X:   pub.N.Bytes(),
		Y:   big.NewInt(int64(pub.E)).Bytes(),
	}
	return yubicbor.Marshal(rk)
}

func leftPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}
