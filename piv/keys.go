package piv

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/ed25519"
	"crypto/rsa"
	"math/big"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/tlv"
)

// parseGeneratedPublicKey decodes the 7F49 public key template returned by
// GENERATE ASYMMETRIC KEY PAIR (NIST SP 800-73-4 Part 2 §3.2.2 Table 6).
func parseGeneratedPublicKey(alg Algorithm, resp []byte) (crypto.PublicKey, error) {
	nodes, err := tlv.Decode(resp)
	if err != nil || len(nodes) == 0 {
		return nil, trace.BadParameter("piv: malformed key generation response")
	}
	fields, err := tlv.DecodeMap(nodes[0].Value)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	switch alg {
	case AlgorithmRSA1024, AlgorithmRSA2048:
		modulus, ok := fields[0x81]
		if !ok {
			return nil, trace.BadParameter("piv: missing RSA modulus")
		}
		exponent, ok := fields[0x82]
		if !ok {
			return nil, trace.BadParameter("piv: missing RSA exponent")
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(modulus),
			E: int(new(big.Int).SetBytes(exponent).Int64()),
		}, nil

	case AlgorithmEC256, AlgorithmEC384:
		point, ok := fields[0x86]
		if !ok {
			return nil, trace.BadParameter("piv: missing EC point")
		}
		curve := ellipticCurveFor(alg)
		x, y := ellipticUnmarshal(curve, point)
		if x == nil {
			return nil, trace.BadParameter("piv: invalid EC point encoding")
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil

	case AlgorithmEd25519:
		point, ok := fields[0x86]
		if !ok {
			return nil, trace.BadParameter("piv: missing Ed25519 point")
		}
		return ed25519.PublicKey(point), nil

	default:
		return nil, trace.BadParameter("piv: unsupported algorithm 0x%02X", byte(alg))
	}
}

func ellipticCurveFor(alg Algorithm) elliptic.Curve {
	if alg == AlgorithmEC384 {
		return elliptic.P384()
	}
	return elliptic.P256()
}

// ellipticUnmarshal parses an uncompressed EC point (0x04 || X || Y).
func ellipticUnmarshal(curve elliptic.Curve, data []byte) (x, y *big.Int) {
	size := (curve.Params().BitSize + 7) / 8
	if len(data) != 1+2*size || data[0] != 0x04 {
		return nil, nil
	}
	return new(big.Int).SetBytes(data[1 : 1+size]), new(big.Int).SetBytes(data[1+size:])
}
