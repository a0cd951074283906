package openpgp

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/gravitational/trace"
)

// HashAlgorithm selects the digest used by Iterated+Salted S2K.
type HashAlgorithm int

const (
	HashSHA256 HashAlgorithm = iota
	HashSHA512
)

func (h HashAlgorithm) new() (func() hash.Hash, error) {
	switch h {
	case HashSHA256:
		return sha256.New, nil
	case HashSHA512:
		return sha512.New, nil
	default:
		return nil, trace.BadParameter("openpgp: unsupported KDF hash algorithm %d", h)
	}
}

// IterSaltedS2K derives PIN verification bytes per RFC 4880 §3.7.1.3
// (Iterated and Salted S2K), as referenced by the OpenPGP card KDF data
// object (tag F9): the hash is fed (salt || pin) repeatedly until
// countBytes total bytes have been consumed, and the final digest is the
// derived value (spec.md §8 E6).
func IterSaltedS2K(alg HashAlgorithm, pin []byte, salt []byte, countBytes int) ([]byte, error) {
	newHash, err := alg.new()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	h := newHash()

	block := append(append([]byte(nil), salt...), pin...)
	if len(block) == 0 {
		return nil, trace.BadParameter("openpgp: empty salt+pin block")
	}

	remaining := countBytes
	for remaining > 0 {
		n := len(block)
		if n > remaining {
			n = remaining
		}
		h.Write(block[:n])
		remaining -= n
	}
	return h.Sum(nil), nil
}
