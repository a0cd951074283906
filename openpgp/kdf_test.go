package openpgp_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/openpgp"
)

func TestIterSaltedS2KMatchesManualIteration(t *testing.T) {
	salt := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	pin := []byte("123456")
	const count = 100_000

	got, err := openpgp.IterSaltedS2K(openpgp.HashSHA256, pin, salt, count)
	require.NoError(t, err)

	h := sha256.New()
	block := append(append([]byte(nil), salt...), pin...)
	remaining := count
	for remaining > 0 {
		n := len(block)
		if n > remaining {
			n = remaining
		}
		h.Write(block[:n])
		remaining -= n
	}
	want := h.Sum(nil)

	require.Equal(t, want, got)
	require.Len(t, got, sha256.Size)
}

func TestIterSaltedS2KRejectsUnsupportedHash(t *testing.T) {
	_, err := openpgp.IterSaltedS2K(openpgp.HashAlgorithm(99), []byte("pin"), []byte("salt"), 1000)
	require.Error(t, err)
}
