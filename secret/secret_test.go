package secret_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/secret"
)

func TestZeroClearsBuffer(t *testing.T) {
	s := secret.New([]byte("supersecretpin"))
	require.Equal(t, "supersecretpin", string(s.Bytes()))

	s.Zero()
	require.Equal(t, 0, s.Len())

	// Zero is idempotent and nil-safe.
	s.Zero()
	var nilSecret *secret.Bytes
	nilSecret.Zero()
	require.Equal(t, 0, nilSecret.Len())
}

func TestNewCopiesInput(t *testing.T) {
	src := []byte("123456")
	s := secret.New(src)
	src[0] = 'X'
	require.Equal(t, "123456", string(s.Bytes()), "Bytes should not alias the caller's slice")
}
