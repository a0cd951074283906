package extension_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/webauthncli/extension"
)

func TestMakeCredentialInputsToMap(t *testing.T) {
	require.Nil(t, extension.MakeCredentialInputs{}.ToMap())

	m := extension.MakeCredentialInputs{HMACSecret: true, CredProtect: extension.CredProtectUserVerificationRequired}.ToMap()
	require.Equal(t, true, m[extension.HMACSecret])
	require.Equal(t, extension.CredProtectUserVerificationRequired, m[extension.CredProtect])
	require.NotContains(t, m, extension.CredBlob)
}

func TestLargeBlobRoundTrip(t *testing.T) {
	plaintext := []byte("a large blob payload, repeated repeated repeated repeated")

	compressed, size, err := extension.CompressLargeBlob(plaintext)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(plaintext)+64)

	got, err := extension.DecompressLargeBlob(compressed, size)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestLargeBlobSizeMismatchRejected(t *testing.T) {
	compressed, _, err := extension.CompressLargeBlob([]byte("hello"))
	require.NoError(t, err)

	_, err = extension.DecompressLargeBlob(compressed, 999)
	require.Error(t, err)
}
