package pinuv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/pinuv"
	"github.com/yubicore/yubicore/secret"
)

func TestNegotiatePrefersHostOrder(t *testing.T) {
	v, err := pinuv.Negotiate([]pinuv.Version{pinuv.Version2, pinuv.Version1}, []uint32{1, 2})
	require.NoError(t, err)
	require.Equal(t, pinuv.Version2, v)
}

func TestNegotiateNoCommonVersion(t *testing.T) {
	_, err := pinuv.Negotiate([]pinuv.Version{pinuv.Version2}, []uint32{1})
	require.Error(t, err)
}

func bothSidesSharedSecret(t *testing.T, proto pinuv.Protocol) (platform, authenticator *secret.Bytes) {
	t.Helper()

	platformPriv, err := proto.KeyAgreement()
	require.NoError(t, err)
	authPriv, err := proto.KeyAgreement()
	require.NoError(t, err)

	platformShared, err := proto.SharedSecret(platformPriv, authPriv.PublicKey())
	require.NoError(t, err)
	authShared, err := proto.SharedSecret(authPriv, platformPriv.PublicKey())
	require.NoError(t, err)
	return platformShared, authShared
}

func TestProtocol1SharedSecretMatchesBothSides(t *testing.T) {
	proto, err := pinuv.For(pinuv.Version1)
	require.NoError(t, err)

	a, b := bothSidesSharedSecret(t, proto)
	require.Equal(t, a.Bytes(), b.Bytes())
	require.Len(t, a.Bytes(), 32)
}

func TestProtocol2SharedSecretMatchesBothSides(t *testing.T) {
	proto, err := pinuv.For(pinuv.Version2)
	require.NoError(t, err)

	a, b := bothSidesSharedSecret(t, proto)
	require.Equal(t, a.Bytes(), b.Bytes())
	require.Len(t, a.Bytes(), 64)
}

func TestProtocol1AuthenticateDeterministicAndTruncated(t *testing.T) {
	proto, err := pinuv.For(pinuv.Version1)
	require.NoError(t, err)
	a, _ := bothSidesSharedSecret(t, proto)

	mac1 := proto.Authenticate(a, []byte("hello world"))
	mac2 := proto.Authenticate(a, []byte("hello world"))
	require.Equal(t, mac1, mac2)
	require.Len(t, mac1, 16)

	mac3 := proto.Authenticate(a, []byte("different message"))
	require.NotEqual(t, mac1, mac3)
}

func TestProtocol2AuthenticateDeterministicAndFullLength(t *testing.T) {
	proto, err := pinuv.For(pinuv.Version2)
	require.NoError(t, err)
	a, _ := bothSidesSharedSecret(t, proto)

	mac1 := proto.Authenticate(a, []byte("hello world"))
	mac2 := proto.Authenticate(a, []byte("hello world"))
	require.Equal(t, mac1, mac2)
	require.Len(t, mac1, 32)
}

func TestProtocol1EncryptDecryptRoundTrip(t *testing.T) {
	proto, err := pinuv.For(pinuv.Version1)
	require.NoError(t, err)
	a, _ := bothSidesSharedSecret(t, proto)

	plaintext := make([]byte, 32)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}

	ciphertext, err := proto.Encrypt(a, plaintext)
	require.NoError(t, err)
	require.Len(t, ciphertext, len(plaintext), "protocol 1 ciphertext carries no IV prefix")

	decrypted, err := proto.Decrypt(a, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestProtocol2EncryptDecryptRoundTrip(t *testing.T) {
	proto, err := pinuv.For(pinuv.Version2)
	require.NoError(t, err)
	a, _ := bothSidesSharedSecret(t, proto)

	plaintext := make([]byte, 32)
	for i := range plaintext {
		plaintext[i] = byte(64 + i)
	}

	ciphertext, err := proto.Encrypt(a, plaintext)
	require.NoError(t, err)
	require.Len(t, ciphertext, 16+len(plaintext), "protocol 2 ciphertext is IV || body")

	decrypted, err := proto.Decrypt(a, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)

	ciphertext2, err := proto.Encrypt(a, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, ciphertext, ciphertext2, "protocol 2 uses a random IV each call")
}
