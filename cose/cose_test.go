package cose_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/cose"
)

func TestEC2RoundTrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	enc, err := cose.EncodeEC2(&priv.PublicKey, cose.AlgES256)
	require.NoError(t, err)

	got, alg, err := cose.Parse(enc)
	require.NoError(t, err)
	require.Equal(t, cose.AlgES256, alg)

	pub, ok := got.(*ecdsa.PublicKey)
	require.True(t, ok)
	require.Equal(t, priv.PublicKey.X, pub.X)
	require.Equal(t, priv.PublicKey.Y, pub.Y)
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	enc, err := cose.EncodeEd25519(pub)
	require.NoError(t, err)

	got, alg, err := cose.Parse(enc)
	require.NoError(t, err)
	require.Equal(t, cose.AlgEdDSA, alg)
	require.Equal(t, pub, got.(ed25519.PublicKey))
}
