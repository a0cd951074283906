package extension_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/webauthncli/extension"
)

func TestBuildCreateExtensions(t *testing.T) {
	result := extension.BuildCreateExtensions(extension.MakeCredentialInputs{HMACSecret: true})
	require.Equal(t, true, result.Extensions[extension.HMACSecret])
	require.Equal(t, uint32(0), result.AddedPermissions)
}

func TestCreateClientResultsMergesKnownFields(t *testing.T) {
	authExt := map[string]any{
		extension.HMACSecret:   true,
		extension.CredProtect:  extension.CredProtectUserVerificationRequired,
		extension.MinPinLength: true,
	}
	out := extension.CreateClientResults(authExt)
	require.Equal(t, true, out["hmacCreateSecret"])
	require.Equal(t, extension.CredProtectUserVerificationRequired, out[extension.CredProtect])
	require.Equal(t, true, out[extension.MinPinLength])
}

func TestCreateClientResultsEmptyWhenNothingKnown(t *testing.T) {
	require.Nil(t, extension.CreateClientResults(nil))
	require.Nil(t, extension.CreateClientResults(map[string]any{"unrelated": 1}))
}

func TestBuildGetExtensions(t *testing.T) {
	in := extension.GetAssertionInputs{HMACSecretSalt1: []byte("salt1")}
	result := extension.BuildGetExtensions(in, []byte("enc"), []byte("auth"), []byte("cosekey"), 2)
	hmac, ok := result.Extensions[extension.HMACSecret].(map[string]any)
	require.True(t, ok)
	require.Equal(t, uint32(2), hmac[4])
}

func TestGetClientResults(t *testing.T) {
	_, ok := extension.GetClientResults(map[string]any{})
	require.False(t, ok)

	out, ok := extension.GetClientResults(map[string]any{extension.HMACSecret: []byte{1, 2, 3}})
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, out)
}
