package webauthncli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractCredentialID(t *testing.T) {
	authData := make([]byte, 32+1+4)
	authData[32] = 0x40 // AT flag

	aaguid := make([]byte, 16)
	credID := []byte{1, 2, 3, 4, 5}
	authData = append(authData, aaguid...)
	authData = append(authData, byte(len(credID)>>8), byte(len(credID)))
	authData = append(authData, credID...)

	got, err := extractCredentialID(authData)
	require.NoError(t, err)
	require.Equal(t, credID, got)
}

func TestExtractCredentialIDMissingATFlag(t *testing.T) {
	authData := make([]byte, 32+1+4)
	_, err := extractCredentialID(authData)
	require.Error(t, err)
}

func TestExtractCredentialIDTruncated(t *testing.T) {
	authData := make([]byte, 32+1+4)
	authData[32] = 0x40
	_, err := extractCredentialID(authData)
	require.Error(t, err)
}
