package clienterr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/clienterr"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := clienterr.New(clienterr.BadRequest, cause)
	require.ErrorIs(t, err, cause)
}

func TestAuthInvalidClientErrorFields(t *testing.T) {
	err := clienterr.NewAuthInvalid("PIN", 0, nil)
	require.Equal(t, clienterr.BadRequest, err.Code)
	require.Equal(t, "PIN", err.AuthType)
	require.Equal(t, 0, err.Retries)
}

func TestMultipleAssertionsAvailableCarriesChoices(t *testing.T) {
	choices := []clienterr.CredentialChoice{
		{CredentialID: []byte{1}, UserID: []byte{0xA}},
		{CredentialID: []byte{2}, UserID: []byte{0xB}},
		{CredentialID: []byte{3}, UserID: []byte{0xC}},
	}
	err := clienterr.NewMultipleAssertionsAvailable(choices)
	require.Len(t, err.Choices, 3)
	require.Equal(t, []byte{2}, err.Choices[1].CredentialID)
}

func TestPinRequiredClientErrorIsBadRequest(t *testing.T) {
	err := clienterr.NewPinRequired()
	require.Equal(t, clienterr.BadRequest, err.Code)
}
