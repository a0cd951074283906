package originvalidate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/originvalidate"
)

func fetcherReturning(body string, err error) originvalidate.Fetcher {
	return func(_ context.Context, _ string) ([]byte, error) {
		return []byte(body), err
	}
}

func TestValidateOriginFound(t *testing.T) {
	fetch := fetcherReturning(`{"origins":["https://example.com","https://other.com"]}`, nil)
	got, err := originvalidate.ValidateOrigin(context.Background(), "https://example.com", "example.com", fetch)
	require.NoError(t, err)
	require.Equal(t, "https://example.com", got)
}

func TestValidateOriginNotFound(t *testing.T) {
	fetch := fetcherReturning(`{"origins":["https://example.com"]}`, nil)
	_, err := originvalidate.ValidateOrigin(context.Background(), "https://notfound.com", "example.com", fetch)
	require.Error(t, err)
}

func TestValidateOriginNullOrigins(t *testing.T) {
	fetch := fetcherReturning(`{"origins":null}`, nil)
	_, err := originvalidate.ValidateOrigin(context.Background(), "https://example.com", "example.com", fetch)
	require.Error(t, err)
}

func TestValidateOriginFetchErrorPropagates(t *testing.T) {
	sentinel := errors.New("network down")
	fetch := fetcherReturning("", sentinel)
	_, err := originvalidate.ValidateOrigin(context.Background(), "https://example.com", "example.com", fetch)
	require.ErrorIs(t, err, sentinel)
}
