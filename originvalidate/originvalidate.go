// Package originvalidate implements the FIDO AppID/Android provider origin
// check (spec.md §4.8): a caller-claimed origin is validated against the
// set an RP publishes at its well-known WebAuthn endpoint.
package originvalidate

import (
	"context"
	"encoding/json"

	"github.com/gravitational/trace"
)

// Fetcher retrieves the contents of https://{rpID}/.well-known/webauthn.
// Implementations perform the actual network call; ValidateOrigin only
// parses the result.
type Fetcher func(ctx context.Context, rpID string) ([]byte, error)

type wellKnownResponse struct {
	Origins []string `json:"origins"`
}

// ValidateOrigin fetches the rpID's published origin list via fetch and
// confirms callerOrigin appears in it. On success it returns the fixed-form
// "https://{rpID}" string. Any fetcher error propagates unchanged; a
// missing or empty origins list, or an absent callerOrigin, fails with a
// BadParameter error.
func ValidateOrigin(ctx context.Context, callerOrigin, rpID string, fetch Fetcher) (string, error) {
	body, err := fetch(ctx, rpID)
	if err != nil {
		return "", err
	}

	var resp wellKnownResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", trace.Wrap(err)
	}
	if resp.Origins == nil {
		return "", trace.BadParameter("originvalidate: no origins published for %q", rpID)
	}

	found := false
	for _, o := range resp.Origins {
		if o == callerOrigin {
			found = true
			break
		}
	}
	if !found {
		return "", trace.BadParameter("originvalidate: origin %q not in %q's published origin list", callerOrigin, rpID)
	}

	return "https://" + rpID, nil
}
