package webauthncli

import (
	"context"
	"strings"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/clienterr"
	"github.com/yubicore/yubicore/originvalidate"
)

// CeremonyOrigin carries the caller-observed browsing context a ceremony
// validates the relying party ID against: the page's effective domain, the
// caller's full origin, and (optionally) a fetcher for the RP-published
// related-origins document used when the two don't match directly.
type CeremonyOrigin struct {
	EffectiveDomain string
	CallerOrigin    string
	RelatedOrigins  originvalidate.Fetcher
}

// validateRPID confirms rpID is acceptable for origin: either an exact
// match of the effective domain, a registrable suffix of it, or listed in
// the RP's published related-origins document.
func validateRPID(ctx context.Context, rpID string, origin CeremonyOrigin) error {
	if origin.EffectiveDomain == "" {
		return clienterr.New(clienterr.BadRequest, trace.BadParameter("webauthncli: effective domain required"))
	}
	if rpID == origin.EffectiveDomain {
		return nil
	}
	if strings.HasSuffix(origin.EffectiveDomain, "."+rpID) {
		return nil
	}
	if origin.RelatedOrigins != nil && origin.CallerOrigin != "" {
		if _, err := originvalidate.ValidateOrigin(ctx, origin.CallerOrigin, rpID, origin.RelatedOrigins); err == nil {
			return nil
		}
	}
	return clienterr.New(clienterr.BadRequest, trace.BadParameter(
		"webauthncli: %q is not a valid RP ID for effective domain %q", rpID, origin.EffectiveDomain))
}
