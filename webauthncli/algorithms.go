package webauthncli

import (
	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/clienterr"
	"github.com/yubicore/yubicore/ctap2"
	"github.com/yubicore/yubicore/webauthntypes"
)

// filterAlgorithms intersects requested (relying-party order preserved)
// against the authenticator's advertised algorithms. An authenticator that
// advertises no algorithms at all is trusted to accept the full request.
func filterAlgorithms(requested []webauthntypes.CredentialParameter, advertised []ctap2.Algorithm) ([]webauthntypes.CredentialParameter, error) {
	if len(advertised) == 0 {
		return requested, nil
	}

	supported := make(map[int64]bool, len(advertised))
	for _, a := range advertised {
		supported[a.Alg] = true
	}

	out := make([]webauthntypes.CredentialParameter, 0, len(requested))
	for _, p := range requested {
		if supported[int64(p.Algorithm)] {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, clienterr.New(clienterr.ConfigurationUnsupported,
			trace.BadParameter("webauthncli: no requested algorithm is supported by the authenticator"))
	}
	return out, nil
}
