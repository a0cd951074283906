package webauthncli

import (
	"context"
	"errors"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/clienterr"
	"github.com/yubicore/yubicore/ctap2"
)

// probeExcludeList dry-runs excludeCredentials in batches no larger than
// maxCount (the authenticator's advertised maxCredentialCountInList),
// using options.up=false so nothing is actually created or touched. A
// CTAP2_ERR_CREDENTIAL_EXCLUDED response on any batch means one of its
// entries is already registered; any other error is tolerated; the real
// authenticatorMakeCredential call that follows enforces exclusion again.
func (c *Client) probeExcludeList(ctx context.Context, rpID string, clientDataHash []byte, excludeList []credDescriptor, maxCount uint32) error {
	if len(excludeList) == 0 {
		return nil
	}

	chunkSize := len(excludeList)
	if maxCount > 0 && int(maxCount) < chunkSize {
		chunkSize = int(maxCount)
	}

	for start := 0; start < len(excludeList); start += chunkSize {
		end := start + chunkSize
		if end > len(excludeList) {
			end = len(excludeList)
		}

		params := makeCredentialParams{
			ClientDataHash:   clientDataHash,
			RP:               rpEntity{ID: rpID},
			User:             userEntity{ID: []byte{0x00}, Name: "probe"},
			PubKeyCredParams: []credParam{{Type: "public-key", Alg: -7}},
			ExcludeList:      excludeList[start:end],
			Options:          map[string]bool{"up": false},
		}

		var resp makeCredentialResponse
		err := c.sess.Call(ctx, ctap2.CmdMakeCredential, params, &resp)
		if err == nil {
			continue
		}

		var ctapErr *ctap2.Error
		if errors.As(err, &ctapErr) && ctapErr.Status == ctap2.StatusCredentialExcluded {
			return clienterr.New(clienterr.BadRequest, trace.Wrap(err, "credentialExcluded"))
		}
	}
	return nil
}
