package webauthncli

import (
	"context"
	"errors"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/clienterr"
	"github.com/yubicore/yubicore/ctap2"
	"github.com/yubicore/yubicore/pinuv"
)

// classifyPINError maps a failed PIN/UV token acquisition onto the
// clienterr taxonomy, querying the remaining retry count when the
// authenticator reports the PIN itself as invalid (as opposed to blocked
// outright, where retries is always 0).
func classifyPINError(ctx context.Context, caller *pinuv.Caller, authType string, err error) error {
	var ctapErr *ctap2.Error
	if !errors.As(err, &ctapErr) {
		return trace.Wrap(err)
	}
	switch ctapErr.Status {
	case ctap2.StatusPinBlocked, ctap2.StatusPinAuthBlocked:
		return clienterr.NewAuthInvalid(authType, 0, err)
	case ctap2.StatusPinInvalid, ctap2.StatusPinAuthInvalid:
		retries, rerr := caller.GetPinRetries(ctx)
		if rerr != nil {
			retries = -1
		}
		return clienterr.NewAuthInvalid(authType, retries, err)
	case ctap2.StatusPinRequired, ctap2.StatusPinNotSet:
		return clienterr.NewPinRequired()
	default:
		return clienterr.New(clienterr.OtherError, err)
	}
}

// classifyCeremonyError maps a failed authenticatorMakeCredential /
// authenticatorGetAssertion call onto the clienterr taxonomy.
func classifyCeremonyError(err error) error {
	if err == nil {
		return nil
	}
	var ctapErr *ctap2.Error
	if !errors.As(err, &ctapErr) {
		return trace.Wrap(err)
	}
	switch ctapErr.Status {
	case ctap2.StatusCredentialExcluded:
		return clienterr.New(clienterr.BadRequest, trace.Wrap(err, "credentialExcluded"))
	case ctap2.StatusUserActionTimeout, ctap2.StatusActionTimeout:
		return clienterr.New(clienterr.Timeout, err)
	case ctap2.StatusNoCredentials:
		return clienterr.New(clienterr.DeviceIneligible, err)
	case ctap2.StatusOperationDenied, ctap2.StatusNotAllowed, ctap2.StatusUpRequired, ctap2.StatusUvBlocked:
		return clienterr.New(clienterr.DeviceIneligible, err)
	case ctap2.StatusUnsupportedAlgorithm, ctap2.StatusInvalidOption:
		return clienterr.New(clienterr.ConfigurationUnsupported, err)
	case ctap2.StatusPinRequired, ctap2.StatusPinNotSet:
		return clienterr.NewPinRequired()
	default:
		return clienterr.New(clienterr.OtherError, err)
	}
}
