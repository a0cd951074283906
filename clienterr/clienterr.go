// Package clienterr defines the WebAuthn client-side error taxonomy
// webauthncli raises when a ceremony cannot proceed: malformed requests,
// PIN/UV failures, and the multi-credential disambiguation case
// (spec.md §7).
package clienterr

import "fmt"

// Code is a coarse client-error classification.
type Code string

const (
	BadRequest               Code = "BAD_REQUEST"
	ConfigurationUnsupported Code = "CONFIGURATION_UNSUPPORTED"
	DeviceIneligible         Code = "DEVICE_INELIGIBLE"
	Timeout                  Code = "TIMEOUT"
	OtherError               Code = "OTHER_ERROR"
)

// Error is the base client error: a Code plus an optional wrapped cause.
type Error struct {
	Code  Code
	Cause error
}

// New builds an Error with the given code and cause (cause may be nil).
func New(code Code, cause error) *Error {
	return &Error{Code: code, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("clienterr: %s: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("clienterr: %s", e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

// PinRequiredClientError is raised when an operation needs a PIN the
// caller did not supply.
type PinRequiredClientError struct {
	*Error
}

// NewPinRequired builds a PinRequiredClientError.
func NewPinRequired() *PinRequiredClientError {
	return &PinRequiredClientError{Error: New(BadRequest, nil)}
}

// AuthInvalidClientError is raised when a PIN or UV attempt was rejected,
// carrying the authenticator's reported retry count. Retries is 0 when
// the authenticator reports the credential as blocked.
type AuthInvalidClientError struct {
	*Error
	AuthType string
	Retries  int
}

// NewAuthInvalid builds an AuthInvalidClientError.
func NewAuthInvalid(authType string, retries int, cause error) *AuthInvalidClientError {
	return &AuthInvalidClientError{Error: New(BadRequest, cause), AuthType: authType, Retries: retries}
}

// InvalidPinException is raised by PIN set/change operations when the
// authenticator rejects a PIN, carrying its retry count.
type InvalidPinException struct {
	*Error
	Retries int
}

// NewInvalidPin builds an InvalidPinException.
func NewInvalidPin(retries int, cause error) *InvalidPinException {
	return &InvalidPinException{Error: New(BadRequest, cause), Retries: retries}
}

// CredentialChoice is one {user, credentialId} tuple surfaced for caller
// selection when an authenticator reports more than one matching
// discoverable credential.
type CredentialChoice struct {
	CredentialID    []byte
	UserID          []byte
	UserName        string
	UserDisplayName string
}

// MultipleAssertionsAvailable is raised by GetAssertion when the
// authenticator reports more than one matching discoverable credential.
// Choices lists them in authenticator-reported order (index 0 is the
// credential the authenticator already returned); resolve the ceremony
// by index with Client.SelectAssertion.
type MultipleAssertionsAvailable struct {
	*Error
	Choices []CredentialChoice
}

// NewMultipleAssertionsAvailable builds a MultipleAssertionsAvailable
// error carrying choices.
func NewMultipleAssertionsAvailable(choices []CredentialChoice) *MultipleAssertionsAvailable {
	return &MultipleAssertionsAvailable{Error: New(BadRequest, nil), Choices: choices}
}
