// Package webauthncli drives a single CTAP2 (or CTAP1/U2F fallback)
// authenticator through the makeCredential/getAssertion flows described in
// spec.md §4.4: PIN/UV negotiation, extension processing, and credential
// selection are composed here on top of ctap2.Session and pinuv.Caller.
package webauthncli

// TouchAcknowledger is returned by LoginPrompt.PromptTouch; invoking it
// signals that the physical touch prompt has been satisfied (or dismisses
// it, depending on the prompt implementation).
type TouchAcknowledger func() error

// CredentialInfo describes one discoverable credential an authenticator
// holds, in the form LoginPrompt.PromptCredential receives. Client never
// calls PromptCredential: when more than one candidate matches an
// assertion request, GetAssertion returns clienterr.MultipleAssertionsAvailable
// and the caller picks one with Client.SelectAssertion.
type CredentialInfo struct {
	ID         []byte
	RPID       string
	User       CredentialUserInfo
}

// CredentialUserInfo is the subset of a WebAuthn user entity attached to a
// discoverable credential.
type CredentialUserInfo struct {
	UserHandle []byte
	Name       string
	DisplayName string
}

// LoginPrompt supplies the human-interactive steps of a WebAuthn
// ceremony: PIN entry, touch acknowledgement, and credential disambiguation.
// Client calls PromptPIN and PromptTouch; it does not call PromptCredential
// (see CredentialInfo).
type LoginPrompt interface {
	PromptPIN() (string, error)
	PromptTouch() (TouchAcknowledger, error)
	PromptCredential(creds []*CredentialInfo) (*CredentialInfo, error)
}
