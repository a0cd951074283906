// Package webauthntypes defines the WebAuthn wire entities exchanged
// between a relying party and this client library: relying party and user
// entities, credential descriptors and parameters, and the top-level
// CredentialCreation/CredentialAssertion request and response envelopes
// (spec.md §3, §4.4).
package webauthntypes

import "github.com/go-webauthn/webauthn/protocol"

// CredentialEntity is the common name field shared by RelyingPartyEntity
// and UserEntity.
type CredentialEntity struct {
	Name string `json:"name"`
}

// RelyingPartyEntity identifies the relying party requesting a credential.
type RelyingPartyEntity struct {
	CredentialEntity
	ID string `json:"id,omitempty"`
}

// UserEntity identifies the user a credential is bound to.
type UserEntity struct {
	CredentialEntity
	DisplayName string `json:"displayName"`
	ID          []byte `json:"id"`
}

// CredentialParameter pins one acceptable credential type/algorithm pair
// for authenticatorMakeCredential.
type CredentialParameter struct {
	Type      protocol.CredentialType                  `json:"type"`
	Algorithm protocol.COSEAlgorithmIdentifier          `json:"alg"`
}

// CredentialDescriptor identifies a credential already known to the
// relying party, used in excludeCredentials/allowCredentials lists.
type CredentialDescriptor struct {
	Type         protocol.CredentialType `json:"type"`
	CredentialID []byte                  `json:"id"`
	Transports   []protocol.AuthenticatorTransport `json:"transports,omitempty"`
}
