package webauthntypes

import "encoding/base64"

// Credential is the minimal PublicKeyCredential shape: a base64url ID and
// its type string (always "public-key" for this library).
type Credential struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// PublicKeyCredential adds the raw credential ID and client extension
// outputs common to both attestation and assertion responses.
type PublicKeyCredential struct {
	Credential
	RawID      []byte                                  `json:"rawId"`
	Extensions *AuthenticationExtensionsClientOutputs   `json:"extensions,omitempty"`
}

// AuthenticatorResponse carries the client data JSON common to both
// response types.
type AuthenticatorResponse struct {
	ClientDataJSON []byte `json:"clientDataJSON"`
}

// AuthenticatorAttestationResponse is returned from
// authenticatorMakeCredential, encoding the CBOR attestation object.
type AuthenticatorAttestationResponse struct {
	AuthenticatorResponse
	AttestationObject []byte `json:"attestationObject"`
}

// AuthenticatorAssertionResponse is returned from authenticatorGetAssertion.
type AuthenticatorAssertionResponse struct {
	AuthenticatorResponse
	AuthenticatorData []byte `json:"authenticatorData"`
	Signature         []byte `json:"signature"`
	UserHandle        []byte `json:"userHandle,omitempty"`
}

// CredentialCreationResponse is the full response to a CredentialCreation
// request, as returned to the relying party.
type CredentialCreationResponse struct {
	PublicKeyCredential
	AttestationResponse AuthenticatorAttestationResponse `json:"response"`
}

// CredentialAssertionResponse is the full response to a CredentialAssertion
// request.
type CredentialAssertionResponse struct {
	PublicKeyCredential
	AssertionResponse AuthenticatorAssertionResponse `json:"response"`
}

// NewCredentialID base64url-encodes rawID for the Credential.ID field, per
// the WebAuthn JSON serialization rules.
func NewCredentialID(rawID []byte) string {
	return base64.RawURLEncoding.EncodeToString(rawID)
}
