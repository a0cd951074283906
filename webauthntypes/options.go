package webauthntypes

import (
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/gravitational/trace"
)

// AuthenticatorSelection narrows which authenticators are acceptable for
// authenticatorMakeCredential.
type AuthenticatorSelection struct {
	AuthenticatorAttachment protocol.AuthenticatorAttachment  `json:"authenticatorAttachment,omitempty"`
	ResidentKey             protocol.ResidentKeyRequirement   `json:"residentKey,omitempty"`
	RequireResidentKey      *bool                             `json:"requireResidentKey,omitempty"`
	UserVerification        protocol.UserVerificationRequirement `json:"userVerification,omitempty"`
}

// PublicKeyCredentialCreationOptions is the relying-party-supplied
// parameters for authenticatorMakeCredential (spec.md §4.4 step 1).
type PublicKeyCredentialCreationOptions struct {
	Challenge              []byte                        `json:"challenge"`
	RelyingParty            RelyingPartyEntity            `json:"rp"`
	User                     UserEntity                   `json:"user"`
	Parameters               []CredentialParameter        `json:"pubKeyCredParams"`
	Timeout                  uint64                       `json:"timeout,omitempty"`
	ExcludeCredentials       []CredentialDescriptor        `json:"excludeCredentials,omitempty"`
	AuthenticatorSelection    AuthenticatorSelection       `json:"authenticatorSelection,omitempty"`
	Attestation               protocol.ConveyancePreference `json:"attestation,omitempty"`
	Extensions                protocol.AuthenticationExtensions `json:"extensions,omitempty"`
}

// PublicKeyCredentialRequestOptions is the relying-party-supplied
// parameters for authenticatorGetAssertion (spec.md §4.4 step 6).
type PublicKeyCredentialRequestOptions struct {
	Challenge          []byte                             `json:"challenge"`
	Timeout            uint64                             `json:"timeout,omitempty"`
	RelyingPartyID     string                             `json:"rpId,omitempty"`
	AllowedCredentials []CredentialDescriptor             `json:"allowCredentials,omitempty"`
	UserVerification   protocol.UserVerificationRequirement `json:"userVerification,omitempty"`
	Extensions         protocol.AuthenticationExtensions   `json:"extensions,omitempty"`
}

// CredentialCreation is the top-level navigator.credentials.create()
// request envelope.
type CredentialCreation struct {
	Response PublicKeyCredentialCreationOptions `json:"publicKey"`
}

// CredentialAssertion is the top-level navigator.credentials.get() request
// envelope.
type CredentialAssertion struct {
	Response PublicKeyCredentialRequestOptions `json:"publicKey"`
}

// Validate checks the required fields of a CredentialCreation request
// before it reaches the authenticator.
func (cc *CredentialCreation) Validate() error {
	if cc == nil {
		return trace.BadParameter("credential creation required")
	}
	resp := cc.Response
	if len(resp.Challenge) == 0 {
		return trace.BadParameter("challenge required")
	}
	if resp.RelyingParty.ID == "" {
		return trace.BadParameter("relying party ID required")
	}
	if resp.RelyingParty.Name == "" {
		return trace.BadParameter("relying party name required")
	}
	if resp.User.Name == "" {
		return trace.BadParameter("user name required")
	}
	if resp.User.DisplayName == "" {
		return trace.BadParameter("user display name required")
	}
	if len(resp.User.ID) == 0 {
		return trace.BadParameter("user ID required")
	}
	return nil
}

// Validate checks the required fields of a CredentialAssertion request.
func (ca *CredentialAssertion) Validate() error {
	if ca == nil {
		return trace.BadParameter("assertion required")
	}
	resp := ca.Response
	if len(resp.Challenge) == 0 {
		return trace.BadParameter("challenge required")
	}
	if resp.RelyingPartyID == "" {
		return trace.BadParameter("relying party ID required")
	}
	return nil
}

// RequireResidentKey reconciles the legacy RequireResidentKey boolean with
// the newer ResidentKey enum, rejecting contradictory combinations.
func (cc *CredentialCreation) RequireResidentKey() (bool, error) {
	sel := cc.Response.AuthenticatorSelection
	switch sel.ResidentKey {
	case protocol.ResidentKeyRequirementRequired:
		if sel.RequireResidentKey != nil && !*sel.RequireResidentKey {
			return false, trace.BadParameter("invalid combination of ResidentKey=required and RequireResidentKey=false")
		}
		return true, nil
	case protocol.ResidentKeyRequirementDiscouraged:
		if sel.RequireResidentKey != nil && *sel.RequireResidentKey {
			return false, trace.BadParameter("invalid combination of ResidentKey=discouraged and RequireResidentKey=true")
		}
		return false, nil
	case protocol.ResidentKeyRequirementPreferred, "":
		if sel.RequireResidentKey != nil {
			return *sel.RequireResidentKey, nil
		}
		return false, nil
	default:
		return false, trace.BadParameter("unknown ResidentKey requirement %q", sel.ResidentKey)
	}
}

// CredentialCreationFromProtocol adapts a go-webauthn/webauthn
// protocol.CredentialCreation (as parsed from relying-party JSON) into the
// local wire type used by webauthncli.
func CredentialCreationFromProtocol(in *protocol.CredentialCreation) *CredentialCreation {
	if in == nil {
		return &CredentialCreation{}
	}
	resp := in.Response

	params := make([]CredentialParameter, 0, len(resp.Parameters))
	for _, p := range resp.Parameters {
		params = append(params, CredentialParameter{Type: p.Type, Algorithm: p.Algorithm})
	}
	excluded := make([]CredentialDescriptor, 0, len(resp.CredentialExcludeList))
	for _, c := range resp.CredentialExcludeList {
		excluded = append(excluded, CredentialDescriptor{Type: c.Type, CredentialID: c.CredentialID, Transports: c.Transport})
	}

	return &CredentialCreation{
		Response: PublicKeyCredentialCreationOptions{
			Challenge: []byte(resp.Challenge),
			RelyingParty: RelyingPartyEntity{
				CredentialEntity: CredentialEntity{Name: resp.RelyingParty.Name},
				ID:               resp.RelyingParty.ID,
			},
			User: UserEntity{
				CredentialEntity: CredentialEntity{Name: resp.User.Name},
				DisplayName:      resp.User.DisplayName,
				ID:               resp.User.ID,
			},
			Parameters:         params,
			Timeout:            uint64(resp.Timeout),
			ExcludeCredentials: excluded,
			AuthenticatorSelection: AuthenticatorSelection{
				AuthenticatorAttachment: resp.AuthenticatorSelection.AuthenticatorAttachment,
				ResidentKey:             resp.AuthenticatorSelection.ResidentKey,
				RequireResidentKey:      resp.AuthenticatorSelection.RequireResidentKey,
				UserVerification:        resp.AuthenticatorSelection.UserVerification,
			},
			Attestation: resp.Attestation,
			Extensions:  resp.Extensions,
		},
	}
}
