package webauthntypes

// CredPropsExtension is the "credProps" client extension identifier
// (WebAuthn L2 §10.2).
const CredPropsExtension = "credProps"

// CredentialPropertiesOutput is the client extension output for credProps.
type CredentialPropertiesOutput struct {
	RK bool `json:"rk"`
}

// AuthenticationExtensionsClientOutputs carries per-extension client
// outputs returned alongside a credential response. Fields are independent
// and each may be absent; a nil pointer means "not returned", distinct
// from a returned-but-zero-valued struct (spec.md §9 Open Question 2).
type AuthenticationExtensionsClientOutputs struct {
	AppID      bool                         `json:"appid,omitempty"`
	CredProps  *CredentialPropertiesOutput  `json:"credProps,omitempty"`
	HMACSecret bool                         `json:"hmacCreateSecret,omitempty"`
}
