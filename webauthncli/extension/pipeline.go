package extension

// CreateResult is the result of BuildCreateExtensions: the CTAP2
// extensions map to place in an authenticatorMakeCredential request, and
// any additional pinUvAuthToken permission bits it requires.
type CreateResult struct {
	Extensions       map[string]any
	AddedPermissions uint32
}

// BuildCreateExtensions renders the caller's requested extension inputs
// into an authenticatorMakeCredential extensions map. None of the
// extensions registered here need permission bits beyond mc, so
// AddedPermissions is always 0 today; the field exists so a future
// extension (bioEnrollment, largeBlobWrite) can add bits without
// changing call sites.
func BuildCreateExtensions(in MakeCredentialInputs) CreateResult {
	return CreateResult{Extensions: in.ToMap()}
}

// CreateClientResults recovers the WebAuthn ClientExtensionResults this
// package knows about from a MakeCredential response's decoded authData
// extensions map. Returns nil if none of them are present.
func CreateClientResults(authDataExtensions map[string]any) map[string]any {
	if len(authDataExtensions) == 0 {
		return nil
	}
	out := map[string]any{}
	if v, ok := authDataExtensions[HMACSecret].(bool); ok {
		out["hmacCreateSecret"] = v
	}
	if v, ok := authDataExtensions[CredProtect]; ok {
		out[CredProtect] = v
	}
	if v, ok := authDataExtensions[MinPinLength].(bool); ok {
		out[MinPinLength] = v
	}
	if v, ok := authDataExtensions[CredBlob].(bool); ok {
		out[CredBlob] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// GetResult mirrors CreateResult for authenticatorGetAssertion.
type GetResult struct {
	Extensions       map[string]any
	AddedPermissions uint32
}

// BuildGetExtensions renders the caller's requested hmac-secret inputs,
// already encrypted with the negotiated PIN/UV shared secret, into an
// authenticatorGetAssertion extensions map.
func BuildGetExtensions(in GetAssertionInputs, saltEnc, saltAuth, platformCOSEKey []byte, pinUvAuthProtocol uint32) GetResult {
	return GetResult{Extensions: in.ToMap(saltEnc, saltAuth, platformCOSEKey, pinUvAuthProtocol)}
}

// GetClientResults recovers the raw hmac-secret output ciphertext from a
// GetAssertion response's decoded authData extensions map. The ciphertext
// is opaque to this package; the caller decrypts it with the same
// PIN/UV shared secret used to encrypt the request salts.
func GetClientResults(authDataExtensions map[string]any) (hmacSecretOutputEnc []byte, ok bool) {
	v, ok := authDataExtensions[HMACSecret]
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}
