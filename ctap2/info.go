package ctap2

// InfoData is the cached response to authenticatorGetInfo (spec.md §4.2).
// Field tags mirror the integer-keyed CBOR response map (CTAP2 §6.4); it
// is fetched once per session and is read-only thereafter (spec.md §5).
type InfoData struct {
	Versions                     []string       `cbor:"1,keyasint"`
	Extensions                   []string       `cbor:"2,keyasint,omitempty"`
	AAGUID                       []byte         `cbor:"3,keyasint"`
	Options                      map[string]bool `cbor:"4,keyasint,omitempty"`
	MaxMsgSize                   uint32         `cbor:"5,keyasint,omitempty"`
	PinUvAuthProtocols           []uint32       `cbor:"6,keyasint,omitempty"`
	MaxCredentialCountInList     uint32         `cbor:"7,keyasint,omitempty"`
	MaxCredentialIDLength        uint32         `cbor:"8,keyasint,omitempty"`
	Transports                   []string       `cbor:"9,keyasint,omitempty"`
	Algorithms                   []Algorithm    `cbor:"10,keyasint,omitempty"`
	MaxSerializedLargeBlobArray  uint32         `cbor:"11,keyasint,omitempty"`
	ForcePINChange               bool           `cbor:"12,keyasint,omitempty"`
	MinPINLength                 uint32         `cbor:"13,keyasint,omitempty"`
	FirmwareVersion               uint32         `cbor:"14,keyasint,omitempty"`
	MaxCredBlobLength             uint32         `cbor:"15,keyasint,omitempty"`
	MaxRPIDsForSetMinPINLength    uint32         `cbor:"16,keyasint,omitempty"`
	PreferredPlatformUvAttempts   uint32         `cbor:"17,keyasint,omitempty"`
	UvModality                    uint32         `cbor:"18,keyasint,omitempty"`
	Certifications                map[string]int `cbor:"19,keyasint,omitempty"`
	RemainingDiscoverableCredentials uint32      `cbor:"20,keyasint,omitempty"`
}

// Algorithm pairs a COSE algorithm identifier with the credential type
// string, as returned in InfoData.Algorithms entries.
type Algorithm struct {
	Type string `cbor:"type"`
	Alg  int64  `cbor:"alg"`
}

// Option reports the tri-state value of a named option: present-and-true,
// present-and-false, or absent (unsupported). spec.md §4.2 lists rk, up,
// uv, clientPin, plat, pinUvAuthToken, authnrCfg, largeBlobs, among others.
func (i *InfoData) Option(name string) (value bool, present bool) {
	if i == nil || i.Options == nil {
		return false, false
	}
	v, ok := i.Options[name]
	return v, ok
}

// SupportsPinUvAuthProtocol reports whether the authenticator advertises
// protocol version v (1 or 2) in PinUvAuthProtocols.
func (i *InfoData) SupportsPinUvAuthProtocol(v uint32) bool {
	for _, p := range i.PinUvAuthProtocols {
		if p == v {
			return true
		}
	}
	return false
}

// HasVersion reports whether the authenticator advertises a version
// string, e.g. "FIDO_2_0", "FIDO_2_1", "U2F_V2".
func (i *InfoData) HasVersion(v string) bool {
	for _, s := range i.Versions {
		if s == v {
			return true
		}
	}
	return false
}
