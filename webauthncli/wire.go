package webauthncli

import yubicbor "github.com/yubicore/yubicore/cbor"

type rpEntity struct {
	ID   string `cbor:"id"`
	Name string `cbor:"name,omitempty"`
}

type userEntity struct {
	ID          []byte `cbor:"id"`
	Name        string `cbor:"name,omitempty"`
	DisplayName string `cbor:"displayName,omitempty"`
}

type credParam struct {
	Type string `cbor:"type"`
	Alg  int64  `cbor:"alg"`
}

type credDescriptor struct {
	Type       string   `cbor:"type"`
	ID         []byte   `cbor:"id"`
	Transports []string `cbor:"transports,omitempty"`
}

type makeCredentialParams struct {
	ClientDataHash    []byte              `cbor:"1,keyasint"`
	RP                rpEntity            `cbor:"2,keyasint"`
	User              userEntity          `cbor:"3,keyasint"`
	PubKeyCredParams  []credParam         `cbor:"4,keyasint"`
	ExcludeList       []credDescriptor    `cbor:"5,keyasint,omitempty"`
	Extensions        map[string]any      `cbor:"6,keyasint,omitempty"`
	Options           map[string]bool     `cbor:"7,keyasint,omitempty"`
	PinUvAuthParam    []byte              `cbor:"8,keyasint,omitempty"`
	PinUvAuthProtocol uint32              `cbor:"9,keyasint,omitempty"`
}

type makeCredentialResponse struct {
	Fmt          string              `cbor:"1,keyasint"`
	AuthData     []byte              `cbor:"2,keyasint"`
	AttStmt      yubicbor.RawMessage `cbor:"3,keyasint"`
	EpAtt        bool                `cbor:"4,keyasint,omitempty"`
	LargeBlobKey []byte              `cbor:"5,keyasint,omitempty"`
}

type getAssertionParams struct {
	RPID              string           `cbor:"1,keyasint"`
	ClientDataHash    []byte           `cbor:"2,keyasint"`
	AllowList         []credDescriptor `cbor:"3,keyasint,omitempty"`
	Extensions        map[string]any   `cbor:"4,keyasint,omitempty"`
	Options           map[string]bool  `cbor:"5,keyasint,omitempty"`
	PinUvAuthParam    []byte           `cbor:"6,keyasint,omitempty"`
	PinUvAuthProtocol uint32           `cbor:"7,keyasint,omitempty"`
}

type getAssertionResponse struct {
	Credential          credDescriptor      `cbor:"1,keyasint,omitempty"`
	AuthData            []byte              `cbor:"2,keyasint"`
	Signature           []byte              `cbor:"3,keyasint"`
	User                userEntity          `cbor:"4,keyasint,omitempty"`
	NumberOfCredentials uint32              `cbor:"5,keyasint,omitempty"`
	UserSelected        bool                `cbor:"6,keyasint,omitempty"`
	LargeBlobKey        []byte              `cbor:"7,keyasint,omitempty"`
}
