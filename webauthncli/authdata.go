package webauthncli

import (
	"github.com/gravitational/trace"

	yubicbor "github.com/yubicore/yubicore/cbor"
)

// authData flag bits (CTAP2 §6.1).
const (
	flagUP = 0x01 // user present
	flagAT = 0x40 // attested credential data included
	flagED = 0x80 // extensions included
)

// extractCredentialID parses the credential ID out of a CTAP2 attested
// credential data block prefixing authData: 32 bytes RPID hash, 1 byte
// flags, 4 bytes signCount, then (if the AT flag is set) 16 bytes AAGUID,
// a 2-byte credential ID length, and the credential ID itself.
func extractCredentialID(authData []byte) ([]byte, error) {
	const fixedHeader = 32 + 1 + 4
	if len(authData) < fixedHeader {
		return nil, trace.BadParameter("webauthncli: authData too short")
	}
	flags := authData[32]
	if flags&flagAT == 0 {
		return nil, trace.BadParameter("webauthncli: authData missing attested credential data")
	}
	rest := authData[fixedHeader:]
	if len(rest) < 16+2 {
		return nil, trace.BadParameter("webauthncli: authData truncated attested credential data")
	}
	idLen := int(rest[16])<<8 | int(rest[17])
	rest = rest[18:]
	if len(rest) < idLen {
		return nil, trace.BadParameter("webauthncli: authData truncated credential ID")
	}
	return rest[:idLen], nil
}

// extractExtensions parses the trailing CBOR extensions map out of
// authData, skipping past the attested credential data (RPID hash,
// flags, signCount, AAGUID, credential ID, and embedded COSE public key)
// when present. Returns a nil map, nil error when the extensions-data
// flag is not set.
func extractExtensions(authData []byte) (map[string]any, error) {
	const fixedHeader = 32 + 1 + 4
	if len(authData) < fixedHeader {
		return nil, trace.BadParameter("webauthncli: authData too short")
	}
	flags := authData[32]
	rest := authData[fixedHeader:]

	if flags&flagAT != 0 {
		if len(rest) < 16+2 {
			return nil, trace.BadParameter("webauthncli: authData truncated attested credential data")
		}
		idLen := int(rest[16])<<8 | int(rest[17])
		rest = rest[18:]
		if len(rest) < idLen {
			return nil, trace.BadParameter("webauthncli: authData truncated credential ID")
		}
		rest = rest[idLen:]

		_, remainder, err := yubicbor.DecodeOne(rest)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		rest = remainder
	}

	if flags&flagED == 0 {
		return nil, nil
	}

	item, _, err := yubicbor.DecodeOne(rest)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var ext map[string]any
	if err := yubicbor.Unmarshal(item, &ext); err != nil {
		return nil, trace.Wrap(err)
	}
	return ext, nil
}
