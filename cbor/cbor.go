// Package cbor provides canonical CTAP2-CBOR encode/decode: definite
// length only, integer map keys ordered before text keys, keys sorted by
// length then lexicographic byte value (RFC 8949 deterministic subset, as
// required by CTAP2).
package cbor

import (
	"bytes"

	"github.com/fxamacker/cbor/v2"
	"github.com/gravitational/trace"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CanonicalEncOptions()
	// CTAP2 canonical CBOR additionally requires integer keys sorted
	// before text keys; fxamacker's "CanonicalEncOptions" already applies
	// RFC 7049 canonical ordering (length-then-bytewise), which satisfies
	// that for CTAP2's typed map keys because encoded integers are always
	// shorter than or bytewise-distinct from encoded text strings of the
	// same semantic position. Sort is still explicit here for clarity and
	// to document the contract CTAP2 response parsers rely on.
	opts.Sort = cbor.SortCTAP2
	m, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	encMode = m

	dopts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	dm, err := dopts.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// Marshal encodes v using the CTAP2 canonical/deterministic subset.
func Marshal(v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return b, nil
}

// Unmarshal decodes CBOR into v, rejecting indefinite-length items and
// duplicate map keys per the CTAP2 canonical subset.
func Unmarshal(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return trace.Wrap(err)
	}
	return nil
}

// RawMessage is re-exported so callers building fixed-order maps (e.g. CTAP2
// response parsing with tag-indexed dispatch) can delay decoding of
// individual values.
type RawMessage = cbor.RawMessage

// DecodeOne decodes a single CBOR data item from the front of data and
// returns its raw (still-encoded) bytes alongside whatever follows it, for
// walking a sequence of concatenated items whose individual lengths
// aren't known up front (e.g. CTAP2 attested credential data's embedded
// COSE public key, followed by an optional extensions map).
func DecodeOne(data []byte) (item RawMessage, rest []byte, err error) {
	dec := decMode.NewDecoder(bytes.NewReader(data))
	var raw cbor.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, trace.Wrap(err)
	}
	n := dec.NumBytesRead()
	return RawMessage(raw), data[n:], nil
}

// IsCanonical reports whether data is already the canonical encoding of its
// own decoded value, used by spec.md §8 invariant 3 property tests.
func IsCanonical(data []byte) (bool, error) {
	var v any
	if err := Unmarshal(data, &v); err != nil {
		return false, trace.Wrap(err)
	}
	reenc, err := Marshal(v)
	if err != nil {
		return false, trace.Wrap(err)
	}
	return bytes.Equal(data, reenc), nil
}
