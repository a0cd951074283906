package cbor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	yubicbor "github.com/yubicore/yubicore/cbor"
)

func TestCanonicalEncodingIsDeterministic(t *testing.T) {
	m := map[any]any{
		"zzz":        1,
		int64(2):     "two",
		int64(1):     "one",
		"aaa":        2,
		uint64(1000): "big",
	}

	a, err := yubicbor.Marshal(m)
	require.NoError(t, err)
	b, err := yubicbor.Marshal(m)
	require.NoError(t, err)
	require.Equal(t, a, b, "encoding the same map twice must be byte-identical")

	ok, err := yubicbor.IsCanonical(a)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIntegerKeysBeforeTextKeys(t *testing.T) {
	type pair struct {
		key   any
		value string
	}
	// Build a map via an intermediate struct-free path so field order
	// cannot leak; CTAP2 canonical order requires encoded int keys overall
	// to sort before encoded text keys.
	m := map[any]string{
		"a":      "text",
		int64(1): "int",
	}
	enc, err := yubicbor.Marshal(m)
	require.NoError(t, err)

	// Map header + first key encoding: unsigned int 1 encodes as 0x01,
	// which must appear before the text-string key's 0x61 'a' bytes.
	require.Contains(t, string(enc), "\x01")
	idxInt := indexOf(enc, 0x01)
	idxText := indexOf(enc, 0x61)
	require.Less(t, idxInt, idxText, "integer key must sort before text key")
}

func indexOf(b []byte, target byte) int {
	for i, c := range b {
		if c == target {
			return i
		}
	}
	return -1
}
