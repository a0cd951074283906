package tlv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/tlv"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	nodes := []tlv.Node{
		{Tag: 0x5C, Value: []byte{0x5F, 0xC1, 0x05}},
		{Tag: 0x53, Value: make([]byte, 200)}, // forces 0x81 length form
		{Tag: 0x7E, Value: make([]byte, 300)}, // forces 0x82 length form
	}
	encoded := tlv.Encode(nodes)

	got, err := tlv.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, nodes, got)
}

func TestDecodeMapLastWinsOnDuplicate(t *testing.T) {
	data := tlv.Encode([]tlv.Node{
		{Tag: 0x01, Value: []byte("first")},
		{Tag: 0x01, Value: []byte("second")},
	})

	m, err := tlv.DecodeMap(data)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), m[0x01])
}

func TestDecodeLongFormTag(t *testing.T) {
	// Application Related Data nested Discretionary Data tag 0x73, a
	// single-byte tag; exercise a genuine 2-byte (0x7F49-style) tag instead.
	data := tlv.Encode([]tlv.Node{{Tag: 0x7F49, Value: []byte{0x86, 0x01, 0x04}}})
	got, err := tlv.Decode(data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, uint32(0x7F49), got[0].Tag)
}

func TestDecodeRejectsTruncated(t *testing.T) {
	_, err := tlv.Decode([]byte{0x5C, 0x05, 0x01, 0x02})
	require.Error(t, err)
}
