package piv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/tlv"
)

func TestRetiredKeyManagementSlot(t *testing.T) {
	slot, err := RetiredKeyManagementSlot(1)
	require.NoError(t, err)
	require.Equal(t, Slot(0x82), slot)

	slot, err = RetiredKeyManagementSlot(20)
	require.NoError(t, err)
	require.Equal(t, Slot(0x95), slot)

	_, err = RetiredKeyManagementSlot(21)
	require.Error(t, err)
}

func TestSlotString(t *testing.T) {
	require.Equal(t, "9a", SlotAuthentication.String())
	require.Equal(t, "9c", SlotSignature.String())
}

func TestPadPIN(t *testing.T) {
	got := padPIN("1234")
	require.Len(t, got, 8)
	require.Equal(t, []byte{'1', '2', '3', '4', 0xFF, 0xFF, 0xFF, 0xFF}, got)
}

func TestObjectTagForSlots(t *testing.T) {
	tag, err := objectTagFor(SlotAuthentication)
	require.NoError(t, err)
	require.EqualValues(t, 0x5FC105, tag)

	retired, err := RetiredKeyManagementSlot(1)
	require.NoError(t, err)
	tag, err = objectTagFor(retired)
	require.NoError(t, err)
	require.EqualValues(t, 0x5FC10D, tag)
}

func TestParseGeneratedPublicKeyRSA(t *testing.T) {
	modulus := make([]byte, 256)
	modulus[0] = 0xC0
	modulus[len(modulus)-1] = 0xFF
	exponent := []byte{0x01, 0x00, 0x01}

	resp := tlv.Encode([]tlv.Node{
		{Tag: 0x7F49, Value: tlv.Encode([]tlv.Node{
			{Tag: 0x81, Value: modulus},
			{Tag: 0x82, Value: exponent},
		})},
	})

	pub, err := parseGeneratedPublicKey(AlgorithmRSA2048, resp)
	require.NoError(t, err)
	rsaPub, ok := pub.(interface{ Size() int })
	require.True(t, ok)
	require.Equal(t, 256, rsaPub.Size())
}
