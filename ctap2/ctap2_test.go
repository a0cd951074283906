package ctap2_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	yubicbor "github.com/yubicore/yubicore/cbor"
	"github.com/yubicore/yubicore/ctap2"
)

type fakeConn struct {
	resp []byte
	err  error
	sent [][]byte
}

func (f *fakeConn) Send(_ context.Context, cmd []byte) ([]byte, error) {
	f.sent = append(f.sent, append([]byte(nil), cmd...))
	return f.resp, f.err
}
func (f *fakeConn) SupportsExtendedLength() bool { return true }

func TestGetInfoCachesAfterFirstCall(t *testing.T) {
	info := ctap2.InfoData{Versions: []string{"FIDO_2_0"}, AAGUID: make([]byte, 16)}
	body, err := yubicbor.Marshal(info)
	require.NoError(t, err)

	conn := &fakeConn{resp: append([]byte{ctap2.StatusSuccess}, body...)}
	sess := ctap2.NewSession(conn)

	got1, err := sess.GetInfo(context.Background())
	require.NoError(t, err)
	require.True(t, got1.HasVersion("FIDO_2_0"))

	got2, err := sess.GetInfo(context.Background())
	require.NoError(t, err)
	require.Same(t, got1, got2)
	require.Len(t, conn.sent, 1, "second GetInfo must not round-trip")
}

func TestCallReturnsTypedErrorOnNonZeroStatus(t *testing.T) {
	conn := &fakeConn{resp: []byte{ctap2.StatusPinInvalid}}
	sess := ctap2.NewSession(conn)

	err := sess.Call(context.Background(), ctap2.CmdClientPin, nil, nil)
	require.Error(t, err)

	var ctapErr *ctap2.Error
	require.ErrorAs(t, err, &ctapErr)
	require.EqualValues(t, ctap2.StatusPinInvalid, ctapErr.Status)
}

func TestInfoOptionTriState(t *testing.T) {
	info := &ctap2.InfoData{Options: map[string]bool{"rk": true, "up": false}}

	v, present := info.Option("rk")
	require.True(t, present)
	require.True(t, v)

	v, present = info.Option("uv")
	require.False(t, present)
	require.False(t, v)
}
