package transport_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yubicore/yubicore/apdu"
	"github.com/yubicore/yubicore/transport"
)

// chunkedConn answers one command with a body split into 61xx-terminated
// chunks, exercising spec.md §8 invariant 2 (chaining).
type chunkedConn struct {
	chunks   [][]byte
	requests [][]byte
}

func (c *chunkedConn) Send(_ context.Context, cmd []byte) ([]byte, error) {
	c.requests = append(c.requests, append([]byte(nil), cmd...))

	idx := len(c.requests) - 1
	if idx >= len(c.chunks) {
		return nil, errors.New("unexpected extra request")
	}
	chunk := c.chunks[idx]
	isLast := idx == len(c.chunks)-1
	if isLast {
		return append(append([]byte(nil), chunk...), 0x90, 0x00), nil
	}
	return append(append([]byte(nil), chunk...), 0x61, byte(len(c.chunks[idx+1]))), nil
}

func (c *chunkedConn) SupportsExtendedLength() bool { return false }

func TestCardSendAndReceiveChaining(t *testing.T) {
	conn := &chunkedConn{chunks: [][]byte{{1, 2, 3}, {4, 5}, {6}}}
	card := transport.NewCard(conn)

	got, err := card.SendAndReceive(context.Background(), apdu.Command{CLA: 0, INS: 0xCA, P1: 0, P2: 0, Ne: 256})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, got)
	require.Len(t, conn.requests, 3, "initial command + 2 GET RESPONSE calls")
}

// wrongLeConn rejects the first Le, then succeeds once corrected (6Cxx).
type wrongLeConn struct {
	calls int
}

func (c *wrongLeConn) Send(_ context.Context, cmd []byte) ([]byte, error) {
	c.calls++
	if c.calls == 1 {
		return []byte{0x6C, 0x10}, nil
	}
	return []byte{1, 2, 3, 4, 0x90, 0x00}, nil
}

func (c *wrongLeConn) SupportsExtendedLength() bool { return false }

func TestCardRetriesOnWrongLe(t *testing.T) {
	conn := &wrongLeConn{}
	card := transport.NewCard(conn)

	got, err := card.SendAndReceive(context.Background(), apdu.Command{INS: 0xB0, Ne: 1})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, got)
	require.Equal(t, 2, conn.calls)
}

type errorConn struct{ sw uint16 }

func (c *errorConn) Send(_ context.Context, cmd []byte) ([]byte, error) {
	return []byte{byte(c.sw >> 8), byte(c.sw)}, nil
}
func (c *errorConn) SupportsExtendedLength() bool { return false }

func TestCardSelectNotFound(t *testing.T) {
	card := transport.NewCard(&errorConn{sw: apdu.SWFileNotFound})
	_, err := card.Select(context.Background(), []byte{0xA0, 0x00, 0x00, 0x03, 0x08})
	require.Error(t, err)
}

func TestCardSendAndReceiveError(t *testing.T) {
	card := transport.NewCard(&errorConn{sw: apdu.SWSecurityStatusNotSat})
	_, err := card.SendAndReceive(context.Background(), apdu.Command{INS: 0x88, Ne: apdu.NeAbsent})
	require.Error(t, err)
	var apduErr *apdu.Error
	require.ErrorAs(t, err, &apduErr)
	require.Equal(t, uint16(apdu.SWSecurityStatusNotSat), apduErr.SW)
}
