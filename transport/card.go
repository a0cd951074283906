package transport

import (
	"context"

	"github.com/gravitational/trace"

	"github.com/yubicore/yubicore/apdu"
)

// Card drives a Connection with the APDU semantics of spec.md §4.1:
// chained GET RESPONSE on 61xx, retry-with-Le on 6Cxx, and a typed
// *apdu.Error for anything else.
type Card struct {
	conn Connection
}

// NewCard wraps a Connection.
func NewCard(conn Connection) *Card {
	return &Card{conn: conn}
}

// SupportsExtendedLength reports the underlying connection's capability.
func (c *Card) SupportsExtendedLength() bool {
	return c.conn.SupportsExtendedLength()
}

// Select issues SELECT for aid and returns the FCI bytes on success.
func (c *Card) Select(ctx context.Context, aid []byte) ([]byte, error) {
	data, sw, err := c.transmit(ctx, apdu.Select(aid))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if sw == apdu.SWFileNotFound || sw == apdu.SWApplicationNotFound {
		return nil, trace.NotFound("application not available (SW=%04X)", sw)
	}
	if sw != apdu.SWSuccess {
		return nil, apdu.NewError(sw)
	}
	return data, nil
}

// SendAndReceive encodes cmd, transmits it, follows any 61xx chaining, and
// returns the concatenated response body. A non-9000 terminal SW is
// returned as *apdu.Error.
func (c *Card) SendAndReceive(ctx context.Context, cmd apdu.Command) ([]byte, error) {
	data, sw, err := c.transmit(ctx, cmd)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if sw != apdu.SWSuccess {
		return nil, apdu.NewError(sw)
	}
	return data, nil
}

// transmit performs one logical command, including 61xx/6Cxx recovery, and
// returns the final data + terminal SW (which may be non-9000; the caller
// decides how to map it).
func (c *Card) transmit(ctx context.Context, cmd apdu.Command) ([]byte, uint16, error) {
	raw, err := apdu.Encode(cmd, c.conn.SupportsExtendedLength())
	if err != nil {
		return nil, 0, trace.Wrap(err)
	}

	respRaw, err := c.conn.Send(ctx, raw)
	if err != nil {
		return nil, 0, trace.ConnectionProblem(err, "apdu: transmit failed")
	}
	resp, err := apdu.ParseResponse(respRaw)
	if err != nil {
		return nil, 0, trace.Wrap(err)
	}

	// 6Cxx: wrong Le, retry with the corrected length.
	if hiByte(resp.SW) == 0x6C {
		retryCmd := cmd
		retryCmd.Ne = int(loByte(resp.SW))
		if retryCmd.Ne == 0 {
			retryCmd.Ne = 256
		}
		return c.transmit(ctx, retryCmd)
	}

	var body []byte
	body = append(body, resp.Data...)

	// 61xx: more data available via GET RESPONSE, chained until 9000.
	for hiByte(resp.SW) == 0x61 {
		grRaw, err := apdu.Encode(apdu.GetResponse(loByte(resp.SW)), c.conn.SupportsExtendedLength())
		if err != nil {
			return nil, 0, trace.Wrap(err)
		}
		respRaw, err := c.conn.Send(ctx, grRaw)
		if err != nil {
			return nil, 0, trace.ConnectionProblem(err, "apdu: GET RESPONSE failed")
		}
		resp, err = apdu.ParseResponse(respRaw)
		if err != nil {
			return nil, 0, trace.Wrap(err)
		}
		body = append(body, resp.Data...)
	}

	return body, resp.SW, nil
}

func hiByte(sw uint16) byte { return byte(sw >> 8) }
func loByte(sw uint16) byte { return byte(sw) }
