package main

import (
	"context"

	yubicbor "github.com/yubicore/yubicore/cbor"
	"github.com/yubicore/yubicore/ctap2"
)

// loopbackConnection answers authenticatorGetInfo with a canned InfoData
// and everything else with StatusInvalidCommand, for smoke-testing the CLI
// without a physical authenticator attached.
type loopbackConnection struct{}

func newLoopbackConnection() *loopbackConnection {
	return &loopbackConnection{}
}

func (c *loopbackConnection) SupportsExtendedLength() bool { return true }

func (c *loopbackConnection) Send(_ context.Context, cmd []byte) ([]byte, error) {
	if len(cmd) == 0 {
		return []byte{ctap2.StatusInvalidCommand}, nil
	}
	if cmd[0] != ctap2.CmdGetInfo {
		return []byte{ctap2.StatusInvalidCommand}, nil
	}

	info := ctap2.InfoData{
		Versions:           []string{"FIDO_2_1"},
		AAGUID:             make([]byte, 16),
		Options:            map[string]bool{"rk": true, "up": true, "plat": false},
		PinUvAuthProtocols: []uint32{2, 1},
	}
	body, err := yubicbor.Marshal(info)
	if err != nil {
		return nil, err
	}
	return append([]byte{ctap2.StatusSuccess}, body...), nil
}
