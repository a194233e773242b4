package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeNewLookup(t *testing.T) {
	buf := EncodeNewLookup()
	require.Len(t, buf, PacketSize)

	pkt, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, CmdNewLookup, pkt.Cmd)
	assert.Zero(t, pkt.Service)
	assert.Zero(t, pkt.Node)
	assert.Zero(t, pkt.Port)
}

func TestDecodeNewServer(t *testing.T) {
	buf := make([]byte, PacketSize)
	putLE(buf[0:4], uint32(CmdNewServer))
	putLE(buf[4:8], 7)        // service
	putLE(buf[8:12], 257)     // instance: version=1, instance-id=1
	putLE(buf[12:16], 3)      // node
	putLE(buf[16:20], 99)     // port

	pkt, err := Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, CmdNewServer, pkt.Cmd)
	assert.Equal(t, uint32(7), pkt.Service)
	assert.Equal(t, uint32(3), pkt.Node)
	assert.Equal(t, uint32(99), pkt.Port)
	assert.Equal(t, uint8(1), pkt.Version())
	assert.Equal(t, uint32(1), pkt.InstanceID())
}

func TestDecodeShortPacketErrors(t *testing.T) {
	_, err := Decode(make([]byte, PacketSize-1))
	assert.Error(t, err)
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	buf := make([]byte, PacketSize+12)
	putLE(buf[0:4], uint32(CmdDelServer))

	pkt, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, CmdDelServer, pkt.Cmd)
}

func TestCmdString(t *testing.T) {
	assert.Equal(t, "NEW_SERVER", CmdNewServer.String())
	assert.Equal(t, "DEL_SERVER", CmdDelServer.String())
	assert.Equal(t, "NEW_LOOKUP", CmdNewLookup.String())
	assert.Equal(t, "CMD(99)", Cmd(99).String())
}

func putLE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
