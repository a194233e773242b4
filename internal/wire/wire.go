// Package wire encodes and decodes QRTR control packets: the fixed-size
// struct qrtr_ctrl_pkt exchanged with the kernel on the control port.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Cmd is the control packet's opcode (offset 0, little-endian u32).
type Cmd uint32

const (
	CmdNewServer Cmd = 2
	CmdDelServer Cmd = 3
	CmdNewLookup Cmd = 4
)

func (c Cmd) String() string {
	switch c {
	case CmdNewServer:
		return "NEW_SERVER"
	case CmdDelServer:
		return "DEL_SERVER"
	case CmdNewLookup:
		return "NEW_LOOKUP"
	default:
		return fmt.Sprintf("CMD(%d)", uint32(c))
	}
}

// PacketSize is the wire size of struct qrtr_ctrl_pkt: cmd + the
// service/instance/node/port union, all u32.
const PacketSize = 20

// CtrlPacket is the decoded form of a control packet. Service/Instance/
// Node/Port are only meaningful for NEW_SERVER and DEL_SERVER.
type CtrlPacket struct {
	Cmd      Cmd
	Service  uint32
	Instance uint32
	Node     uint32
	Port     uint32
}

// Version returns the low 8 bits of the packed Instance field.
func (p CtrlPacket) Version() uint8 { return uint8(p.Instance & 0xff) }

// InstanceID returns the high 24 bits of the packed Instance field.
func (p CtrlPacket) InstanceID() uint32 { return p.Instance >> 8 }

// EncodeNewLookup builds a NEW_LOOKUP request with a zeroed payload.
func EncodeNewLookup() []byte {
	buf := make([]byte, PacketSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(CmdNewLookup))
	return buf
}

// Decode parses a control packet out of buf. buf may be larger than
// PacketSize (the kernel datagram is fixed-size, but callers may read into
// a reusable scratch buffer); it decodes only the leading PacketSize bytes.
func Decode(buf []byte) (CtrlPacket, error) {
	if len(buf) < PacketSize {
		return CtrlPacket{}, fmt.Errorf("control packet too short: %d bytes", len(buf))
	}

	return CtrlPacket{
		Cmd:      Cmd(binary.LittleEndian.Uint32(buf[0:4])),
		Service:  binary.LittleEndian.Uint32(buf[4:8]),
		Instance: binary.LittleEndian.Uint32(buf[8:12]),
		Node:     binary.LittleEndian.Uint32(buf[12:16]),
		Port:     binary.LittleEndian.Uint32(buf[16:20]),
	}, nil
}
