//go:build linux

// Package sockio wraps the raw AF_QIPCRTR socket syscalls. QRTR is
// Qualcomm-specific and not modeled by net.Conn (no DNS resolution, no
// net.Addr, and a sockaddr layout the standard library and
// golang.org/x/sys/unix do not register a Sockaddr implementation for), so
// this talks to the kernel through raw syscalls rather than through the
// net package or unix.Bind/unix.Sendto/unix.Recvfrom.
package sockio

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// afQIPCRTR is the AF_QIPCRTR address family. golang.org/x/sys/unix does
// define the constant (0x2a), but not every libc header does; 42 is
// hardcoded here as the portability shim the kernel ABI guarantees.
const afQIPCRTR = 42

// CtrlPort is the kernel's well-known control port, QRTR_PORT_CTRL.
const CtrlPort = 0xFFFFFFFE

// sockaddrQrtrSize matches sizeof(struct sockaddr_qrtr) on Linux: a
// 2-byte sa_family_t, 2 bytes of compiler padding, then two u32 fields.
const sockaddrQrtrSize = 12

// encodeSockaddr lays out struct sockaddr_qrtr byte-for-byte instead of
// casting a Go struct over the wire, so host struct-packing assumptions
// never leak into the syscall.
func encodeSockaddr(node, port uint32) [sockaddrQrtrSize]byte {
	var buf [sockaddrQrtrSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], afQIPCRTR)
	binary.LittleEndian.PutUint32(buf[4:8], node)
	binary.LittleEndian.PutUint32(buf[8:12], port)
	return buf
}

func decodeSockaddr(buf [sockaddrQrtrSize]byte) (node, port uint32) {
	return binary.LittleEndian.Uint32(buf[4:8]), binary.LittleEndian.Uint32(buf[8:12])
}

// Socket is one AF_QIPCRTR SOCK_DGRAM file descriptor.
type Socket struct {
	fd int
}

// Open creates a new, unbound AF_QIPCRTR datagram socket.
func Open() (*Socket, error) {
	fd, err := unix.Socket(afQIPCRTR, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, fmt.Errorf("open AF_QIPCRTR socket: %w", err)
	}
	return &Socket{fd: fd}, nil
}

// Bind binds the socket to the local node, letting the kernel assign a
// port (port 0, node 0).
func (s *Socket) Bind() error {
	sa := encodeSockaddr(0, 0)
	_, _, errno := unix.Syscall(unix.SYS_BIND, uintptr(s.fd), uintptr(unsafe.Pointer(&sa[0])), uintptr(sockaddrQrtrSize))
	if errno != 0 {
		return fmt.Errorf("bind AF_QIPCRTR socket: %w", errno)
	}
	return nil
}

// Getsockname returns the node/port the kernel assigned on Bind.
func (s *Socket) Getsockname() (node, port uint32, err error) {
	var sa [sockaddrQrtrSize]byte
	length := uint32(sockaddrQrtrSize)
	_, _, errno := unix.Syscall(unix.SYS_GETSOCKNAME, uintptr(s.fd), uintptr(unsafe.Pointer(&sa[0])), uintptr(unsafe.Pointer(&length)))
	if errno != 0 {
		return 0, 0, fmt.Errorf("getsockname: %w", errno)
	}
	family := binary.LittleEndian.Uint16(sa[0:2])
	if family != afQIPCRTR {
		return 0, 0, fmt.Errorf("getsockname: unexpected address family %d", family)
	}
	node, port = decodeSockaddr(sa)
	return node, port, nil
}

// SendTo writes buf as one datagram to the given node/port.
func (s *Socket) SendTo(buf []byte, node, port uint32) error {
	sa := encodeSockaddr(node, port)
	var base uintptr
	if len(buf) > 0 {
		base = uintptr(unsafe.Pointer(&buf[0]))
	}
	_, _, errno := unix.Syscall6(unix.SYS_SENDTO, uintptr(s.fd), base, uintptr(len(buf)), 0,
		uintptr(unsafe.Pointer(&sa[0])), uintptr(sockaddrQrtrSize))
	if errno != 0 {
		return fmt.Errorf("sendto: %w", errno)
	}
	return nil
}

// RecvFrom blocks until one datagram arrives, returning its payload
// length and the sending node/port.
func (s *Socket) RecvFrom(buf []byte) (n int, node, port uint32, err error) {
	var sa [sockaddrQrtrSize]byte
	length := uint32(sockaddrQrtrSize)
	var base uintptr
	if len(buf) > 0 {
		base = uintptr(unsafe.Pointer(&buf[0]))
	}
	r0, _, errno := unix.Syscall6(unix.SYS_RECVFROM, uintptr(s.fd), base, uintptr(len(buf)), 0,
		uintptr(unsafe.Pointer(&sa[0])), uintptr(unsafe.Pointer(&length)))
	if errno != 0 {
		return 0, 0, 0, fmt.Errorf("recvfrom: %w", errno)
	}
	node, port = decodeSockaddr(sa)
	return int(r0), node, port, nil
}

// Close releases the file descriptor. A concurrent RecvFrom returns an
// error once closed.
func (s *Socket) Close() error {
	return unix.Close(s.fd)
}
