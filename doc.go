// Package qrtr is a userspace client for the Qualcomm IPC Router bus
// (AF_QIPCRTR): it observes NEW_SERVER/DEL_SERVER control traffic to
// publish a debounced view of nodes and the services they export, and
// opens per-(node,port) Client channels to exchange raw datagrams with a
// service.
//
// Two types carry the package: Observer owns the control socket and the
// node directory; Client is a datagram conduit to one service port. Both
// are single-writer types — an Observer's directory and a Client's socket
// are each mutated by exactly one internal goroutine — but their public
// methods are safe to call from any goroutine.
//
// This package does not parse any application-layer protocol carried over
// QRTR datagrams, does not retry or reorder (the kernel bus is assumed
// reliable and ordered within a session), and does not coordinate across
// processes: each process owns its own Observer.
package qrtr
