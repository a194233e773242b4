package qrtr

import "errors"

// Error taxonomy per spec.md §7. NotFound and InvariantViolation are not
// represented here: a not-found lookup returns (zero, false), and an
// invariant violation (a DEL_SERVER for an unknown node/port) is logged
// and never propagated to callers.
var (
	// ErrSocketCreate means opening or binding the AF_QIPCRTR socket
	// failed. Fatal to the owning Observer or Client.
	ErrSocketCreate = errors.New("qrtr: failed to create AF_QIPCRTR socket")

	// ErrSocketIO means a send/recv/getsockname syscall failed. Fatal to
	// an Observer's decode loop; per-call for a Client's Send.
	ErrSocketIO = errors.New("qrtr: socket I/O error")

	// ErrTimeout means a deadline passed before Create or WaitForNode
	// completed.
	ErrTimeout = errors.New("qrtr: timed out")

	// ErrCancelled means the caller's context was cancelled before
	// Create or WaitForNode completed.
	ErrCancelled = errors.New("qrtr: cancelled")

	// ErrClosed means the Observer or Client was closed.
	ErrClosed = errors.New("qrtr: closed")
)
