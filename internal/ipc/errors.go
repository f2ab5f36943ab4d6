package ipc

import (
	"errors"
	"fmt"

	"slib/internal/protocol"
)

var (
	// ErrAddressInUse reports a live daemon already listening on the socket.
	ErrAddressInUse = errors.New("socket address already in use")
	// ErrServerClosed is returned by Serve after Close.
	ErrServerClosed = errors.New("ipc server closed")
	// ErrNoReply reports a connection the daemon closed without replying,
	// which is how it answers requests it could not decode.
	ErrNoReply = errors.New("daemon closed connection without reply")
	// ErrIdentityMismatch matches every *IdentityMismatchError.
	ErrIdentityMismatch = errors.New("build identity mismatch")
)

// TransportError wraps socket failures: bind, dial, read and write.
type TransportError struct {
	Op   string
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ipc %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ipc %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IdentityMismatchError is returned by Dial when the daemon reports a
// different BuildIdentity than the client was built with.
type IdentityMismatchError struct {
	Local  protocol.BuildIdentity
	Remote protocol.BuildIdentity
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("build identity mismatch: client %s, daemon %s", e.Local, e.Remote)
}

func (e *IdentityMismatchError) Is(target error) bool {
	return target == ErrIdentityMismatch
}
