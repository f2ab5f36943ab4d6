package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"slib/internal/logging"
	"slib/internal/protocol"
)

const (
	defaultSocketMode os.FileMode = 0o600
	staleProbeTimeout             = time.Second
	maxAcceptBackoff              = time.Second
)

// Server runs the single-connection session loop on a Unix socket.
type Server struct {
	path           string
	dispatcher     *Dispatcher
	logger         *slog.Logger
	listener       *net.UnixListener
	requestTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

type serverOptions struct {
	identity       protocol.BuildIdentity
	mode           os.FileMode
	requestTimeout time.Duration
}

// ServerOption customises NewServer.
type ServerOption func(*serverOptions)

// WithIdentity overrides the identity returned for Verify.
func WithIdentity(id protocol.BuildIdentity) ServerOption {
	return func(o *serverOptions) { o.identity = id }
}

// WithSocketMode sets the permissions applied to the socket file.
func WithSocketMode(mode os.FileMode) ServerOption {
	return func(o *serverOptions) { o.mode = mode }
}

// WithRequestTimeout bounds how long a connection may take to deliver its
// request record. Without it, or with zero, there is no limit.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) { o.requestTimeout = d }
}

// NewServer binds the socket at path. A stale socket left behind by a
// crashed daemon is replaced; a live one yields ErrAddressInUse.
func NewServer(path string, d Daemon, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	options := serverOptions{mode: defaultSocketMode}
	for _, opt := range opts {
		opt(&options)
	}

	listener, err := listen(path)
	if err != nil {
		return nil, &TransportError{Op: "listen", Path: path, Err: err}
	}
	if err := os.Chmod(path, options.mode); err != nil {
		_ = listener.Close()
		return nil, &TransportError{Op: "listen", Path: path, Err: fmt.Errorf("set socket permissions: %w", err)}
	}

	return &Server{
		path:           path,
		dispatcher:     NewDispatcher(d, options.identity),
		logger:         logging.NewComponentLogger(logger, "ipc"),
		listener:       listener,
		requestTimeout: options.requestTimeout,
	}, nil
}

func listen(path string) (*net.UnixListener, error) {
	if path == "" {
		return nil, errors.New("socket path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	addr := &net.UnixAddr{Name: path, Net: "unix"}
	listener, err := net.ListenUnix("unix", addr)
	if err == nil {
		return listener, nil
	}
	if !errors.Is(err, unix.EADDRINUSE) {
		return nil, err
	}

	info, statErr := os.Lstat(path)
	if statErr != nil {
		return nil, err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return nil, fmt.Errorf("%s exists and is not a socket", path)
	}
	conn, dialErr := net.DialTimeout("unix", path, staleProbeTimeout)
	if dialErr == nil {
		_ = conn.Close()
		return nil, ErrAddressInUse
	}
	if !errors.Is(dialErr, unix.ECONNREFUSED) {
		return nil, fmt.Errorf("probe existing socket: %w", dialErr)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	return net.ListenUnix("unix", addr)
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Identity returns the identity this server answers Verify with.
func (s *Server) Identity() protocol.BuildIdentity {
	return s.dispatcher.Identity()
}

// Serve runs the session loop. It returns nil after a Shutdown request is
// answered with true, ctx.Err() when ctx is cancelled and ErrServerClosed
// after Close. The listener is closed and the socket unlinked on return.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.listener.Close() })
	defer stop()
	defer s.Close()

	s.logger.Info("ipc server listening",
		logging.String(logging.FieldEventType, "ipc_listening"),
		logging.String(logging.FieldSocket, s.path))

	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}
			backoff = nextBackoff(backoff)
			logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
				logging.Error(err),
				logging.Duration("retry_in", backoff),
				logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
				logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		backoff = 0

		if s.handle(ctx, conn) {
			s.logger.Info("shutdown acknowledged, leaving session loop",
				logging.String(logging.FieldEventType, "ipc_shutdown"))
			return nil
		}
	}
}

// handle serves one connection and reports whether the loop should end.
func (s *Server) handle(ctx context.Context, conn net.Conn) bool {
	defer conn.Close()
	logger := s.logger.With(logging.String(logging.FieldCorrelationID, uuid.NewString()))

	if s.requestTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.requestTimeout))
	}
	record, err := protocol.ReadRecord(bufio.NewReader(conn))
	if err != nil {
		if errors.Is(err, io.EOF) {
			logger.Debug("connection closed before request")
			return false
		}
		logging.WarnWithContext(logger, "dropping connection: request not readable", "ipc_request_unreadable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "client receives no reply for this request"),
			logging.String(logging.FieldErrorHint, "Ensure the client sends one newline-terminated record"))
		return false
	}

	cmd, err := protocol.DecodeCommand(record)
	if err != nil {
		logging.WarnWithContext(logger, "dropping connection: malformed request", "ipc_request_malformed",
			logging.Error(err),
			logging.Int("record_bytes", len(record)),
			logging.String(logging.FieldImpact, "client receives no reply for this request"),
			logging.String(logging.FieldErrorHint, "Check that the CLI and daemon were built from the same revision (slib verify)"))
		return false
	}
	logger = logger.With(logging.Command(string(cmd.Kind())))
	logger.Debug("request received")

	reply, err := s.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		logging.ErrorWithContext(logger, "dispatch failed", "ipc_dispatch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "Inspect daemon logs for the failing operation"))
		return false
	}
	if err := protocol.WriteRecord(conn, reply); err != nil {
		logging.WarnWithContext(logger, "reply not delivered", "ipc_reply_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "client sees the request as failed"),
			logging.String(logging.FieldErrorHint, "The client may have disconnected early"))
	}

	return cmd.Kind() == protocol.KindShutdown && protocol.IsTrue(reply)
}

// Close stops the loop and removes the socket file. It is safe to call more
// than once.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.listener.Close()
	if err != nil && errors.Is(err, net.ErrClosed) {
		err = nil
	}
	if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String(logging.FieldSocket, s.path),
			logging.Error(rmErr),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun slib stop"))
	}
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return 5 * time.Millisecond
	}
	current *= 2
	if current > maxAcceptBackoff {
		return maxAcceptBackoff
	}
	return current
}
