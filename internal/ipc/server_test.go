package ipc_test

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"slib/internal/ipc"
	"slib/internal/logging"
	"slib/internal/protocol"
)

type runningServer struct {
	srv    *ipc.Server
	path   string
	done   chan error
	cancel context.CancelFunc
}

func startServer(t *testing.T, d ipc.Daemon, opts ...ipc.ServerOption) *runningServer {
	t.Helper()
	path := socketPath(t)
	srv, err := ipc.NewServer(path, d, logging.NewNop(), opts...)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = srv.Close()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop")
		}
	})
	return &runningServer{srv: srv, path: path, done: done, cancel: cancel}
}

func (r *runningServer) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.done:
		r.done <- err
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("server did not return")
		return nil
	}
}

func dialClient(t *testing.T, path string, opts ...ipc.ClientOption) *ipc.Client {
	t.Helper()
	client, err := ipc.Dial(context.Background(), path, opts...)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	return client
}

func TestSearchReturnsItemsInOrder(t *testing.T) {
	stub := &stubDaemon{items: []protocol.Item{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}}}
	rs := startServer(t, stub)
	client := dialClient(t, rs.path)

	items, err := client.Search(context.Background(), "jazz")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []protocol.Item{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("Search = %#v, want %#v", items, want)
	}
	if calls := stub.Calls(); len(calls) != 1 || calls[0] != "Search jazz" {
		t.Fatalf("capability calls = %v", calls)
	}
}

func TestQueueAddReturnsTrue(t *testing.T) {
	stub := &stubDaemon{ok: true}
	rs := startServer(t, stub)
	client := dialClient(t, rs.path)

	ok, err := client.QueueAdd(context.Background(), protocol.Item{ID: "7", Name: "Seven"}, 3)
	if err != nil {
		t.Fatalf("QueueAdd: %v", err)
	}
	if !ok {
		t.Fatal("QueueAdd returned false")
	}
	if calls := stub.Calls(); len(calls) != 1 || calls[0] != "QueueAdd 7 3" {
		t.Fatalf("capability calls = %v", calls)
	}
}

func TestShutdownTrueEndsLoop(t *testing.T) {
	stub := &stubDaemon{shutdown: true}
	rs := startServer(t, stub)
	client := dialClient(t, rs.path)

	ok, err := client.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !ok {
		t.Fatal("Shutdown returned false")
	}
	if err := rs.wait(t); err != nil {
		t.Fatalf("Serve returned %v, want nil", err)
	}

	if _, err := os.Stat(rs.path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("socket still present after shutdown: %v", err)
	}
	_, err = ipc.Dial(context.Background(), rs.path)
	var transportErr *ipc.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError dialing after shutdown, got %v", err)
	}
}

func TestShutdownFalseKeepsServing(t *testing.T) {
	stub := &stubDaemon{shutdown: false, ok: true}
	rs := startServer(t, stub)
	client := dialClient(t, rs.path)

	ok, err := client.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if ok {
		t.Fatal("Shutdown returned true")
	}
	played, err := client.Play(context.Background())
	if err != nil {
		t.Fatalf("Play after declined shutdown: %v", err)
	}
	if !played {
		t.Fatal("Play returned false")
	}
	select {
	case err := <-rs.done:
		t.Fatalf("server exited after declined shutdown: %v", err)
	default:
	}
}

func TestNonShutdownTrueKeepsServing(t *testing.T) {
	stub := &stubDaemon{ok: true}
	rs := startServer(t, stub)
	client := dialClient(t, rs.path)

	for i := 0; i < 3; i++ {
		if _, err := client.Stop(context.Background()); err != nil {
			t.Fatalf("Stop #%d: %v", i, err)
		}
	}
	select {
	case err := <-rs.done:
		t.Fatalf("server exited after a true reply to Stop: %v", err)
	default:
	}
}

func TestMalformedRequestKeepsServing(t *testing.T) {
	stub := &stubDaemon{ok: true}
	rs := startServer(t, stub)

	for _, record := range []string{"garbage\n", "\"Rewind\"\n", "{\"VolumeSet\":999}\n", "{\"Search\":\"unterminated"} {
		conn, err := net.Dial("unix", rs.path)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		if _, err := conn.Write([]byte(record)); err != nil {
			t.Fatalf("write: %v", err)
		}
		if uc, ok := conn.(*net.UnixConn); ok {
			_ = uc.CloseWrite()
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		reply, err := io.ReadAll(conn)
		_ = conn.Close()
		if err != nil {
			t.Fatalf("read reply for %q: %v", record, err)
		}
		if len(reply) != 0 {
			t.Fatalf("malformed request %q got reply %q", record, reply)
		}
	}

	client := dialClient(t, rs.path)
	ok, err := client.Pause(context.Background())
	if err != nil {
		t.Fatalf("Pause after malformed requests: %v", err)
	}
	if !ok {
		t.Fatal("Pause returned false")
	}
	if calls := stub.Calls(); len(calls) != 1 || calls[0] != "Pause" {
		t.Fatalf("capability calls = %v", calls)
	}
}

func sendAfter(t *testing.T, path string, delay time.Duration, record string) string {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	time.Sleep(delay)
	_, _ = conn.Write([]byte(record))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	reply, _ := io.ReadAll(conn)
	return string(reply)
}

func TestSlowRequestServedWithoutTimeout(t *testing.T) {
	stub := &stubDaemon{ok: true}
	rs := startServer(t, stub)

	if reply := sendAfter(t, rs.path, 300*time.Millisecond, "\"Play\"\n"); reply != "true\n" {
		t.Fatalf("reply = %q, want %q", reply, "true\n")
	}
}

func TestRequestTimeoutDropsSlowClient(t *testing.T) {
	stub := &stubDaemon{ok: true}
	rs := startServer(t, stub, ipc.WithRequestTimeout(50*time.Millisecond))

	if reply := sendAfter(t, rs.path, 300*time.Millisecond, "\"Play\"\n"); reply != "" {
		t.Fatalf("slow client got reply %q", reply)
	}
	if calls := stub.Calls(); len(calls) != 0 {
		t.Fatalf("capability calls = %v", calls)
	}

	client := dialClient(t, rs.path)
	if ok, err := client.Play(context.Background()); err != nil || !ok {
		t.Fatalf("Play after dropped client = %v, %v", ok, err)
	}
}

func TestRawWireExchange(t *testing.T) {
	stub := &stubDaemon{ok: true}
	rs := startServer(t, stub)

	conn, err := net.Dial("unix", rs.path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(`{"QueueAdd":{"id":{"id":"7","name":"x","image_path":""},"position":3}}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "true\n" {
		t.Fatalf("reply = %q, want %q", line, "true\n")
	}
}

func TestVerifyIgnoresCapability(t *testing.T) {
	stub := &stubDaemon{}
	rs := startServer(t, stub)
	client := dialClient(t, rs.path)

	id, err := client.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !id.Equal(protocol.Identity()) {
		t.Fatalf("Verify = %s, want %s", id, protocol.Identity())
	}
	if !client.RemoteIdentity().Equal(protocol.Identity()) {
		t.Fatalf("handshake identity = %s", client.RemoteIdentity())
	}
	if calls := stub.Calls(); len(calls) != 0 {
		t.Fatalf("Verify reached capability: %v", calls)
	}
}

func TestDialIdentityMismatch(t *testing.T) {
	local := protocol.Identity()

	oneByte := protocol.Identity()
	oneByte[len(oneByte)-1] ^= 0x01
	shorter := protocol.Identity()[:protocol.IdentitySize-1]
	longer := append(protocol.Identity(), 0)

	for name, remote := range map[string]protocol.BuildIdentity{
		"single byte": oneByte,
		"shorter":     shorter,
		"longer":      longer,
	} {
		t.Run(name, func(t *testing.T) {
			rs := startServer(t, &stubDaemon{}, ipc.WithIdentity(remote))
			_, err := ipc.Dial(context.Background(), rs.path)
			if !errors.Is(err, ipc.ErrIdentityMismatch) {
				t.Fatalf("expected ErrIdentityMismatch, got %v", err)
			}
			var mismatch *ipc.IdentityMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected *IdentityMismatchError, got %T", err)
			}
			if !mismatch.Remote.Equal(remote) {
				t.Fatalf("mismatch remote = %s, want %s", mismatch.Remote, remote)
			}
			if !mismatch.Local.Equal(local) {
				t.Fatalf("mismatch local = %s, want %s", mismatch.Local, local)
			}
		})
	}
}

func TestDialWithoutVerifySkipsHandshake(t *testing.T) {
	rs := startServer(t, &stubDaemon{ok: true}, ipc.WithIdentity(protocol.BuildIdentity{9}))
	client := dialClient(t, rs.path, ipc.WithoutVerify())
	if client.RemoteIdentity() != nil {
		t.Fatalf("expected no remote identity, got %s", client.RemoteIdentity())
	}
	if ok, err := client.Skip(context.Background()); err != nil || !ok {
		t.Fatalf("Skip = %v, %v", ok, err)
	}
}

func TestDialMatchingCustomIdentity(t *testing.T) {
	id := protocol.BuildIdentity{1, 2, 3, 4}
	rs := startServer(t, &stubDaemon{}, ipc.WithIdentity(id))
	client := dialClient(t, rs.path, ipc.WithClientIdentity(id))
	if !client.RemoteIdentity().Equal(id) {
		t.Fatalf("remote identity = %s", client.RemoteIdentity())
	}
}

func TestServeReturnsContextError(t *testing.T) {
	rs := startServer(t, &stubDaemon{})
	rs.cancel()
	if err := rs.wait(t); !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve returned %v, want context.Canceled", err)
	}
}

func TestServeReturnsErrServerClosed(t *testing.T) {
	rs := startServer(t, &stubDaemon{})
	if err := rs.srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rs.wait(t); !errors.Is(err, ipc.ErrServerClosed) {
		t.Fatalf("Serve returned %v, want ErrServerClosed", err)
	}
	if err := rs.srv.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNewServerRejectsLiveSocket(t *testing.T) {
	rs := startServer(t, &stubDaemon{})
	_, err := ipc.NewServer(rs.path, &stubDaemon{}, logging.NewNop())
	if !errors.Is(err, ipc.ErrAddressInUse) {
		t.Fatalf("expected ErrAddressInUse, got %v", err)
	}
	var transportErr *ipc.TransportError
	if !errors.As(err, &transportErr) || transportErr.Op != "listen" {
		t.Fatalf("expected listen TransportError, got %v", err)
	}

	client := dialClient(t, rs.path)
	if _, err := client.Status(context.Background()); err != nil {
		t.Fatalf("original server stopped answering: %v", err)
	}
}

func TestNewServerReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	stale, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		t.Skipf("cannot create unix socket: %v", err)
	}
	stale.SetUnlinkOnClose(false)
	_ = stale.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stale socket missing: %v", err)
	}

	srv, err := ipc.NewServer(path, &stubDaemon{}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer over stale socket: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
}

func TestNewServerRejectsRegularFile(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, []byte("not a socket"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := ipc.NewServer(path, &stubDaemon{}, logging.NewNop()); err == nil {
		t.Fatal("expected error binding over a regular file")
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != "not a socket" {
		t.Fatalf("regular file was modified: %q, %v", data, err)
	}
}

func TestSocketPermissions(t *testing.T) {
	rs := startServer(t, &stubDaemon{})
	info, err := os.Stat(rs.path)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("socket mode = %o, want 600", perm)
	}
}

func TestCallWithoutDaemon(t *testing.T) {
	_, err := ipc.Dial(context.Background(), socketPath(t))
	var transportErr *ipc.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Op != "dial" {
		t.Fatalf("transport op = %q, want dial", transportErr.Op)
	}
}

func TestCallReportsMissingReply(t *testing.T) {
	path := socketPath(t)
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer listener.Close()
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		_, _ = bufio.NewReader(conn).ReadString('\n')
		_ = conn.Close()
	}()

	client := dialClient(t, path, ipc.WithoutVerify())
	_, err = client.Play(context.Background())
	if !errors.Is(err, ipc.ErrNoReply) {
		t.Fatalf("expected ErrNoReply, got %v", err)
	}
}

func TestCallHonoursContext(t *testing.T) {
	path := socketPath(t)
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer listener.Close()
	release := make(chan struct{})
	defer close(release)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		<-release
		_ = conn.Close()
	}()

	client := dialClient(t, path, ipc.WithoutVerify())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Scan(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestOptionalReplies(t *testing.T) {
	stub := &stubDaemon{song: &protocol.SongInfo{Duration: 12.5, Album: protocol.Item{ID: "a"}, Artist: "Z"}}
	rs := startServer(t, stub)
	client := dialClient(t, rs.path)

	song, err := client.SongInfo(context.Background(), protocol.Item{ID: "s"})
	if err != nil {
		t.Fatalf("SongInfo: %v", err)
	}
	if song == nil || song.Duration != 12.5 || song.Artist != "Z" {
		t.Fatalf("SongInfo = %#v", song)
	}
	album, err := client.AlbumInfo(context.Background(), protocol.Item{ID: "missing"})
	if err != nil {
		t.Fatalf("AlbumInfo: %v", err)
	}
	if album != nil {
		t.Fatalf("AlbumInfo = %#v, want nil", album)
	}
}
