package telnetd

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/telnet-console/server/internal/command"
	"github.com/telnet-console/server/internal/db"
	"github.com/telnet-console/server/internal/logging"
	"github.com/telnet-console/server/internal/registry"
	"github.com/telnet-console/server/internal/repository"
	"github.com/telnet-console/server/internal/session"
)

func startServer(t *testing.T, maxClients int) (string, *registry.Tracker, *Server) {
	t.Helper()

	database, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	tracker := registry.New()
	sessions := session.NewHandler(
		tracker,
		repository.NewConnectionRepository(database),
		command.NewTable(),
		logging.NewNop(),
		session.Config{LogDir: t.TempDir(), Prompt: "> ", MaxLine: 64},
	)

	srv := &Server{Handler: sessions, Log: logging.NewNop(), MaxClients: maxClients}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	return ln.Addr().String(), tracker, srv
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", addr, err)
	}
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readExact(t *testing.T, conn net.Conn, n int) string {
	t.Helper()
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("failed to read %d bytes: %v", n, err)
	}
	return string(buf)
}

func TestServeSession(t *testing.T) {
	addr, _, _ := startServer(t, 0)
	conn := dial(t, addr)

	if got := readExact(t, conn, 2); got != "> " {
		t.Fatalf("greeting = %q, want %q", got, "> ")
	}

	if _, err := conn.Write([]byte("ping\r")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := "ping\r\n" + "Get the CMD\r\n" + "> "
	if got := readExact(t, conn, len(want)); got != want {
		t.Fatalf("response = %q, want %q", got, want)
	}

	// EOT ends the session: the server closes the connection.
	if _, err := conn.Write([]byte{0x04}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := conn.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("read after EOT = %v, want io.EOF", err)
	}
}

func TestMaxClients(t *testing.T) {
	addr, _, _ := startServer(t, 1)

	first := dial(t, addr)
	readExact(t, first, 2) // session is live once greeted

	second := dial(t, addr)
	data, err := io.ReadAll(second)
	if err != nil {
		t.Fatalf("read refusal failed: %v", err)
	}
	if string(data) != refuseMessage {
		t.Errorf("refusal = %q, want %q", data, refuseMessage)
	}
}

func TestForcedShutdownUnblocksSessions(t *testing.T) {
	addr, tracker, srv := startServer(t, 0)

	conn := dial(t, addr)
	readExact(t, conn, 2)

	// Shutdown path: stop accepting, then force-close registered handles.
	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The session may not have registered yet on slow schedulers; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for tracker.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if got := tracker.CloseAll(); got != 1 {
		t.Fatalf("CloseAll() = %d, want 1", got)
	}

	// The client's blocked read ends like an ordinary disconnect.
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Error("read after forced close succeeded, want connection end")
	}

	if _, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		t.Error("dial succeeded after Close, want refused")
	}
}

func TestHealthcheck(t *testing.T) {
	addr, _, _ := startServer(t, 0)

	if err := Healthcheck(addr, "> ", false); err != nil {
		t.Fatalf("Healthcheck failed: %v", err)
	}
}

func TestHealthcheckNoServer(t *testing.T) {
	if err := Healthcheck("127.0.0.1:1", "> ", false); err == nil {
		t.Error("Healthcheck against a closed port succeeded, want error")
	}
}
