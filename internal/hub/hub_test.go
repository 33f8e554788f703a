package hub

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/muurk/controlpet/internal/protocol"
)

const testTimeout = 2 * time.Second

// fakeHub is a loopback TCP server standing in for a hub. It records every
// frame it receives and lets the test write raw bytes back.
type fakeHub struct {
	ln       net.Listener
	conns    chan net.Conn
	received chan string

	mu   sync.Mutex
	open []net.Conn
}

func startFakeHub(t *testing.T) *fakeHub {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	h := &fakeHub{
		ln:       ln,
		conns:    make(chan net.Conn, 4),
		received: make(chan string, 64),
	}
	go h.acceptLoop()

	t.Cleanup(func() {
		_ = ln.Close()
		h.mu.Lock()
		for _, c := range h.open {
			_ = c.Close()
		}
		h.mu.Unlock()
	})
	return h
}

func (h *fakeHub) addr() string {
	return h.ln.Addr().String()
}

func (h *fakeHub) acceptLoop() {
	for {
		conn, err := h.ln.Accept()
		if err != nil {
			return
		}
		h.mu.Lock()
		h.open = append(h.open, conn)
		h.mu.Unlock()

		h.conns <- conn
		go h.readLoop(conn)
	}
}

func (h *fakeHub) readLoop(conn net.Conn) {
	framer := protocol.NewFramer()
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		for _, frame := range framer.Feed(buf[:n]) {
			h.received <- string(frame)
		}
		if err != nil {
			return
		}
	}
}

// accept returns the next connection made to the hub
func (h *fakeHub) accept(t *testing.T) net.Conn {
	t.Helper()
	select {
	case c := <-h.conns:
		return c
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for a client connection")
		return nil
	}
}

// expect asserts the next frame the hub receives
func (h *fakeHub) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-h.received:
		if got != want {
			t.Fatalf("hub received %q, want %q", got, want)
		}
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func send(t *testing.T, conn net.Conn, data string) {
	t.Helper()
	if _, err := conn.Write([]byte(data)); err != nil {
		t.Fatalf("hub write error = %v", err)
	}
}

// connectClient connects a new client to h and returns it with the
// hub-side end of the connection.
func connectClient(t *testing.T, h *fakeHub, tweak func(*Config)) (*Client, net.Conn) {
	t.Helper()

	cfg := DefaultConfig(h.addr())
	if tweak != nil {
		tweak(&cfg)
	}
	c := NewClient(cfg)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c, h.accept(t)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
