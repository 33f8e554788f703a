package discovery

import (
	"context"
	"net"
	"testing"
	"time"
)

func listenLoopback(t *testing.T) *ShoutListener {
	t.Helper()
	l, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// sendFrom sends each payload to the listener from a fresh UDP socket and
// returns the sender's port.
func sendFrom(t *testing.T, to net.Addr, payloads ...string) int {
	t.Helper()
	conn, err := net.DialUDP("udp4", nil, to.(*net.UDPAddr))
	if err != nil {
		t.Fatalf("DialUDP() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	for _, p := range payloads {
		if _, err := conn.Write([]byte(p)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestParseShout(t *testing.T) {
	from := &net.UDPAddr{IP: net.ParseIP("192.168.0.136"), Port: 4889}

	tests := []struct {
		name     string
		data     string
		from     net.Addr
		wantNil  bool
		wantName string
	}{
		{name: "firmware announcement", data: "@shout:3a001d000b47:;", from: from, wantName: "3a001d000b47"},
		{name: "no trailing colon", data: "@shout:hub1;", from: from, wantName: "hub1"},
		{name: "extra fields", data: "@shout:hub2:extra:;", from: from, wantName: "hub2"},
		{name: "empty name", data: "@shout:;", from: from, wantName: UnknownHubName},
		{name: "not an announcement", data: "@[12][play]<blue>", from: from, wantNil: true},
		{name: "prefix not at start", data: "x@shout:hub;", from: from, wantNil: true},
		{name: "nil source", data: "@shout:hub;", from: nil, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := ParseShout([]byte(tt.data), tt.from)

			if tt.wantNil {
				if hub != nil {
					t.Errorf("ParseShout() = %v, want nil", hub)
				}
				return
			}
			if hub == nil {
				t.Fatal("ParseShout() = nil, want hub")
			}
			if hub.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", hub.Name, tt.wantName)
			}
			if hub.IP != "192.168.0.136" || hub.Port != 4889 {
				t.Errorf("endpoint = %s, want 192.168.0.136:4889", hub.Address())
			}
			if hub.Source != SourceBroadcast {
				t.Errorf("Source = %q, want %q", hub.Source, SourceBroadcast)
			}
		})
	}
}

func TestShoutListener_Wait(t *testing.T) {
	l := listenLoopback(t)
	port := sendFrom(t, l.LocalAddr(), "@shout:hub-under-test:;")

	hub, err := l.Wait(context.Background(), 2*time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if hub == nil {
		t.Fatal("Wait() = nil, want hub")
	}
	if hub.Name != "hub-under-test" {
		t.Errorf("Name = %q, want hub-under-test", hub.Name)
	}
	if hub.IP != "127.0.0.1" {
		t.Errorf("IP = %q, want 127.0.0.1", hub.IP)
	}
	if hub.Port != port {
		t.Errorf("Port = %d, want sender port %d", hub.Port, port)
	}
}

func TestShoutListener_IgnoresOtherDatagrams(t *testing.T) {
	l := listenLoopback(t)
	sendFrom(t, l.LocalAddr(), "hello", "@[1][play]<red>", "@shout:second:;", "@shout:third:;")

	hub, err := l.Wait(context.Background(), 2*time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if hub == nil || hub.Name != "second" {
		t.Fatalf("Wait() = %v, want the first qualifying announcement", hub)
	}
}

func TestShoutListener_TimeoutReturnsNil(t *testing.T) {
	l := listenLoopback(t)

	start := time.Now()
	hub, err := l.Wait(context.Background(), 150*time.Millisecond)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Wait() error = %v, want nil on timeout", err)
	}
	if hub != nil {
		t.Fatalf("Wait() = %v, want nil on timeout", hub)
	}
	if elapsed < 100*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("Wait() returned after %v, want roughly the 150ms timeout", elapsed)
	}
}

func TestShoutListener_ContextCancel(t *testing.T) {
	l := listenLoopback(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	hub, err := l.Wait(ctx, 10*time.Second)
	if err != context.Canceled {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
	if hub != nil {
		t.Errorf("Wait() = %v, want nil", hub)
	}
}
