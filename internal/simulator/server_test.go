package simulator

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/muurk/controlpet/internal/discovery"
	"github.com/muurk/controlpet/internal/hub"
)

const testTimeout = 2 * time.Second

// startSim runs a simulator on loopback until the test ends
func startSim(t *testing.T, cfg *Config) *Server {
	t.Helper()

	cfg.Host = "127.0.0.1"
	sim, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := sim.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- sim.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-served:
		case <-time.After(5 * time.Second):
			t.Error("Serve() did not return after cancel")
		}
	})
	return sim
}

func connect(t *testing.T, cfg hub.Config) *hub.Client {
	t.Helper()
	c := hub.NewClient(cfg)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
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

func TestServer_LightsAndSounds(t *testing.T) {
	sim := startSim(t, &Config{WebSocketPort: -1})
	c := connect(t, hub.DefaultConfig(sim.ControlAddr()))

	if err := c.SetButtonLight(hub.ButtonLeft, hub.ColorWhite, 100); err != nil {
		t.Fatalf("SetButtonLight() error = %v", err)
	}
	if err := c.SetButtonLight(hub.LightCue, hub.ColorBlue, 50); err != nil {
		t.Fatalf("SetButtonLight() error = %v", err)
	}
	if err := c.PositiveSound(); err != nil {
		t.Fatalf("PositiveSound() error = %v", err)
	}

	waitFor(t, "sound to play", func() bool { return len(sim.SoundsPlayed()) == 1 })

	lights := sim.Lights()
	if lights[0] != (Light{Yellow: 60, Blue: 60}) {
		t.Errorf("left light = %+v, want {60 60}", lights[0])
	}
	if lights[3] != (Light{Yellow: 0, Blue: 30}) {
		t.Errorf("cue light = %+v, want {0 30}", lights[3])
	}
	if got := sim.SoundsPlayed()[0]; got != hub.SoundPositive {
		t.Errorf("sound = %q, want positive", got)
	}

	if err := c.StartNewRound(); err != nil {
		t.Fatalf("StartNewRound() error = %v", err)
	}
	waitFor(t, "lights to turn off", func() bool { return sim.Lights() == [4]Light{} })
}

func TestServer_Dispense(t *testing.T) {
	sim := startSim(t, &Config{WebSocketPort: -1, DispenseDelay: 20 * time.Millisecond})
	c := connect(t, hub.DefaultConfig(sim.ControlAddr()))

	tests := []struct {
		outcome Outcome
		want    bool
	}{
		{outcome: OutcomeTaken, want: true},
		{outcome: OutcomeNotTaken, want: false},
		{outcome: OutcomeError, want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			sim.SetDispenseOutcome(tt.outcome)
			taken, err := c.Dispense(context.Background())
			if err != nil {
				t.Fatalf("Dispense() error = %v", err)
			}
			if taken != tt.want {
				t.Errorf("Dispense() = %v, want %v", taken, tt.want)
			}
		})
	}
}

func TestServer_ButtonPress(t *testing.T) {
	sim := startSim(t, &Config{WebSocketPort: -1})
	c := connect(t, hub.DefaultConfig(sim.ControlAddr()))

	type result struct {
		state hub.ButtonState
		err   error
	}
	done := make(chan result, 1)
	go func() {
		s, err := c.WaitForButtonPress(context.Background(), testTimeout)
		done <- result{s, err}
	}()

	// keep pressing until the armed wait picks one up
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case r := <-done:
			if r.err != nil {
				t.Fatalf("WaitForButtonPress() error = %v", r.err)
			}
			if !r.state.Pressed(hub.ButtonRight) || r.state.Pressed(hub.ButtonLeft) {
				t.Errorf("WaitForButtonPress() = %v, want right", r.state)
			}
			return
		case <-ticker.C:
			sim.PressButtons(4)
		}
	}
}

func TestServer_RequestButtons(t *testing.T) {
	sim := startSim(t, &Config{WebSocketPort: -1})
	c := connect(t, hub.DefaultConfig(sim.ControlAddr()))

	waitFor(t, "client to be tracked", func() bool { return sim.GetActiveConnections() == 1 })
	sim.PressButtons(1)
	sim.PressButtons(2)

	if err := c.RequestButtons(); err != nil {
		t.Fatalf("RequestButtons() error = %v", err)
	}

	want := hub.ButtonState{true, true, false}
	waitFor(t, "buttons report", func() bool { return c.LastReported() == want })
}

func TestServer_WebSocket(t *testing.T) {
	sim := startSim(t, &Config{})

	cfg := hub.DefaultConfig(sim.WebSocketAddr())
	cfg.Transport = hub.TransportWebSocket
	c := connect(t, cfg)

	if err := c.SetButtonLight(hub.ButtonMiddle, hub.ColorYellow, 100); err != nil {
		t.Fatalf("SetButtonLight() error = %v", err)
	}
	taken, err := c.Dispense(context.Background())
	if err != nil {
		t.Fatalf("Dispense() error = %v", err)
	}
	if !taken {
		t.Error("Dispense() = false, want true")
	}
}

func TestServer_UDPCommands(t *testing.T) {
	sim := startSim(t, &Config{WebSocketPort: -1})

	addr, err := net.ResolveUDPAddr("udp4", sim.ControlAddr())
	if err != nil {
		t.Fatalf("ResolveUDPAddr() error = %v", err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		t.Fatalf("DialUDP() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("@buttons;")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(testTimeout))
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := string(buf[:n]); got != "@buttons:0:;" {
		t.Errorf("reply = %q, want @buttons:0:;", got)
	}
}

func TestServer_ShoutLeadsToHub(t *testing.T) {
	l, err := discovery.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	sim := startSim(t, &Config{
		WebSocketPort: -1,
		DeviceID:      "3a001d000b47",
		ShoutAddr:     l.LocalAddr().String(),
		ShoutInterval: 50 * time.Millisecond,
	})

	found, err := l.Wait(context.Background(), testTimeout)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if found == nil {
		t.Fatal("Wait() = nil, want the simulated hub")
	}
	if found.Name != "3a001d000b47" {
		t.Errorf("Name = %q, want 3a001d000b47", found.Name)
	}

	_, port, _ := net.SplitHostPort(sim.ControlAddr())
	if strconv.Itoa(found.Port) != port {
		t.Errorf("Port = %d, want control port %s", found.Port, port)
	}

	c := connect(t, hub.DefaultConfig(found.Address()))
	if taken, err := c.Dispense(context.Background()); err != nil || !taken {
		t.Errorf("Dispense() = (%v, %v), want (true, nil)", taken, err)
	}
}

func TestServer_ShutdownDropsClients(t *testing.T) {
	sim, err := New(&Config{Host: "127.0.0.1", WebSocketPort: -1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := sim.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- sim.Serve(ctx) }()

	c := connect(t, hub.DefaultConfig(sim.ControlAddr()))

	waitErr := make(chan error, 1)
	go func() {
		_, err := c.WaitForButtonPress(context.Background(), time.Minute)
		waitErr <- err
	}()
	waitFor(t, "client to be tracked", func() bool { return sim.GetActiveConnections() == 1 })

	cancel()
	if err := <-served; err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	select {
	case err := <-waitErr:
		if !hub.IsConnectionLost(err) {
			t.Errorf("WaitForButtonPress() error = %v, want connection lost", err)
		}
	case <-time.After(testTimeout):
		t.Fatal("client wait was not woken by shutdown")
	}
}

func TestServer_Capture(t *testing.T) {
	dir := t.TempDir()
	sim, err := New(&Config{Host: "127.0.0.1", WebSocketPort: -1, CaptureDir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := sim.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- sim.Serve(ctx) }()

	c := connect(t, hub.DefaultConfig(sim.ControlAddr()))
	if _, err := c.Dispense(context.Background()); err != nil {
		t.Fatalf("Dispense() error = %v", err)
	}
	_ = c.Close()

	cancel()
	<-served

	files, err := filepath.Glob(filepath.Join(dir, "capture-*.jsonl"))
	if err != nil || len(files) != 1 {
		t.Fatalf("capture files = %v (err %v), want one", files, err)
	}
	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	records, err := ReadCapture(f)
	if err != nil {
		t.Fatalf("ReadCapture() error = %v", err)
	}

	var sawDispense, sawAck bool
	for _, rec := range records {
		payload, err := rec.Payload()
		if err != nil {
			t.Fatalf("Payload() error = %v", err)
		}
		switch {
		case rec.Direction == "client->hub" && string(payload) == "@dispense;":
			sawDispense = true
		case rec.Direction == "hub->client" && string(payload) == "@ok:taken:;":
			sawAck = true
		}
		if rec.Transport != "tcp" {
			t.Errorf("Transport = %q, want tcp", rec.Transport)
		}
	}
	if !sawDispense || !sawAck {
		t.Errorf("capture missing dispense exchange: %+v", records)
	}
}

func TestNew_InvalidOutcome(t *testing.T) {
	if _, err := New(&Config{DispenseOutcome: "maybe"}); err == nil {
		t.Error("New() with invalid outcome succeeded, want error")
	}
}

func TestNew_CaptureDirMissing(t *testing.T) {
	if _, err := New(&Config{CaptureDir: filepath.Join(t.TempDir(), "absent")}); err == nil {
		t.Error("New() with missing capture dir succeeded, want error")
	}
}
