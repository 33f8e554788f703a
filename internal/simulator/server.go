package simulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/discovery"
	"github.com/muurk/controlpet/internal/logging"
	"github.com/muurk/controlpet/internal/protocol"
)

// Config holds the simulator configuration
type Config struct {
	Host          string
	ControlPort   int    // TCP control port (0 picks a free port)
	WebSocketPort int    // websocket bridge port (-1 disables, 0 picks a free port)
	DeviceID      string // announced in shouts (random if empty)

	ShoutAddr     string        // destination for shouts, e.g. 255.255.255.255:4888 (empty disables)
	ShoutInterval time.Duration // defaults to 5s
	Advertise     bool          // register the mDNS services

	DispenseDelay   time.Duration // how long the simulated pet takes to react
	DispenseOutcome Outcome
	Debounce        time.Duration // minimum gap between events for the same buttons

	LogLevel   string
	CaptureDir string // directory for JSONL traffic captures (empty = disabled)
}

// Server is an in-process ControlPet hub. It speaks the control protocol
// over TCP, websocket and UDP and announces itself like the firmware.
type Server struct {
	config *Config
	hub    *hubState

	tcpListener net.Listener
	wsListener  net.Listener
	httpServer  *http.Server
	udpConn     *net.UDPConn
	mdns        []*zeroconf.Server
	capture     *captureWriter

	ctx    context.Context
	cancel context.CancelFunc

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]peer
}

// New creates a new simulator. Nothing is bound until Listen.
func New(config *Config) (*Server, error) {
	if config.LogLevel != "" {
		if err := logging.Initialize(config.LogLevel); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
	}

	if config.DeviceID == "" {
		config.DeviceID = strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	}
	if config.ShoutInterval <= 0 {
		config.ShoutInterval = 5 * time.Second
	}
	if config.DispenseOutcome == "" {
		config.DispenseOutcome = OutcomeTaken
	}
	if !config.DispenseOutcome.Valid() {
		return nil, fmt.Errorf("invalid dispense outcome %q", config.DispenseOutcome)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:      config,
		hub:         newHubState(config.DispenseOutcome, config.Debounce),
		ctx:         ctx,
		cancel:      cancel,
		activeConns: make(map[string]peer),
	}
	s.hub.setDispenseDelay(config.DispenseDelay)

	if config.CaptureDir != "" {
		capture, err := newCaptureWriter(config.CaptureDir)
		if err != nil {
			cancel()
			return nil, err
		}
		s.capture = capture
	}

	return s, nil
}

// Listen binds the TCP, websocket and UDP sockets
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.ControlPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.tcpListener = ln
	port := ln.Addr().(*net.TCPAddr).Port

	// UDP commands and shouts share the control port number, so a shout's
	// source port tells clients where to connect.
	udpAddr := &net.UDPAddr{IP: net.ParseIP(s.config.Host), Port: port}
	udpConn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to bind UDP port %d: %w", port, err)
	}
	s.udpConn = udpConn

	if s.config.WebSocketPort >= 0 {
		wsAddr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.WebSocketPort))
		wsLn, err := net.Listen("tcp", wsAddr)
		if err != nil {
			_ = ln.Close()
			_ = udpConn.Close()
			return fmt.Errorf("failed to listen on %s: %w", wsAddr, err)
		}
		s.wsListener = wsLn
	}

	logging.Info("Simulated hub listening",
		zap.String("device_id", s.config.DeviceID),
		zap.String("control", s.ControlAddr()),
		zap.String("websocket", s.WebSocketAddr()),
	)
	return nil
}

// ControlAddr returns the bound TCP control address
func (s *Server) ControlAddr() string {
	if s.tcpListener == nil {
		return ""
	}
	return s.tcpListener.Addr().String()
}

// WebSocketAddr returns the bound websocket address, or "" when disabled
func (s *Server) WebSocketAddr() string {
	if s.wsListener == nil {
		return ""
	}
	return s.wsListener.Addr().String()
}

// DeviceID returns the id announced in shouts
func (s *Server) DeviceID() string {
	return s.config.DeviceID
}

// Serve runs the accept loops and announcements until ctx is cancelled,
// then shuts down.
func (s *Server) Serve(ctx context.Context) error {
	if s.tcpListener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	errChan := make(chan error, 2)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.acceptConnections(); err != nil {
			errChan <- err
		}
	}()
	go func() {
		defer s.wg.Done()
		s.serveUDP()
	}()

	if s.wsListener != nil {
		httpServer := &http.Server{Handler: s.websocketHandler(), ReadHeaderTimeout: 10 * time.Second}
		s.mu.Lock()
		s.httpServer = httpServer
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := httpServer.Serve(s.wsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("websocket server: %w", err)
			}
		}()
	}

	if s.config.ShoutAddr != "" {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.shoutLoop()
		}()
	}

	if s.config.Advertise {
		if err := s.advertise(); err != nil {
			logging.Warn("mDNS registration failed", zap.Error(err))
		}
	}

	select {
	case <-ctx.Done():
	case <-s.ctx.Done():
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	}
	return s.Shutdown(context.Background())
}

// Start binds, serves and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.Serve(ctx)
}

// acceptConnections accepts and handles incoming TCP connections
func (s *Server) acceptConnections() error {
	for {
		conn, err := s.tcpListener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one TCP client until it disconnects
func (s *Server) handleConnection(conn net.Conn) {
	p := newTCPPeer(conn)
	s.track(p)
	defer s.untrack(p)

	framer := protocol.NewFramer()
	buf := make([]byte, protocol.MaxMessageLen)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.feed(p, framer, buf[:n])
		}
		if err != nil {
			logging.Debug("Client read ended", zap.String("remote_addr", p.remote()), zap.Error(err))
			return
		}
	}
}

// feed frames raw input from a peer and handles each complete message
func (s *Server) feed(p peer, framer *protocol.Framer, data []byte) {
	for _, frame := range framer.Feed(data) {
		logging.LogMessage(p.remote(), logging.DirectionReceived, frame)
		s.capture.record(p, "client->hub", frame)

		msg, err := protocol.Decode(frame)
		if err != nil {
			logging.Debug("Ignoring malformed frame", zap.String("remote_addr", p.remote()), zap.Error(err))
			continue
		}
		s.handle(p, msg)
	}
}

// handle applies a command and sends its reply to the peer
func (s *Server) handle(p peer, msg protocol.Message) {
	replies := s.hub.apply(s.ctx, msg)
	for _, reply := range replies {
		s.sendTo(p, reply)
	}
}

func (s *Server) sendTo(p peer, msg protocol.Message) {
	frame := msg.Bytes()
	if err := p.send(frame); err != nil {
		logging.Debug("Failed to send to client", zap.String("remote_addr", p.remote()), zap.Error(err))
		return
	}
	logging.LogMessage(p.remote(), logging.DirectionSent, frame)
	s.capture.record(p, "hub->client", frame)
}

// broadcast sends msg to every connected stream client
func (s *Server) broadcast(msg protocol.Message) {
	s.mu.Lock()
	peers := make([]peer, 0, len(s.activeConns))
	for _, p := range s.activeConns {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		s.sendTo(p, msg)
	}
}

func (s *Server) track(p peer) {
	s.mu.Lock()
	s.activeConns[p.remote()] = p
	s.mu.Unlock()
	logging.LogConnection(p.remote(), "connection_accepted", zap.String("transport", p.transport()))
}

func (s *Server) untrack(p peer) {
	_ = p.close()
	s.mu.Lock()
	delete(s.activeConns, p.remote())
	s.mu.Unlock()
	logging.LogConnection(p.remote(), "connection_closed", zap.String("transport", p.transport()))
}

// GetActiveConnections returns the number of connected stream clients
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

// PressButtons simulates the pet touching the given pads (bitmask, bit 0 is
// left). The press is added to the reported mask and sent as a button event
// to every client unless debounced.
func (s *Server) PressButtons(mask int) {
	if ev, ok := s.hub.press(mask, time.Now()); ok {
		s.broadcast(ev)
	}
}

// Lights returns the current (yellow, blue) values of the four lights
func (s *Server) Lights() [4]Light {
	return s.hub.lightsSnapshot()
}

// SoundsPlayed returns every sound played so far, in order
func (s *Server) SoundsPlayed() []string {
	return s.hub.soundsSnapshot()
}

// SetDispenseOutcome changes how future dispenses resolve
func (s *Server) SetDispenseOutcome(o Outcome) {
	s.hub.setOutcome(o)
}

// SetDispenseDelay changes how long future dispenses take to resolve
func (s *Server) SetDispenseDelay(d time.Duration) {
	s.hub.setDispenseDelay(d)
}

// Shutdown stops accepting, closes every client and waits for the handlers
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down simulated hub...")

	s.cancel()

	for _, m := range s.mdns {
		m.Shutdown()
	}
	s.mdns = nil

	if s.tcpListener != nil {
		if err := s.tcpListener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logging.Error("Error closing listener", zap.Error(err))
		}
	}
	if s.udpConn != nil {
		_ = s.udpConn.Close()
	}
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer != nil {
		_ = httpServer.Close()
	} else if s.wsListener != nil {
		_ = s.wsListener.Close()
	}

	s.mu.Lock()
	for addr, p := range s.activeConns {
		logging.Debug("Closing active connection", zap.String("remote_addr", addr))
		_ = p.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	s.capture.close()
	logging.Sync()

	return nil
}

// advertise registers the hub's mDNS services the way the firmware does
func (s *Server) advertise() error {
	port := s.tcpListener.Addr().(*net.TCPAddr).Port
	txt := []string{"id=" + s.config.DeviceID}

	control, err := zeroconf.Register(discovery.FirmwareHostname, discovery.ServiceType, discovery.ServiceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("register %s: %w", discovery.ServiceType, err)
	}
	s.mdns = append(s.mdns, control)

	if s.wsListener != nil {
		wsPort := s.wsListener.Addr().(*net.TCPAddr).Port
		ws, err := zeroconf.Register(discovery.FirmwareHostname, discovery.WebSocketServiceType, discovery.ServiceDomain, wsPort, txt, nil)
		if err != nil {
			return fmt.Errorf("register %s: %w", discovery.WebSocketServiceType, err)
		}
		s.mdns = append(s.mdns, ws)
	}

	logging.Info("Registered mDNS services", zap.String("instance", discovery.FirmwareHostname), zap.Int("port", port))
	return nil
}
