package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/logging"
	"github.com/muurk/controlpet/internal/protocol"
)

// SessionState is the lifecycle state of a Session
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

// String returns a human-readable session state
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Default session settings
const (
	DefaultDialTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultDispenseTimeout = 30 * time.Second
	DefaultEventBuffer     = 32
)

// Config holds the settings for a hub session
type Config struct {
	// Address is the hub's host:port
	Address string

	// Transport is "tcp" (default) or "websocket"
	Transport string

	DialTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxBrightness is the channel value used for 100% light intensity
	MaxBrightness int

	// DispenseTimeout bounds how long Dispense waits for the hub's ack.
	// Zero waits indefinitely.
	DispenseTimeout time.Duration

	// EventBuffer is the capacity of the Events channel
	EventBuffer int

	// Dialer overrides the transport dialer, mainly for tests
	Dialer Dialer
}

// DefaultConfig returns a TCP config for the hub at address
func DefaultConfig(address string) Config {
	return Config{
		Address:         address,
		Transport:       TransportTCP,
		DialTimeout:     DefaultDialTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		MaxBrightness:   DefaultMaxBrightness,
		DispenseTimeout: DefaultDispenseTimeout,
		EventBuffer:     DefaultEventBuffer,
	}
}

func (c Config) withDefaults() Config {
	if c.Transport == "" {
		c.Transport = TransportTCP
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MaxBrightness <= 0 {
		c.MaxBrightness = DefaultMaxBrightness
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	return c
}

// Event is a decoded message received from the hub
type Event struct {
	Message    protocol.Message
	Buttons    ButtonState // set for buttons and button_event messages
	ReceivedAt time.Time
}

// Session owns one connection to a hub: a reader goroutine that frames and
// dispatches inbound messages and a writer goroutine that drains the
// outbound queue. A Session connects at most once.
type Session struct {
	id  string
	cfg Config

	mu      sync.Mutex
	state   SessionState
	used    bool
	conn    Conn
	cancel  context.CancelFunc
	lossErr error

	queue  *outboundQueue
	events *eventState
	feed   chan Event

	// done is closed when the session stops being usable; every wait
	// selects on it.
	done      chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSession creates a disconnected session
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		state:    StateDisconnected,
		queue:    newOutboundQueue(),
		events:   newEventState(),
		feed:     make(chan Event, cfg.EventBuffer),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// Address returns the configured hub address
func (s *Session) Address() string {
	return s.cfg.Address
}

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session has been lost or disconnected
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns why the session ended, or nil while it is live
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lossErr
}

// Events returns decoded inbound messages. Events are dropped when the
// consumer falls behind. The channel is closed when the session ends.
func (s *Session) Events() <-chan Event {
	return s.feed
}

// QueueLen returns the number of messages waiting to be written
func (s *Session) QueueLen() int {
	return s.queue.len()
}

// Connect dials the hub and starts the reader and writer loops
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.used || s.lossErr != nil {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("session %s already used (state %s); create a new session to reconnect", s.id, state)
	}
	s.used = true
	s.state = StateConnecting
	s.mu.Unlock()

	dial := s.cfg.Dialer
	if dial == nil {
		var err error
		if dial, err = DialerFor(s.cfg.Transport); err != nil {
			s.terminate(err)
			return err
		}
	}

	logging.Debug("Dialling hub",
		zap.String("session", s.id),
		zap.String("address", s.cfg.Address),
		zap.String("transport", s.cfg.Transport))

	dialCtx, cancelDial := context.WithTimeout(ctx, s.cfg.DialTimeout)
	conn, err := dial(dialCtx, s.cfg.Address)
	cancelDial()
	if err != nil {
		err = fmt.Errorf("failed to connect to hub at %s: %w", s.cfg.Address, err)
		s.terminate(err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.lossErr != nil {
		// Disconnect was called while dialling
		cause := s.lossErr
		s.mu.Unlock()
		cancel()
		_ = conn.Close()
		return NewConnectionLostError(cause)
	}
	s.conn = conn
	s.cancel = cancel
	s.state = StateConnected
	s.wg.Add(2)
	s.mu.Unlock()

	logging.LogConnection(conn.RemoteAddr(), "connected",
		zap.String("session", s.id),
		zap.String("transport", s.cfg.Transport))

	go s.readLoop(conn)
	go s.writeLoop(runCtx, conn)
	go s.supervise(conn.RemoteAddr())

	return nil
}

// Disconnect closes the connection and waits for both loops to exit.
// Calling it more than once, or on a session that never connected, is safe.
func (s *Session) Disconnect() error {
	s.terminate(ErrSessionClosed)
	<-s.finished
	return nil
}

// Flush blocks until every queued message has been written, the session is
// lost, or ctx is done.
func (s *Session) Flush(ctx context.Context) error {
	select {
	case <-s.queue.drained():
		return nil
	case <-s.done:
		return s.lost()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// terminate releases the socket and wakes every waiter. The first cause wins.
func (s *Session) terminate(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.lossErr = cause
		conn, cancel := s.conn, s.cancel
		if conn == nil {
			s.state = StateDisconnected
		} else {
			s.state = StateDisconnecting
		}
		s.mu.Unlock()

		if conn == nil {
			// loops never started
			close(s.done)
			close(s.feed)
			close(s.finished)
			return
		}

		if !errors.Is(cause, ErrSessionClosed) {
			logging.Warn("Connection to hub lost",
				zap.String("session", s.id),
				zap.String("address", s.cfg.Address),
				zap.Error(cause))
		}

		cancel()
		if err := conn.Close(); err != nil {
			logging.Debug("Error closing hub connection", zap.String("session", s.id), zap.Error(err))
		}
		close(s.done)
	})
}

// supervise waits for both loops and finishes the state transition
func (s *Session) supervise(remoteAddr string) {
	s.wg.Wait()

	s.mu.Lock()
	s.state = StateDisconnected
	s.mu.Unlock()

	close(s.feed)
	logging.LogConnection(remoteAddr, "disconnected", zap.String("session", s.id))
	close(s.finished)
}

func (s *Session) readLoop(conn Conn) {
	defer s.wg.Done()

	framer := protocol.NewFramer()
	buf := make([]byte, protocol.MaxMessageLen)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			discarded := framer.Discarded()
			frames := framer.Feed(buf[:n])
			if framer.Discarded() > discarded {
				logging.LogRawBytes("resynchronised after garbage from "+conn.RemoteAddr(), buf[:n])
			}
			for _, frame := range frames {
				logging.LogMessage(conn.RemoteAddr(), logging.DirectionReceived, frame)
				msg, decodeErr := protocol.Decode(frame)
				if decodeErr != nil {
					logging.Debug("Dropping malformed frame",
						zap.String("session", s.id),
						zap.Error(decodeErr))
					continue
				}
				s.dispatch(msg)
			}
		}
		if err != nil {
			if isClosedConnError(err) {
				err = fmt.Errorf("hub closed the connection: %w", err)
			}
			s.terminate(err)
			return
		}
	}
}

func (s *Session) writeLoop(ctx context.Context, conn Conn) {
	defer s.wg.Done()

	for {
		msg, ok := s.queue.pop(ctx.Done())
		if !ok {
			return
		}

		frame := msg.Bytes()
		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			s.terminate(fmt.Errorf("set write deadline: %w", err))
			return
		}
		if err := conn.WriteFrame(frame); err != nil {
			s.terminate(fmt.Errorf("write %s: %w", msg.Command, err))
			return
		}
		logging.LogMessage(conn.RemoteAddr(), logging.DirectionSent, frame)
		s.queue.sent()
	}
}

// dispatch applies one inbound message to the event state
func (s *Session) dispatch(msg protocol.Message) {
	ev := Event{Message: msg, ReceivedAt: time.Now()}

	switch msg.Command {
	case protocol.CmdButtons:
		ev.Buttons = DecodeButtons(parseMask(msg.Param(0)))
		s.events.recordReported(ev.Buttons)
		logging.Debug("Buttons reported",
			zap.String("session", s.id),
			zap.String("buttons", ev.Buttons.String()))

	case protocol.CmdButtonEvent:
		ev.Buttons = DecodeButtons(parseMask(msg.Param(0)))
		if s.events.deliverPress(ev.Buttons) {
			logging.Debug("Button press delivered",
				zap.String("session", s.id),
				zap.String("buttons", ev.Buttons.String()))
		} else {
			logging.Debug("Button press with no waiter",
				zap.String("session", s.id),
				zap.String("buttons", ev.Buttons.String()))
		}

	case protocol.CmdOK:
		switch msg.Param(0) {
		case protocol.AckTaken:
			s.resolveDispense(DispenseTaken)
		case protocol.AckNotTaken:
			s.resolveDispense(DispenseNotTaken)
		default:
			logging.Debug("Hub acknowledged", zap.String("session", s.id), zap.Strings("params", msg.Params))
		}

	case protocol.CmdError:
		s.resolveDispense(DispenseError)

	default:
		logging.Debug("Ignoring hub message", zap.String("session", s.id), zap.String("command", msg.Command))
	}

	select {
	case s.feed <- ev:
	default:
	}
}

func (s *Session) resolveDispense(status DispenseStatus) {
	if !s.events.resolveDispense(status) {
		logging.Debug("Dispense ack with no dispense outstanding",
			zap.String("session", s.id),
			zap.Stringer("status", status))
		return
	}
	logging.Debug("Dispense resolved", zap.String("session", s.id), zap.Stringer("status", status))
}

// enqueue queues msg for the writer. It never blocks.
func (s *Session) enqueue(msg protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected {
		return NewNotConnectedError(s.state)
	}
	s.queue.push(msg)
	return nil
}

// lost builds the error returned to a waiter woken by the session ending
func (s *Session) lost() error {
	return NewConnectionLostError(s.Err())
}

func isClosedConnError(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
