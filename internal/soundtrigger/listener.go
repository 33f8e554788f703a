package soundtrigger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/logging"
)

const maxDatagramSize = 1024

// Resolver maps a sound name to a file path. config.Preferences.SoundPath
// satisfies it.
type Resolver func(name string) (string, bool)

// Action describes what Handle did with a datagram
type Action int

const (
	ActionIgnored     Action = iota // not a control message
	ActionMalformed                 // control message that did not parse
	ActionDuplicate                 // timestamp repeated from the last trigger
	ActionUnsupported               // command other than play
	ActionUnknownSound              // play of a name with no mapped file
	ActionPlayed                    // sound handed to the player
)

func (a Action) String() string {
	switch a {
	case ActionIgnored:
		return "ignored"
	case ActionMalformed:
		return "malformed"
	case ActionDuplicate:
		return "duplicate"
	case ActionUnsupported:
		return "unsupported"
	case ActionUnknownSound:
		return "unknown_sound"
	case ActionPlayed:
		return "played"
	default:
		return "unknown"
	}
}

// Listener receives trigger datagrams and plays the matching sounds
type Listener struct {
	conn    net.PacketConn
	resolve Resolver
	player  Player

	mu     sync.Mutex
	lastTS string
	seen   bool
}

// NewListener creates a listener that is not bound to a socket. Use Handle to
// feed it datagrams directly.
func NewListener(resolve Resolver, player Player) *Listener {
	return &Listener{resolve: resolve, player: player}
}

// Listen binds a UDP socket on addr (e.g., ":5000")
func Listen(addr string, resolve Resolver, player Player) (*Listener, error) {
	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for sound triggers on %s: %w", addr, err)
	}
	l := NewListener(resolve, player)
	l.conn = conn
	return l, nil
}

// LocalAddr returns the bound address, or nil when not bound
func (l *Listener) LocalAddr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Serve reads datagrams until ctx is cancelled or the socket fails.
// Sounds are played one at a time in arrival order.
func (l *Listener) Serve(ctx context.Context) error {
	if l.conn == nil {
		return errors.New("listener is not bound")
	}

	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	logging.Info("Sound trigger listener started", zap.String("addr", l.conn.LocalAddr().String()))

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read sound trigger: %w", err)
		}

		logging.LogMessage(addr.String(), "received", buf[:n])
		l.Handle(ctx, buf[:n])
	}
}

// Handle processes one datagram and reports what was done with it
func (l *Listener) Handle(ctx context.Context, data []byte) Action {
	t, err := ParseTrigger(data)
	if errors.Is(err, ErrNotControl) {
		return ActionIgnored
	}
	if err != nil {
		logging.Debug("Could not parse control message", zap.Error(err))
		return ActionMalformed
	}

	if !l.markSeen(t.Timestamp) {
		return ActionDuplicate
	}

	if t.Command != CommandPlay {
		logging.Debug("Command not supported", zap.String("command", t.Command))
		return ActionUnsupported
	}

	path, ok := l.resolve(t.Param)
	if !ok {
		logging.Debug("No sound mapped", zap.String("sound", t.Param))
		return ActionUnknownSound
	}

	logging.Info("Playing sound", zap.String("sound", t.Param), zap.String("path", path))
	if err := l.player.Play(ctx, path); err != nil {
		logging.Warn("Failed to play sound", zap.String("sound", t.Param), zap.Error(err))
	}
	return ActionPlayed
}

// markSeen records ts and reports whether it differs from the previous one
func (l *Listener) markSeen(ts string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen && ts == l.lastTS {
		return false
	}
	l.lastTS = ts
	l.seen = true
	return true
}
