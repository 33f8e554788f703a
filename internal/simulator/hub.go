package simulator

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/logging"
	"github.com/muurk/controlpet/internal/protocol"
)

// Outcome is how a simulated dispense resolves
type Outcome string

const (
	OutcomeTaken    Outcome = "taken"
	OutcomeNotTaken Outcome = "not_taken"
	OutcomeError    Outcome = "error"
)

// Valid reports whether o is a known outcome
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeTaken, OutcomeNotTaken, OutcomeError:
		return true
	}
	return false
}

// Light is the brightness of one light's two channels (0-100)
type Light struct {
	Yellow int
	Blue   int
}

// hubState is the simulated device: lights, accumulated presses and the
// dispenser.
type hubState struct {
	mu            sync.Mutex
	lights        [4]Light
	pressed       int
	lastEvent     map[int]time.Time
	debounce      time.Duration
	outcome       Outcome
	dispenseDelay time.Duration
	sounds        []string
}

func newHubState(outcome Outcome, debounce time.Duration) *hubState {
	return &hubState{
		outcome:   outcome,
		debounce:  debounce,
		lastEvent: make(map[int]time.Time),
	}
}

var okReply = protocol.Message{Command: protocol.CmdOK}

// apply executes one command and returns the replies to send back
func (h *hubState) apply(ctx context.Context, msg protocol.Message) []protocol.Message {
	switch msg.Command {
	case protocol.CmdDispense:
		return h.dispense(ctx)

	case protocol.CmdButtons:
		h.mu.Lock()
		mask := h.pressed
		h.pressed = 0
		h.mu.Unlock()
		return []protocol.Message{{Command: protocol.CmdButtons, Params: []string{strconv.Itoa(mask), ""}}}

	case protocol.CmdPlayAudio:
		sound := msg.Param(0)
		h.mu.Lock()
		h.sounds = append(h.sounds, sound)
		h.mu.Unlock()
		logging.Debug("Playing sound", zap.String("sound", sound))
		return []protocol.Message{okReply}

	case protocol.CmdLight:
		idx, err := strconv.Atoi(msg.Param(0))
		if err != nil || idx < 0 || idx >= len(h.lights) {
			logging.Debug("Light index out of range", zap.String("index", msg.Param(0)))
			return []protocol.Message{okReply}
		}
		light := Light{Yellow: channel(msg.Param(1)), Blue: channel(msg.Param(2))}
		h.mu.Lock()
		h.lights[idx] = light
		h.mu.Unlock()
		return []protocol.Message{okReply}

	case protocol.CmdReinitialize:
		h.reinitialize()
		return []protocol.Message{okReply}

	default:
		logging.Debug("Unknown command", zap.String("command", msg.Command))
		return nil
	}
}

// dispense presents the tray, waits for the simulated pet and reports
func (h *hubState) dispense(ctx context.Context) []protocol.Message {
	h.mu.Lock()
	delay, outcome := h.dispenseDelay, h.outcome
	h.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil
		}
	}

	switch outcome {
	case OutcomeError:
		return []protocol.Message{{Command: protocol.CmdError}}
	case OutcomeNotTaken:
		h.reinitialize()
		return []protocol.Message{{Command: protocol.CmdOK, Params: []string{protocol.AckNotTaken, ""}}}
	default:
		h.reinitialize()
		return []protocol.Message{{Command: protocol.CmdOK, Params: []string{protocol.AckTaken, ""}}}
	}
}

func (h *hubState) reinitialize() {
	h.mu.Lock()
	h.lights = [4]Light{}
	h.mu.Unlock()
}

// press records touched pads and returns the button event to send, unless
// the same pads produced an event within the debounce interval.
func (h *hubState) press(mask int, now time.Time) (protocol.Message, bool) {
	mask &= 7
	if mask == 0 {
		return protocol.Message{}, false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.pressed |= mask
	if last, ok := h.lastEvent[mask]; ok && h.debounce > 0 && now.Sub(last) < h.debounce {
		return protocol.Message{}, false
	}
	h.lastEvent[mask] = now

	return protocol.Message{Command: protocol.CmdButtonEvent, Params: []string{strconv.Itoa(mask), ""}}, true
}

func (h *hubState) setOutcome(o Outcome) {
	h.mu.Lock()
	h.outcome = o
	h.mu.Unlock()
}

func (h *hubState) setDispenseDelay(d time.Duration) {
	h.mu.Lock()
	h.dispenseDelay = d
	h.mu.Unlock()
}

func (h *hubState) lightsSnapshot() [4]Light {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lights
}

func (h *hubState) soundsSnapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.sounds...)
}

// channel parses a brightness value the way the firmware does: non-numbers
// are 0 and the result is clamped to [0,100].
func channel(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return max(0, min(100, v))
}
