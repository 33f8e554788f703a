package hub

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/logging"
	"github.com/muurk/controlpet/internal/protocol"
)

// Sound names known to the hub firmware
const (
	SoundEntice   = "entice"
	SoundPositive = "positive"
	SoundNegative = "negative"
	SoundDo       = "do"
	SoundClick    = "click"
	SoundSqueak   = "squeak"
	SoundLeft     = "left"
	SoundMiddle   = "middle"
	SoundRight    = "right"
)

// Sounds lists every sound name the firmware plays
var Sounds = []string{
	SoundEntice, SoundPositive, SoundNegative, SoundDo, SoundClick,
	SoundSqueak, SoundLeft, SoundMiddle, SoundRight,
}

// Client is the control API for one hub. All commands are queued and sent
// in order by the session's writer; WaitForButtonPress and Dispense block
// until the hub answers.
type Client struct {
	session         *Session
	maxBrightness   int
	dispenseTimeout time.Duration
}

// NewClient creates a client for the hub described by cfg. Call Connect
// before sending commands.
func NewClient(cfg Config) *Client {
	s := NewSession(cfg)
	return &Client{
		session:         s,
		maxBrightness:   s.cfg.MaxBrightness,
		dispenseTimeout: s.cfg.DispenseTimeout,
	}
}

// Connect opens the session to the hub
func (c *Client) Connect(ctx context.Context) error {
	return c.session.Connect(ctx)
}

// Close disconnects from the hub
func (c *Client) Close() error {
	return c.session.Disconnect()
}

// Flush waits until every queued command has been written to the hub
func (c *Client) Flush(ctx context.Context) error {
	return c.session.Flush(ctx)
}

// Session returns the underlying session
func (c *Client) Session() *Session {
	return c.session
}

// Events returns decoded inbound messages, see Session.Events
func (c *Client) Events() <-chan Event {
	return c.session.Events()
}

// SetButtonLight sets the light at button to color at intensity percent
func (c *Client) SetButtonLight(button Button, color Color, intensity int) error {
	if !button.Valid() {
		return NewInvalidArgumentError(fmt.Sprintf("button index %d out of range 0-3", int(button)))
	}

	yellow, blue := ChannelLevels(color, intensity, c.maxBrightness)
	logging.Debug("Setting light",
		zap.Stringer("button", button),
		zap.String("color", string(color)),
		zap.Int("yellow", yellow),
		zap.Int("blue", blue))

	return c.session.enqueue(protocol.BuildLight(int(button), yellow, blue))
}

// SetButtonLightByName is SetButtonLight with a numeric or symbolic button id
func (c *Client) SetButtonLightByName(id string, color Color, intensity int) error {
	button, err := ParseButton(id)
	if err != nil {
		return err
	}
	return c.SetButtonLight(button, color, intensity)
}

// AllButtonsOff turns off the three touchpad lights
func (c *Client) AllButtonsOff() error {
	for _, b := range Touchpads {
		if err := c.SetButtonLight(b, ColorOff, 0); err != nil {
			return err
		}
	}
	return nil
}

// StartNewRound asks the hub to reinitialize for a new round
func (c *Client) StartNewRound() error {
	return c.session.enqueue(protocol.BuildReinitialize())
}

// PlaySound asks the hub to play a named sound
func (c *Client) PlaySound(name string) error {
	msg, err := protocol.BuildPlayAudio(name)
	if err != nil {
		return NewInvalidArgumentError(fmt.Sprintf("invalid sound name %s", strconv.Quote(name)))
	}
	return c.session.enqueue(msg)
}

// PositiveSound plays the reward sound
func (c *Client) PositiveSound() error { return c.PlaySound(SoundPositive) }

// NegativeSound plays the miss sound
func (c *Client) NegativeSound() error { return c.PlaySound(SoundNegative) }

// EnticeSound plays the attention sound
func (c *Client) EnticeSound() error { return c.PlaySound(SoundEntice) }

func (c *Client) DoSound() error     { return c.PlaySound(SoundDo) }
func (c *Client) ClickSound() error  { return c.PlaySound(SoundClick) }
func (c *Client) SqueakSound() error { return c.PlaySound(SoundSqueak) }

// RequestButtons asks the hub for the buttons pressed since the last query.
// The answer is available from LastReported once it arrives.
func (c *Client) RequestButtons() error {
	return c.session.enqueue(protocol.BuildButtonsQuery())
}

// LastReported returns the most recent answer to RequestButtons
func (c *Client) LastReported() ButtonState {
	return c.session.events.reported()
}

// LastPressed returns the state delivered to the most recent button wait
func (c *Client) LastPressed() ButtonState {
	return c.session.events.pressed()
}

// DispenseStatus returns the state of the outstanding dispense, if any
func (c *Client) DispenseStatus() DispenseStatus {
	return c.session.events.dispenseStatus()
}

// WaitForButtonPress blocks until the hub reports a button event or timeout
// elapses. On timeout it returns an all-false state and no error.
func (c *Client) WaitForButtonPress(ctx context.Context, timeout time.Duration) (ButtonState, error) {
	if state := c.session.State(); state != StateConnected {
		return ButtonState{}, NewNotConnectedError(state)
	}

	ch, err := c.session.events.armPressWait()
	if err != nil {
		return ButtonState{}, err
	}
	defer c.session.events.disarmPressWait(ch)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case b := <-ch:
		return b, nil
	case <-timer.C:
		logging.Debug("Button wait timed out", zap.Duration("timeout", timeout))
		return ButtonState{}, nil
	case <-ctx.Done():
		return ButtonState{}, ctx.Err()
	case <-c.session.Done():
		return ButtonState{}, c.session.lost()
	}
}

// Dispense asks the hub to present food and waits for the outcome. It
// reports true when the food was taken.
func (c *Client) Dispense(ctx context.Context) (bool, error) {
	if state := c.session.State(); state != StateConnected {
		return false, NewNotConnectedError(state)
	}

	ch, err := c.session.events.beginDispense()
	if err != nil {
		return false, err
	}
	defer c.session.events.endDispense()

	if err := c.session.enqueue(protocol.BuildDispense()); err != nil {
		return false, err
	}

	var timeout <-chan time.Time
	if c.dispenseTimeout > 0 {
		timer := time.NewTimer(c.dispenseTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case status := <-ch:
		logging.Info("Dispense finished", zap.Stringer("status", status))
		return status == DispenseTaken, nil
	case <-timeout:
		return false, NewTimeoutError(fmt.Sprintf("no dispense ack within %s", c.dispenseTimeout))
	case <-ctx.Done():
		return false, ctx.Err()
	case <-c.session.Done():
		return false, c.session.lost()
	}
}
