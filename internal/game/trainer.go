package game

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/hub"
	"github.com/muurk/controlpet/internal/logging"
)

// Controller is the part of the hub API a training session needs.
// *hub.Client implements it.
type Controller interface {
	StartNewRound() error
	AllButtonsOff() error
	SetButtonLight(button hub.Button, color hub.Color, intensity int) error
	WaitForButtonPress(ctx context.Context, timeout time.Duration) (hub.ButtonState, error)
	PositiveSound() error
	NegativeSound() error
	Dispense(ctx context.Context) (bool, error)
}

// Config describes a training session
type Config struct {
	Rounds         int
	ResponseWindow time.Duration
	Target         hub.Button
	Color          hub.Color
	Intensity      int
}

// DefaultConfig is ten rounds with the left pad lit white for 20 seconds
func DefaultConfig() Config {
	return Config{
		Rounds:         10,
		ResponseWindow: 20 * time.Second,
		Target:         hub.ButtonLeft,
		Color:          hub.ColorWhite,
		Intensity:      100,
	}
}

// Validate checks the session settings
func (c Config) Validate() error {
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	if c.ResponseWindow <= 0 {
		return fmt.Errorf("response window must be positive, got %s", c.ResponseWindow)
	}
	if c.Target < hub.ButtonLeft || c.Target > hub.ButtonRight {
		return fmt.Errorf("target must be a touchpad, got %s", c.Target)
	}
	return nil
}

// RoundResult is the outcome of one round
type RoundResult struct {
	Round     int
	Pressed   hub.ButtonState
	Correct   bool
	Dispensed bool
	Taken     bool
	Elapsed   time.Duration
}

// Summary totals a training session
type Summary struct {
	Results []RoundResult
	Correct int
	Taken   int
}

// Trainer runs lit-target training rounds: light the target pad, wait for a
// press, reward a press on the target with the positive sound and a treat,
// and answer anything else with the negative sound.
type Trainer struct {
	ctrl Controller
	cfg  Config

	// OnRound is called after every round, if set
	OnRound func(RoundResult)
}

// NewTrainer creates a trainer for ctrl
func NewTrainer(ctrl Controller, cfg Config) *Trainer {
	return &Trainer{ctrl: ctrl, cfg: cfg}
}

// Run plays every round. It stops early on the first hub error or when ctx
// is cancelled, returning the rounds completed so far.
func (t *Trainer) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if err := t.cfg.Validate(); err != nil {
		return summary, err
	}
	if err := t.ctrl.AllButtonsOff(); err != nil {
		return summary, fmt.Errorf("turn lights off: %w", err)
	}

	logging.Info("Training session starting",
		zap.Int("rounds", t.cfg.Rounds),
		zap.Stringer("target", t.cfg.Target),
		zap.Duration("window", t.cfg.ResponseWindow))

	for n := 1; n <= t.cfg.Rounds; n++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := t.PlayRound(ctx, n)
		if err != nil {
			return summary, fmt.Errorf("round %d: %w", n, err)
		}

		summary.Results = append(summary.Results, result)
		if result.Correct {
			summary.Correct++
		}
		if result.Taken {
			summary.Taken++
		}
		if t.OnRound != nil {
			t.OnRound(result)
		}
	}

	if err := t.ctrl.AllButtonsOff(); err != nil {
		return summary, fmt.Errorf("turn lights off: %w", err)
	}

	logging.Info("Training session finished",
		zap.Int("correct", summary.Correct),
		zap.Int("taken", summary.Taken))
	return summary, nil
}

// PlayRound plays a single round numbered n
func (t *Trainer) PlayRound(ctx context.Context, n int) (RoundResult, error) {
	result := RoundResult{Round: n}
	start := time.Now()

	if err := t.ctrl.StartNewRound(); err != nil {
		return result, err
	}
	if err := t.ctrl.SetButtonLight(t.cfg.Target, t.cfg.Color, t.cfg.Intensity); err != nil {
		return result, err
	}

	pressed, err := t.ctrl.WaitForButtonPress(ctx, t.cfg.ResponseWindow)
	if err != nil {
		return result, err
	}
	result.Pressed = pressed

	if err := t.ctrl.AllButtonsOff(); err != nil {
		return result, err
	}

	if pressed.Pressed(t.cfg.Target) {
		result.Correct = true
		if err := t.ctrl.PositiveSound(); err != nil {
			return result, err
		}
		taken, err := t.ctrl.Dispense(ctx)
		if err != nil {
			return result, err
		}
		result.Dispensed = true
		result.Taken = taken
	} else if err := t.ctrl.NegativeSound(); err != nil {
		return result, err
	}

	result.Elapsed = time.Since(start)
	logging.Debug("Round finished",
		zap.Int("round", n),
		zap.String("pressed", pressed.String()),
		zap.Bool("correct", result.Correct),
		zap.Bool("taken", result.Taken))
	return result, nil
}
