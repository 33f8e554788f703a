package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/controlpet/internal/hub"
	"github.com/muurk/controlpet/internal/protocol"
	"github.com/muurk/controlpet/internal/ui"
)

// Hub command flags
var (
	waitTimeout   int
	buttonsSettle time.Duration
)

func init() {
	rootCmd.AddCommand(lightCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(roundCmd)
	rootCmd.AddCommand(soundCmd)
	rootCmd.AddCommand(dispenseCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(buttonsCmd)
}

// lightCmd sets one light
var lightCmd = &cobra.Command{
	Use:   "light <button> <color> [intensity]",
	Short: "Set a touchpad or cue light",
	Long: `Set one of the hub's lights.

Buttons are left, middle, right or cue (or 0-3). Colors are off, yellow,
blue and white. Intensity is a percentage (default 100) scaled by the
max_brightness preference.`,
	Example: `  # Light the left pad white
  controlpet light left white

  # Dim blue cue light
  controlpet light cue blue 30 --hub 192.168.0.136`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runLight,
}

func runLight(cmd *cobra.Command, args []string) error {
	button, err := hub.ParseButton(args[0])
	if err != nil {
		return err
	}
	color, err := parseColorArg(args[1])
	if err != nil {
		return err
	}

	intensity := 100
	if len(args) == 3 {
		intensity, err = strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid intensity %q: %w", args[2], err)
		}
	}

	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	if err := s.client.SetButtonLight(button, color, intensity); err != nil {
		return err
	}
	fmt.Printf("✓ %s light set to %s at %d%%\n", button, color, max(0, min(intensity, 100)))
	return nil
}

// parseColorArg rejects names the hub would silently treat as off
func parseColorArg(s string) (hub.Color, error) {
	c := hub.ParseColor(s)
	switch c {
	case hub.ColorOff, hub.ColorYellow, hub.ColorBlue, hub.ColorWhite:
		return c, nil
	}
	return "", fmt.Errorf("unknown color %q (use off, yellow, blue or white)", s)
}

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Turn all touchpad lights off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.close(cmd.Context())

		if err := s.client.AllButtonsOff(); err != nil {
			return err
		}
		fmt.Println("✓ Lights off")
		return nil
	},
}

var roundCmd = &cobra.Command{
	Use:   "round",
	Short: "Start a new round (reset the hub's lights and state)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.close(cmd.Context())

		if err := s.client.StartNewRound(); err != nil {
			return err
		}
		fmt.Println("✓ New round started")
		return nil
	},
}

var soundCmd = &cobra.Command{
	Use:   "sound <name>",
	Short: "Play a sound on the hub",
	Long: fmt.Sprintf(`Play one of the hub's built-in sounds.

Known sounds: %s.`, strings.Join(hub.Sounds, ", ")),
	Example: `  controlpet sound positive
  controlpet sound entice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.close(cmd.Context())

		if err := s.client.PlaySound(args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Playing %s\n", args[0])
		return nil
	},
}

var dispenseCmd = &cobra.Command{
	Use:   "dispense",
	Short: "Dispense a treat and report whether it was taken",
	Long: `Present a treat and wait for the hub to report the outcome.

The hub answers once the pet has taken the treat or the tray has closed
again. The wait is bounded by the dispense_timeout preference.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.close(cmd.Context())

		start := time.Now()
		taken, err := s.client.Dispense(cmd.Context())
		if err != nil {
			return fmt.Errorf("dispense failed: %w", err)
		}

		p := ui.NewPrinter(nil)
		details := []ui.Detail{
			ui.D("Hub", s.address()),
			ui.D("Elapsed", time.Since(start).Round(100*time.Millisecond).String()),
		}
		if taken {
			p.PrintSuccess("Treat taken", details...)
		} else {
			p.PrintWarning("Treat not taken", details...)
		}
		return nil
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a touchpad press",
	Example: `  # Wait up to 20 seconds (default)
  controlpet wait

  # Wait up to a minute
  controlpet wait --timeout 60`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.close(cmd.Context())

		timeout := time.Duration(waitTimeout) * time.Second
		fmt.Printf("Waiting for a press (timeout: %s)...\n", timeout)

		pressed, err := s.client.WaitForButtonPress(cmd.Context(), timeout)
		if err != nil {
			return err
		}
		if !pressed.Any() {
			fmt.Println("No press")
			return nil
		}
		fmt.Printf("Pressed: %s\n", ui.RenderButtons(pressed))
		return nil
	},
}

var buttonsCmd = &cobra.Command{
	Use:   "buttons",
	Short: "Ask the hub which touchpads were pressed since the last query",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.close(cmd.Context())

		if err := s.client.RequestButtons(); err != nil {
			return err
		}

		deadline := time.After(buttonsSettle)
		for {
			select {
			case ev, ok := <-s.client.Events():
				if !ok {
					return s.client.Session().Err()
				}
				if ev.Message.Command == protocol.CmdButtons {
					fmt.Printf("Pressed since last query: %s\n", ui.RenderButtons(ev.Buttons))
					return nil
				}
			case <-deadline:
				return fmt.Errorf("hub did not report its buttons within %s", buttonsSettle)
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		}
	},
}

func init() {
	waitCmd.Flags().IntVar(&waitTimeout, "timeout", 20, "Seconds to wait for a press")
	buttonsCmd.Flags().DurationVar(&buttonsSettle, "timeout", 3*time.Second, "How long to wait for the hub's answer")
}
