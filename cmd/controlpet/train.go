package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/controlpet/internal/config"
	"github.com/muurk/controlpet/internal/game"
	"github.com/muurk/controlpet/internal/hub"
	"github.com/muurk/controlpet/internal/ui"
)

// Train command flags
var (
	trainRounds    int
	trainWindow    int
	trainTarget    string
	trainColor     string
	trainIntensity int
)

func init() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(monitorCmd)

	trainCmd.Flags().IntVar(&trainRounds, "rounds", 0, "Number of rounds (default from config)")
	trainCmd.Flags().IntVar(&trainWindow, "window", 0, "Seconds to wait for a press each round (default from config)")
	trainCmd.Flags().StringVar(&trainTarget, "target", "", "Pad to light: left, middle or right (default from config)")
	trainCmd.Flags().StringVar(&trainColor, "color", "", "Target light color (default from config)")
	trainCmd.Flags().IntVar(&trainIntensity, "intensity", 100, "Target light intensity in percent")
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run a lit-target training session",
	Long: `Run a simple training session.

Each round lights the target pad and waits for a press. A press on the
target plays the positive sound and dispenses a treat; a press elsewhere
or no press at all plays the negative sound.`,
	Example: `  # Ten rounds on the left pad using config defaults
  controlpet train

  # Five quick rounds on the right pad in blue
  controlpet train --rounds 5 --window 10 --target right --color blue`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := trainingConfig(reg.Preferences.Training)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	p := ui.NewPrinter(nil)
	p.PrintHeader("Training Session", "controlpet train",
		ui.D("Hub", s.address()),
		ui.D("Rounds", fmt.Sprintf("%d", cfg.Rounds)),
		ui.D("Target", fmt.Sprintf("%s (%s)", cfg.Target, cfg.Color)),
		ui.D("Window", cfg.ResponseWindow.String()),
	)

	board := ui.NewRoundBoard("", cfg.Rounds)
	trainer := game.NewTrainer(s.client, cfg)
	board.Start(1)
	trainer.OnRound = func(r game.RoundResult) {
		board.Record(r)
		p.Println(board.RenderRound(r.Round))
		board.Start(r.Round + 1)
	}

	summary, err := trainer.Run(cmd.Context())
	p.Newline()
	p.Println(board.RenderBar())
	p.Newline()

	details := []ui.Detail{
		ui.D("Rounds played", fmt.Sprintf("%d of %d", len(summary.Results), cfg.Rounds)),
		ui.D("Correct", fmt.Sprintf("%d", summary.Correct)),
		ui.D("Treats taken", fmt.Sprintf("%d", summary.Taken)),
	}
	if err != nil {
		p.PrintError("Training stopped", err, nil)
		return err
	}
	p.PrintSuccess("Training complete", details...)
	return nil
}

// trainingConfig merges flags over the configured training defaults
func trainingConfig(prefs *config.TrainingPrefs) (game.Config, error) {
	cfg := game.DefaultConfig()
	cfg.Intensity = trainIntensity

	rounds, window, target, color := trainRounds, trainWindow, trainTarget, trainColor
	if prefs != nil {
		if rounds == 0 {
			rounds = prefs.Rounds
		}
		if window == 0 {
			window = prefs.ResponseWindow
		}
		if target == "" {
			target = prefs.Target
		}
		if color == "" {
			color = prefs.Color
		}
	}

	if rounds != 0 {
		cfg.Rounds = rounds
	}
	if window != 0 {
		cfg.ResponseWindow = time.Duration(window) * time.Second
	}
	if target != "" {
		b, err := hub.ParseButton(target)
		if err != nil {
			return cfg, err
		}
		cfg.Target = b
	}
	if color != "" {
		c, err := parseColorArg(color)
		if err != nil {
			return cfg, err
		}
		cfg.Color = c
	}
	return cfg, nil
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive view of a live hub connection",
	Long: `Open a full screen view of a hub connection.

Shows the touchpads, the last reported presses and every message the hub
sends. Keys drive the lights, sounds and dispenser; press ? for help.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsTerminal() {
			return fmt.Errorf("monitor needs an interactive terminal")
		}

		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.close(cmd.Context())

		return ui.RunMonitor(cmd.Context(), s.client, s.address())
	},
}
