// Controlpet-sounds plays sounds on behalf of games running on a hub.
//
// Games send "@[<timestamp>][play]<<name>>" datagrams to a UDP port; this
// tool maps each name to a sound file from the config registry and plays it
// with a command line audio player. Repeats of the same timestamp are played
// once.
//
// Usage:
//
//	controlpet-sounds <port> [flags]
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/controlpet/internal/config"
	"github.com/muurk/controlpet/internal/logging"
	"github.com/muurk/controlpet/internal/soundtrigger"
	"github.com/muurk/controlpet/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	listenHost string
	soundsDir  string
	playerCmd  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "controlpet-sounds <port>",
	Short: "Play sounds requested by hub games",
	Long: `Listen on a UDP port and play the sound named in each play message.

Sound names map to files through the "sounds" section of the controlpet
config file; relative paths are resolved against "sounds_dir". The default
map covers blue, green, red, white, yellow, one, two and three.`,
	Example: `  # Listen on port 5000 using the configured sounds
  controlpet-sounds 5000

  # Use a different sound directory and player, and show every message
  controlpet-sounds 5000 --sounds-dir ~/pet-sounds --player paplay -v`,
	Version: version.Version,
	Args:    cobra.ExactArgs(1),
	RunE:    runSounds,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&listenHost, "host", "", "Address to listen on (empty = all interfaces)")
	rootCmd.Flags().StringVar(&soundsDir, "sounds-dir", "", "Directory holding sound files (overrides config)")
	rootCmd.Flags().StringVar(&playerCmd, "player", "", "Audio player command (default depends on OS)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every received message")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("controlpet-sounds %s (commit: %s)\n", version.Version, version.Commit)
	},
}

func runSounds(cmd *cobra.Command, args []string) error {
	port, err := strconv.Atoi(args[0])
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", args[0])
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	defer logging.Sync()

	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	prefs := reg.Preferences
	if soundsDir != "" {
		prefs.SoundsDir = soundsDir
	}

	listener, err := soundtrigger.Listen(
		net.JoinHostPort(listenHost, strconv.Itoa(port)),
		prefs.SoundPath,
		soundtrigger.NewCommandPlayer(playerCmd),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return listener.Serve(ctx)
}
