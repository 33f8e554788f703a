// Controlpet drives a ControlPet hub from the command line.
//
// It finds hubs on the local network, sends single commands (lights,
// sounds, treats), waits for touchpad presses, runs training sessions and
// provides an interactive monitor of a live hub connection.
//
// Usage:
//
//	controlpet [command] [flags]
//
// See 'controlpet --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/controlpet/internal/discovery"
	"github.com/muurk/controlpet/internal/logging"
	"github.com/muurk/controlpet/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	hubRef    string
	hubPort   int
	transport string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "controlpet",
	Short: "ControlPet hub control utility",
	Long: `A command line utility for ControlPet hubs.

Finds hubs on the local network, lights touchpads, plays sounds, dispenses
treats, waits for presses and runs simple training sessions.

Hubs are found automatically by listening for their UDP announcements unless
--hub names one. Hubs that have been seen before are remembered in the config
file and can be referred to by name or nickname.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&hubRef, "hub", "", "Hub address, name or nickname (skips discovery)")
	pf.IntVar(&hubPort, "port", discovery.DefaultControlPort, "Hub control port")
	pf.StringVar(&transport, "transport", "", "Connection transport: tcp or websocket (default from config)")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $CONTROLPET_LOG_LEVEL")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("controlpet %s (commit: %s)\n", version.Version, version.Commit)
	},
}
