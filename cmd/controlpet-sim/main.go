// Controlpet-sim is a simulated ControlPet hub.
//
// It speaks the hub control protocol over TCP, WebSocket and UDP, shouts its
// presence to the discovery port every few seconds, and optionally registers
// the firmware's mDNS services. Touchpad presses can be typed on stdin.
//
// Usage:
//
//	controlpet-sim [flags]
//
// See 'controlpet-sim --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/controlpet/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "controlpet-sim",
	Short: "Simulated ControlPet hub",
	Long: `A simulated ControlPet hub for developing and testing games without hardware.

The simulator accepts control connections on the hub's TCP port (4889) and
WebSocket port (4890), answers commands the way the firmware does, and
announces itself with "@shout:<id>:;" datagrams on UDP port 4888 so that
'controlpet discover' finds it.

With --press-stdin, each line typed on stdin presses touchpads, for example
"left", "middle+right" or "2".`,
	Example: `  # Start a simulated hub on the standard ports
  controlpet-sim

  # The pet never takes the treat, and takes 3 seconds to decide
  controlpet-sim --outcome not_taken --dispense-delay 3s

  # Register mDNS services and type presses on stdin
  controlpet-sim --mdns --press-stdin

  # Record all traffic for later replay
  controlpet-sim --capture-dir ./captures`,
	Version: version.Version,
	Args:    cobra.NoArgs,
	RunE:    runSimulator,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("controlpet-sim %s (commit: %s)\n", version.Version, version.Commit)
	},
}
