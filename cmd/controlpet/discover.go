package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/controlpet/internal/config"
	"github.com/muurk/controlpet/internal/discovery"
	"github.com/muurk/controlpet/internal/ui"
)

var (
	discoverTimeout int
	scanName        string
)

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(hubsCmd)
	hubsCmd.AddCommand(hubsRenameCmd)

	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 0, "Seconds to listen (default from config)")
	scanCmd.Flags().IntVar(&discoverTimeout, "timeout", 0, "Seconds to browse (default from config)")
	scanCmd.Flags().StringVar(&scanName, "name", "", "Stop as soon as the hub with this name answers")
}

// discoveryTroubleshooting is shown when no hub answers
var discoveryTroubleshooting = []string{
	"Check the hub is powered on and its status light is steady",
	"Make sure this computer is on the same network as the hub",
	fmt.Sprintf("Allow incoming UDP on port %d through the firewall", discovery.DefaultShoutPort),
	"Connect directly with --hub <ip> if the hub's address is known",
}

// discoverCmd waits for a hub's shout broadcast
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Listen for a hub announcing itself on the local network",
	Long: fmt.Sprintf(`Listen for a hub's UDP announcement on port %d.

Hubs broadcast a shout message every few seconds. The first hub heard is
reported and remembered in the config file so later commands can refer to
it by name.`, discovery.DefaultShoutPort),
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	timeout := lookupTimeout(reg)

	p := ui.NewPrinter(nil)
	p.PrintHeader("Hub Discovery", "controlpet discover",
		ui.D("Method", "UDP broadcast"),
		ui.D("Port", fmt.Sprintf("%d", discovery.DefaultShoutPort)),
		ui.D("Timeout", timeout.String()),
	)

	h, err := discovery.Discover(cmd.Context(), timeout)
	if err != nil {
		p.PrintError("Discovery failed", err, discoveryTroubleshooting)
		return err
	}
	if h == nil {
		p.PrintError("No hub found", nil, discoveryTroubleshooting)
		return fmt.Errorf("no hub announced itself within %s", timeout)
	}

	remember(reg, h)
	saveRegistry(reg)
	p.PrintSuccess("Hub found", ui.HubDetails(h)...)
	return nil
}

// scanCmd browses mDNS for every advertised hub
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List hubs advertised over mDNS",
	Long: `Browse for hubs that advertise the ControlPet service over mDNS.

Unlike discover, scan collects every hub that answers within the timeout.
All of them are remembered in the config file. With --name, scan stops as
soon as that hub answers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		timeout := lookupTimeout(reg)

		fmt.Printf("Browsing for hubs (timeout: %s)...\n\n", timeout)

		var hubs []*discovery.Hub
		if scanName != "" {
			scanner := discovery.NewScanner()
			scanner.Timeout = timeout
			h, err := scanner.WaitForHub(cmd.Context(), scanName)
			if err != nil {
				return err
			}
			hubs = []*discovery.Hub{h}
		} else {
			hubs, err = discovery.ScanForHubs(cmd.Context(), timeout)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
		}

		for _, h := range hubs {
			remember(reg, h)
		}
		if len(hubs) > 0 {
			saveRegistry(reg)
		}

		ui.NewPrinter(nil).PrintHubs(hubs)
		return nil
	},
}

func lookupTimeout(reg *config.Registry) time.Duration {
	if discoverTimeout > 0 {
		return time.Duration(discoverTimeout) * time.Second
	}
	return reg.Preferences.DiscoverTimeoutDuration()
}

// hubsCmd lists remembered hubs
var hubsCmd = &cobra.Command{
	Use:   "hubs",
	Short: "List hubs remembered in the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if len(reg.Hubs) == 0 {
			fmt.Println("No hubs remembered yet. Run 'controlpet discover' to find one.")
			return nil
		}

		p := ui.NewPrinter(nil)
		for _, name := range sortedHubNames(reg) {
			p.Println(formatHubRecord(name, reg.Hubs[name]))
		}
		return nil
	},
}

var hubsRenameCmd = &cobra.Command{
	Use:   "rename <name> <nickname>",
	Short: "Give a remembered hub a nickname",
	Example: `  controlpet hubs rename cp-a1b2c3 kitchen
  controlpet light left white --hub kitchen`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		name, rec := reg.FindHub(args[0])
		if rec == nil {
			return fmt.Errorf("no hub named %q in the config file", args[0])
		}
		if other, _ := reg.FindHub(args[1]); other != "" && other != name {
			return fmt.Errorf("nickname %q is already used by %s", args[1], other)
		}

		reg.SetHubNickname(name, args[1])
		if err := config.SaveGlobal(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("✓ %s is now known as %s\n", name, args[1])
		return nil
	},
}

func sortedHubNames(reg *config.Registry) []string {
	names := make([]string, 0, len(reg.Hubs))
	for name := range reg.Hubs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatHubRecord(name string, rec *config.HubRecord) string {
	label := name
	if rec.Nickname != "" {
		label = fmt.Sprintf("%s (%s)", rec.Nickname, name)
	}

	addr := rec.Address(discovery.DefaultControlPort)
	if addr == "" {
		addr = "never seen"
	}

	line := fmt.Sprintf("%s  %s", label, addr)
	if rec.Transport != "" {
		line += "  " + rec.Transport
	}
	if !rec.LastSeen.IsZero() {
		line += "  last seen " + rec.LastSeen.Format(time.DateTime)
	}
	return line
}
