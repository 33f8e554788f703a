package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/discovery"
	"github.com/muurk/controlpet/internal/hub"
	"github.com/muurk/controlpet/internal/logging"
	"github.com/muurk/controlpet/internal/simulator"
)

// Simulator flags
var (
	host          string
	controlPort   int
	wsPort        int
	deviceID      string
	shoutAddr     string
	shoutInterval time.Duration
	advertise     bool
	dispenseDelay time.Duration
	outcome       string
	debounce      time.Duration
	logLevel      string
	captureDir    string
	pressStdin    bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVar(&host, "host", "", "Address to listen on (empty = all interfaces)")
	f.IntVar(&controlPort, "port", discovery.DefaultControlPort, "TCP control port")
	f.IntVar(&wsPort, "ws-port", discovery.DefaultWebSocketPort, "WebSocket port (-1 disables)")
	f.StringVar(&deviceID, "device-id", "", "Device id to announce (random if empty)")
	f.StringVar(&shoutAddr, "shout", fmt.Sprintf("255.255.255.255:%d", discovery.DefaultShoutPort), "Where to send shouts (empty disables)")
	f.DurationVar(&shoutInterval, "shout-interval", 5*time.Second, "Time between shouts")
	f.BoolVar(&advertise, "mdns", false, "Register the _controlpet._tcp and _websocket._tcp mDNS services")
	f.DurationVar(&dispenseDelay, "dispense-delay", time.Second, "Time before a dispense is acknowledged")
	f.StringVar(&outcome, "outcome", string(simulator.OutcomeTaken), "Dispense outcome (taken, not_taken, error)")
	f.DurationVar(&debounce, "debounce", 0, "Minimum time between events for the same touchpads")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringVar(&captureDir, "capture-dir", "", "Directory to write JSONL traffic captures (disabled if not specified)")
	f.BoolVar(&pressStdin, "press-stdin", false, "Read touchpad presses from stdin")
}

func runSimulator(cmd *cobra.Command, args []string) error {
	if captureDir != "" {
		info, err := os.Stat(captureDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("capture directory does not exist: %s", captureDir)
		}
		if err != nil {
			return fmt.Errorf("cannot access capture directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("capture path is not a directory: %s", captureDir)
		}
	}

	sim, err := simulator.New(&simulator.Config{
		Host:            host,
		ControlPort:     controlPort,
		WebSocketPort:   wsPort,
		DeviceID:        deviceID,
		ShoutAddr:       shoutAddr,
		ShoutInterval:   shoutInterval,
		Advertise:       advertise,
		DispenseDelay:   dispenseDelay,
		DispenseOutcome: simulator.Outcome(outcome),
		Debounce:        debounce,
		LogLevel:        logLevel,
		CaptureDir:      captureDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create simulator: %w", err)
	}
	defer logging.Sync()

	if !pressStdin {
		return sim.Start()
	}

	if err := sim.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go readPresses(ctx, os.Stdin, sim)
	return sim.Serve(ctx)
}

// readPresses turns each stdin line into a touchpad press
func readPresses(ctx context.Context, r io.Reader, sim *simulator.Server) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if handled, err := applySetting(line, sim); handled {
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
			}
			continue
		}

		mask, err := parsePress(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		logging.Info("Pressing touchpads", zap.String("pads", hub.DecodeButtons(mask).String()))
		sim.PressButtons(mask)
	}
}

// applySetting handles "outcome <taken|not_taken|error>" and
// "delay <duration>" lines. It reports whether line was a setting.
func applySetting(line string, sim *simulator.Server) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "outcome":
		o := simulator.Outcome(strings.ToLower(fields[1]))
		if !o.Valid() {
			return true, fmt.Errorf("unknown outcome %q (use taken, not_taken or error)", fields[1])
		}
		sim.SetDispenseOutcome(o)
		logging.Info("Dispense outcome changed", zap.String("outcome", string(o)))
		return true, nil
	case "delay":
		d, err := time.ParseDuration(fields[1])
		if err != nil || d < 0 {
			return true, fmt.Errorf("invalid delay %q", fields[1])
		}
		sim.SetDispenseDelay(d)
		logging.Info("Dispense delay changed", zap.Duration("delay", d))
		return true, nil
	}
	return false, nil
}

// parsePress converts "left+right" or "0 2" into a button mask
func parsePress(line string) (int, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})

	var state hub.ButtonState
	for _, f := range fields {
		b, err := hub.ParseButton(f)
		if err != nil {
			return 0, err
		}
		if b == hub.LightCue {
			return 0, fmt.Errorf("the cue light is not a touchpad")
		}
		state[b] = true
	}
	if !state.Any() {
		return 0, fmt.Errorf("no touchpads in %q", line)
	}
	return state.Mask(), nil
}
