package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/config"
	"github.com/muurk/controlpet/internal/discovery"
	"github.com/muurk/controlpet/internal/hub"
	"github.com/muurk/controlpet/internal/logging"
)

// flushTimeout bounds how long one-shot commands wait for their messages to
// reach the hub before disconnecting
const flushTimeout = 5 * time.Second

// session is a connected hub plus the context it was resolved in
type session struct {
	client    *hub.Client
	hub       *discovery.Hub
	transport string
	registry  *config.Registry
}

func (s *session) address() string {
	return s.client.Session().Address()
}

// close flushes queued commands and disconnects
func (s *session) close(ctx context.Context) {
	flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := s.client.Flush(flushCtx); err != nil {
		logging.Warn("Not every command reached the hub", zap.Error(err))
	}
	_ = s.client.Close()
}

// connect resolves the target hub, connects to it and records it in the
// registry
func connect(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()

	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	target, rec, err := resolveHub(ctx, reg)
	if err != nil {
		return nil, err
	}

	tr := chooseTransport(transport, rec, reg.Preferences.Transport)
	port := target.Port
	if tr == hub.TransportWebSocket && !cmd.Flags().Changed("port") && port == discovery.DefaultControlPort {
		port = discovery.DefaultWebSocketPort
	}

	prefs := reg.Preferences
	cfg := hub.DefaultConfig(net.JoinHostPort(target.IP, strconv.Itoa(port)))
	cfg.Transport = tr
	cfg.MaxBrightness = prefs.MaxBrightness
	cfg.DialTimeout = prefs.DialTimeoutDuration()
	cfg.DispenseTimeout = prefs.DispenseTimeoutDuration()

	client := hub.NewClient(cfg)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to hub at %s: %w", cfg.Address, err)
	}

	remember(reg, target)
	if rec := reg.GetHub(target.Name); rec != nil && transport != "" {
		rec.Transport = tr
	}
	saveRegistry(reg)

	return &session{client: client, hub: target, transport: tr, registry: reg}, nil
}

// resolveHub picks the hub to talk to: a registry entry or address given
// with --hub, or the first hub that announces itself.
func resolveHub(ctx context.Context, reg *config.Registry) (*discovery.Hub, *config.HubRecord, error) {
	if hubRef != "" {
		if name, rec := reg.FindHub(hubRef); rec != nil && rec.LastIP != "" {
			port := rec.LastPort
			if port == 0 || rootCmd.PersistentFlags().Changed("port") {
				port = hubPort
			}
			h := discovery.NewManualHub(rec.LastIP, port)
			h.Name = name
			return h, rec, nil
		}

		host, port, err := splitHubRef(hubRef, hubPort)
		if err != nil {
			return nil, nil, err
		}
		return discovery.NewManualHub(host, port), nil, nil
	}

	timeout := reg.Preferences.DiscoverTimeoutDuration()
	fmt.Printf("No hub specified, listening for hub announcements (timeout: %s)...\n", timeout)

	h, err := discovery.Discover(ctx, timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("discovery failed: %w", err)
	}
	if h == nil {
		return nil, nil, fmt.Errorf("no hub found. Use --hub to specify one")
	}

	fmt.Printf("Found hub %s at %s\n\n", h.Name, h.Address())
	return h, reg.GetHub(h.Name), nil
}

// splitHubRef accepts "host" or "host:port"
func splitHubRef(ref string, defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(ref)
	if err != nil {
		// no port given
		return ref, defaultPort, nil
	}
	if host == "" {
		return "", 0, fmt.Errorf("invalid hub address %q", ref)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in hub address %q", ref)
	}
	return host, port, nil
}

// chooseTransport returns the first transport set among the flag, the hub's
// record and the preferences
func chooseTransport(flag string, rec *config.HubRecord, pref string) string {
	switch {
	case flag == "ws":
		return hub.TransportWebSocket
	case flag != "":
		return flag
	case rec != nil && rec.Transport != "":
		return rec.Transport
	case pref != "":
		return pref
	default:
		return hub.TransportTCP
	}
}

// remember records a hub sighting in the registry
func remember(reg *config.Registry, h *discovery.Hub) {
	reg.UpdateHubLastSeen(h.Name, h.IP, h.Port, h.Source)
}

func saveRegistry(reg *config.Registry) {
	if err := reg.Save(); err != nil {
		logging.Warn("Failed to save config", zap.Error(err))
	}
}
