package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type hubs register for the control port
	ServiceType = "_controlpet._tcp"

	// WebSocketServiceType is registered by hubs for the websocket bridge
	WebSocketServiceType = "_websocket._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// FirmwareHostname is the host name stock firmware registers
	FirmwareHostname = "cleverpet"

	// DefaultScanTimeout is the default timeout for mDNS browsing
	DefaultScanTimeout = 5 * time.Second
)

// Scanner browses for hubs over mDNS. This complements the broadcast shout:
// it finds every hub that answers within the timeout instead of the first.
type Scanner struct {
	// Timeout is the maximum time to browse
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForHubs browses for hubs until the scanner timeout or ctx ends.
func (s *Scanner) ScanForHubs(ctx context.Context) ([]*Hub, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	hubs := make([]*Hub, 0)
	seen := make(map[string]bool)

	go func() {
		for entry := range entries {
			hub := s.parseServiceEntry(entry)
			if hub == nil {
				continue
			}
			mu.Lock()
			if !seen[hub.Address()] {
				seen[hub.Address()] = true
				hubs = append(hubs, hub)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	result := make([]*Hub, len(hubs))
	copy(result, hubs)
	return result, nil
}

// WaitForHub browses until a hub with the given name shows up.
func (s *Scanner) WaitForHub(ctx context.Context, name string) (*Hub, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Hub, 1)

	go func() {
		for entry := range entries {
			hub := s.parseServiceEntry(entry)
			if hub != nil && strings.EqualFold(hub.Name, name) {
				select {
				case found <- hub:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case hub := <-found:
		return hub, nil
	case <-ctx.Done():
		// The match may have raced with the cancel it triggered
		select {
		case hub := <-found:
			return hub, nil
		default:
		}
		return nil, fmt.Errorf("hub %q not found within %s", name, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Hub.
// Returns nil if the entry has no usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Hub {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultControlPort
	}

	name := entry.Instance
	if name == "" {
		name = strings.TrimSuffix(strings.TrimSuffix(entry.HostName, "."), ".local")
	}
	if name == "" {
		name = UnknownHubName
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Hub{
		Name:         name,
		IP:           ip,
		Port:         port,
		Hostname:     entry.HostName,
		Source:       SourceMDNS,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForHubs is a convenience function to browse with a custom timeout
func ScanForHubs(ctx context.Context, timeout time.Duration) ([]*Hub, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.ScanForHubs(ctx)
}
