package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// How a hub was found
const (
	SourceBroadcast = "broadcast"
	SourceMDNS      = "mdns"
	SourceManual    = "manual"
)

// Hub represents a ControlPet hub found on the network
type Hub struct {
	// Name is the name the hub announced (the Particle device ID for shouts,
	// the service instance name for mDNS)
	Name string

	// IP is the hub's address (e.g., "192.168.0.136")
	IP string

	// Port is the control port (4889 on stock firmware)
	Port int

	// Hostname is the mDNS hostname, empty for broadcast discovery
	Hostname string

	// Source records how the hub was found (broadcast, mdns or manual)
	Source string

	// Metadata contains mDNS TXT record data, if any
	Metadata map[string]string

	// DiscoveredAt is when the hub was discovered
	DiscoveredAt time.Time
}

// NewManualHub creates a hub entry for an address given by the user.
func NewManualHub(ip string, port int) *Hub {
	return &Hub{
		Name:         ip,
		IP:           ip,
		Port:         port,
		Source:       SourceManual,
		DiscoveredAt: time.Now(),
	}
}

// String returns a human-readable string representation of the hub
func (h *Hub) String() string {
	return fmt.Sprintf("ControlPet Hub %s at %s (%s)", h.Name, h.Address(), h.Source)
}

// Address returns the host:port of the hub's control port
func (h *Hub) Address() string {
	return net.JoinHostPort(h.IP, strconv.Itoa(h.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (h *Hub) GetMetadata(key string) string {
	if h.Metadata == nil {
		return ""
	}
	return h.Metadata[key]
}
