package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "hub with IPv4",
			entry: func() *zeroconf.ServiceEntry {
				e := zeroconf.NewServiceEntry("Remote control", ServiceType, ServiceDomain)
				e.HostName = "cleverpet.local."
				e.Port = 4889
				e.AddrIPv4 = []net.IP{net.ParseIP("192.168.0.136")}
				e.Text = []string{"path=/"}
				return e
			}(),
			wantName: "Remote control",
			wantIP:   "192.168.0.136",
			wantPort: 4889,
		},
		{
			name: "no port falls back to control port",
			entry: func() *zeroconf.ServiceEntry {
				e := zeroconf.NewServiceEntry("hub", ServiceType, ServiceDomain)
				e.AddrIPv4 = []net.IP{net.ParseIP("10.0.0.5")}
				return e
			}(),
			wantName: "hub",
			wantIP:   "10.0.0.5",
			wantPort: DefaultControlPort,
		},
		{
			name: "name from hostname when instance is empty",
			entry: func() *zeroconf.ServiceEntry {
				e := zeroconf.NewServiceEntry("", ServiceType, ServiceDomain)
				e.HostName = "cleverpet.local."
				e.Port = 4889
				e.AddrIPv4 = []net.IP{net.ParseIP("10.0.0.6")}
				return e
			}(),
			wantName: "cleverpet",
			wantIP:   "10.0.0.6",
			wantPort: 4889,
		},
		{
			name: "IPv6 only",
			entry: func() *zeroconf.ServiceEntry {
				e := zeroconf.NewServiceEntry("hub6", ServiceType, ServiceDomain)
				e.Port = 4889
				e.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}
				return e
			}(),
			wantName: "hub6",
			wantIP:   "fe80::1",
			wantPort: 4889,
		},
		{
			name: "prefers IPv4",
			entry: func() *zeroconf.ServiceEntry {
				e := zeroconf.NewServiceEntry("dual", ServiceType, ServiceDomain)
				e.Port = 4889
				e.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.50")}
				e.AddrIPv6 = []net.IP{net.ParseIP("fe80::2")}
				return e
			}(),
			wantName: "dual",
			wantIP:   "192.168.1.50",
			wantPort: 4889,
		},
		{
			name: "no address",
			entry: func() *zeroconf.ServiceEntry {
				return zeroconf.NewServiceEntry("ghost", ServiceType, ServiceDomain)
			}(),
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if hub != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", hub)
				}
				return
			}
			if hub == nil {
				t.Fatal("parseServiceEntry() = nil, want hub")
			}
			if hub.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", hub.Name, tt.wantName)
			}
			if hub.IP != tt.wantIP {
				t.Errorf("IP = %q, want %q", hub.IP, tt.wantIP)
			}
			if hub.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", hub.Port, tt.wantPort)
			}
			if hub.Source != SourceMDNS {
				t.Errorf("Source = %q, want %q", hub.Source, SourceMDNS)
			}
			if time.Since(hub.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", hub.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := zeroconf.NewServiceEntry("hub", ServiceType, ServiceDomain)
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.0.136")}
	entry.Text = []string{"path=/", "ws=4890", "flag"}

	hub := scanner.parseServiceEntry(entry)
	if hub == nil {
		t.Fatal("parseServiceEntry() = nil, want hub")
	}

	expected := map[string]string{"path": "/", "ws": "4890", "flag": ""}
	if len(hub.Metadata) != len(expected) {
		t.Errorf("Metadata has %d entries, want %d", len(hub.Metadata), len(expected))
	}
	for k, v := range expected {
		if got, ok := hub.Metadata[k]; !ok || got != v {
			t.Errorf("Metadata[%q] = %q (present %v), want %q", k, got, ok, v)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
