package config

import (
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Registry represents the entire user configuration file.
// It stores known hubs and application preferences.
type Registry struct {
	Version     int                   `yaml:"version"`
	Hubs        map[string]*HubRecord `yaml:"hubs,omitempty"` // Keyed by hub name (device id from its shout)
	Preferences *Preferences          `yaml:"preferences,omitempty"`
}

// HubRecord represents what we remember about a single hub.
type HubRecord struct {
	Nickname  string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastIP    string    `yaml:"last_ip,omitempty"`   // Last known IP address
	LastPort  int       `yaml:"last_port,omitempty"` // Last known control port
	Transport string    `yaml:"transport,omitempty"` // Preferred transport for this hub
	Source    string    `yaml:"source,omitempty"`    // How the hub was last found (broadcast, mdns, manual)
	LastSeen  time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DiscoverTimeout int               `yaml:"discover_timeout"`     // Discovery timeout in seconds
	Transport       string            `yaml:"transport"`            // tcp or websocket
	MaxBrightness   int               `yaml:"max_brightness"`       // Channel value at 100% intensity
	DialTimeout     int               `yaml:"dial_timeout"`         // Connect timeout in seconds
	DispenseTimeout int               `yaml:"dispense_timeout"`     // Dispense ack timeout in seconds (0 waits forever)
	Training        *TrainingPrefs    `yaml:"training,omitempty"`   // Defaults for the train command
	SoundsDir       string            `yaml:"sounds_dir,omitempty"` // Directory holding sound trigger files
	Sounds          map[string]string `yaml:"sounds,omitempty"`     // Sound trigger name -> file (relative to SoundsDir)
}

// TrainingPrefs holds defaults for training sessions.
type TrainingPrefs struct {
	Rounds         int    `yaml:"rounds"`          // Rounds per session
	ResponseWindow int    `yaml:"response_window"` // Seconds to wait for a press
	Target         string `yaml:"target"`          // Button to light (left, middle, right)
	Color          string `yaml:"color"`           // Light color for the target
}

// Defaults used for a new registry and for missing values on load
const (
	DefaultDiscoverTimeout = 10
	DefaultTransport       = "tcp"
	DefaultMaxBrightness   = 60
	DefaultDialTimeout     = 10
	DefaultDispenseTimeout = 30
	DefaultSoundsDir       = "sounds"
)

// DefaultSounds maps sound trigger names to files, as shipped with the
// sound player.
var DefaultSounds = map[string]string{
	"blue":   "blue.wav",
	"green":  "green.wav",
	"red":    "red.wav",
	"white":  "white.wav",
	"yellow": "yellow.wav",
	"one":    "one.wav",
	"two":    "two.wav",
	"three":  "three.wav",
}

func defaultPreferences() *Preferences {
	return &Preferences{
		DiscoverTimeout: DefaultDiscoverTimeout,
		Transport:       DefaultTransport,
		MaxBrightness:   DefaultMaxBrightness,
		DialTimeout:     DefaultDialTimeout,
		DispenseTimeout: DefaultDispenseTimeout,
		Training:        defaultTraining(),
		SoundsDir:       DefaultSoundsDir,
		Sounds:          copySounds(DefaultSounds),
	}
}

func defaultTraining() *TrainingPrefs {
	return &TrainingPrefs{
		Rounds:         10,
		ResponseWindow: 20,
		Target:         "left",
		Color:          "white",
	}
}

func copySounds(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Hubs:        make(map[string]*HubRecord),
		Preferences: defaultPreferences(),
	}
}

// fillDefaults replaces zero or missing values after loading from disk.
func (r *Registry) fillDefaults() {
	if r.Hubs == nil {
		r.Hubs = make(map[string]*HubRecord)
	}
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
		return
	}

	p := r.Preferences
	if p.DiscoverTimeout <= 0 {
		p.DiscoverTimeout = DefaultDiscoverTimeout
	}
	if p.Transport == "" {
		p.Transport = DefaultTransport
	}
	if p.MaxBrightness <= 0 {
		p.MaxBrightness = DefaultMaxBrightness
	}
	if p.DialTimeout <= 0 {
		p.DialTimeout = DefaultDialTimeout
	}
	if p.DispenseTimeout < 0 {
		p.DispenseTimeout = DefaultDispenseTimeout
	}
	if p.Training == nil {
		p.Training = defaultTraining()
	}
	if p.SoundsDir == "" {
		p.SoundsDir = DefaultSoundsDir
	}
	if p.Sounds == nil {
		p.Sounds = copySounds(DefaultSounds)
	}
}

// GetHub retrieves a hub record by name.
// Returns nil if the hub doesn't exist in the registry.
func (r *Registry) GetHub(name string) *HubRecord {
	return r.Hubs[name]
}

// EnsureHub ensures a hub entry exists in the registry and returns it.
func (r *Registry) EnsureHub(name string) *HubRecord {
	if r.Hubs == nil {
		r.Hubs = make(map[string]*HubRecord)
	}

	if hub, exists := r.Hubs[name]; exists {
		return hub
	}

	hub := &HubRecord{}
	r.Hubs[name] = hub
	return hub
}

// UpdateHubLastSeen records where and how a hub was last found.
func (r *Registry) UpdateHubLastSeen(name, ip string, port int, source string) {
	hub := r.EnsureHub(name)
	hub.LastSeen = time.Now()
	hub.LastIP = ip
	hub.LastPort = port
	hub.Source = source
}

// SetHubNickname sets a user-friendly nickname for a hub.
func (r *Registry) SetHubNickname(name, nickname string) {
	hub := r.EnsureHub(name)
	hub.Nickname = nickname
}

// FindHub looks a hub up by name or nickname (case-insensitive).
// Returns the registry key and record, or "" and nil if not found.
func (r *Registry) FindHub(ref string) (string, *HubRecord) {
	if hub, ok := r.Hubs[ref]; ok {
		return ref, hub
	}
	for name, hub := range r.Hubs {
		if hub.Nickname != "" && strings.EqualFold(hub.Nickname, ref) {
			return name, hub
		}
	}
	return "", nil
}

// Address returns host:port for the hub's last known endpoint, or "" if it
// has never been seen.
func (h *HubRecord) Address(defaultPort int) string {
	if h.LastIP == "" {
		return ""
	}
	port := h.LastPort
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(h.LastIP, strconv.Itoa(port))
}

// DiscoverTimeoutDuration returns the discovery timeout as a duration.
func (p *Preferences) DiscoverTimeoutDuration() time.Duration {
	return time.Duration(p.DiscoverTimeout) * time.Second
}

// DialTimeoutDuration returns the connect timeout as a duration.
func (p *Preferences) DialTimeoutDuration() time.Duration {
	return time.Duration(p.DialTimeout) * time.Second
}

// DispenseTimeoutDuration returns the dispense ack timeout as a duration.
func (p *Preferences) DispenseTimeoutDuration() time.Duration {
	return time.Duration(p.DispenseTimeout) * time.Second
}

// SoundPath resolves a sound trigger name to a file path.
// Returns false if the name is not mapped.
func (p *Preferences) SoundPath(name string) (string, bool) {
	file, ok := p.Sounds[name]
	if !ok {
		return "", false
	}
	if filepath.IsAbs(file) {
		return file, true
	}
	return filepath.Join(p.SoundsDir, file), true
}
