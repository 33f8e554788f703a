// Package config provides user configuration management for the controlpet tools.
//
// This package manages a YAML-based configuration file that remembers hubs
// found by discovery (name, last endpoint, nickname) and application
// preferences: discovery and connect timeouts, the transport, light
// brightness, training defaults and the sound trigger file map.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/controlpet/config.yaml or $HOME/.config/controlpet/config.yaml
//   - macOS: $HOME/.config/controlpet/config.yaml
//   - Windows: %LOCALAPPDATA%\controlpet\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.UpdateHubLastSeen("3a001d000b47", "192.168.0.136", 4889, "broadcast")
//	registry.SetHubNickname("3a001d000b47", "kitchen")
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
