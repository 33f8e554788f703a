package main

import (
	"strings"
	"testing"
	"time"

	"github.com/muurk/controlpet/internal/config"
	"github.com/muurk/controlpet/internal/hub"
)

func TestSplitHubRef(t *testing.T) {
	tests := []struct {
		ref      string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{ref: "192.168.0.136", wantHost: "192.168.0.136", wantPort: 4889},
		{ref: "192.168.0.136:5000", wantHost: "192.168.0.136", wantPort: 5000},
		{ref: "hub.local:4890", wantHost: "hub.local", wantPort: 4890},
		{ref: "[::1]:4889", wantHost: "::1", wantPort: 4889},
		{ref: ":4889", wantErr: true},
		{ref: "10.0.0.1:http", wantErr: true},
		{ref: "10.0.0.1:70000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			host, port, err := splitHubRef(tt.ref, 4889)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitHubRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("splitHubRef(%q) = %s, %d; want %s, %d", tt.ref, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestChooseTransport(t *testing.T) {
	wsRecord := &config.HubRecord{Transport: hub.TransportWebSocket}

	tests := []struct {
		name string
		flag string
		rec  *config.HubRecord
		pref string
		want string
	}{
		{name: "flag wins", flag: "tcp", rec: wsRecord, pref: "websocket", want: "tcp"},
		{name: "ws alias", flag: "ws", want: hub.TransportWebSocket},
		{name: "record over preference", rec: wsRecord, pref: "tcp", want: hub.TransportWebSocket},
		{name: "empty record falls through", rec: &config.HubRecord{}, pref: "websocket", want: "websocket"},
		{name: "preference", pref: "websocket", want: "websocket"},
		{name: "default", want: hub.TransportTCP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chooseTransport(tt.flag, tt.rec, tt.pref); got != tt.want {
				t.Errorf("chooseTransport() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseColorArg(t *testing.T) {
	for _, name := range []string{"off", "Yellow", " blue ", "WHITE"} {
		if _, err := parseColorArg(name); err != nil {
			t.Errorf("parseColorArg(%q) error = %v", name, err)
		}
	}
	if _, err := parseColorArg("green"); err == nil {
		t.Error("parseColorArg(green) should fail")
	}
}

func TestTrainingConfig(t *testing.T) {
	defer func() {
		trainRounds, trainWindow, trainTarget, trainColor, trainIntensity = 0, 0, "", "", 100
	}()

	prefs := &config.TrainingPrefs{Rounds: 4, ResponseWindow: 15, Target: "middle", Color: "blue"}

	trainIntensity = 100
	cfg, err := trainingConfig(prefs)
	if err != nil {
		t.Fatalf("trainingConfig() error = %v", err)
	}
	if cfg.Rounds != 4 || cfg.ResponseWindow != 15*time.Second || cfg.Target != hub.ButtonMiddle || cfg.Color != hub.ColorBlue {
		t.Errorf("config from preferences = %+v", cfg)
	}

	trainRounds, trainTarget = 2, "right"
	cfg, err = trainingConfig(prefs)
	if err != nil {
		t.Fatalf("trainingConfig() error = %v", err)
	}
	if cfg.Rounds != 2 || cfg.Target != hub.ButtonRight || cfg.Color != hub.ColorBlue {
		t.Errorf("flags should override preferences, got %+v", cfg)
	}

	trainTarget = "nose"
	if _, err := trainingConfig(prefs); err == nil {
		t.Error("unknown target should fail")
	}
}

func TestFormatHubRecord(t *testing.T) {
	rec := &config.HubRecord{Nickname: "kitchen", LastIP: "10.0.0.5", Transport: "websocket"}
	line := formatHubRecord("cp-a1b2c3", rec)

	for _, want := range []string{"kitchen (cp-a1b2c3)", "10.0.0.5:4889", "websocket"} {
		if !strings.Contains(line, want) {
			t.Errorf("formatHubRecord() = %q, missing %q", line, want)
		}
	}

	if line := formatHubRecord("cp-x", &config.HubRecord{}); !strings.Contains(line, "never seen") {
		t.Errorf("unseen hub line = %q", line)
	}
}
