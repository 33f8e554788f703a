package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/muurk/controlpet/internal/discovery"
	"github.com/muurk/controlpet/internal/game"
	"github.com/muurk/controlpet/internal/hub"
)

func TestPrinter_Boxes(t *testing.T) {
	tests := []struct {
		name  string
		print func(p *Printer)
		want  []string
	}{
		{
			name:  "header keeps param order",
			print: func(p *Printer) { p.PrintHeader("Training", "controlpet train", D("Hub", "10.0.0.5:4889"), D("Rounds", "10")) },
			want:  []string{"TRAINING", "controlpet train", "Hub:", "10.0.0.5:4889", "Rounds:"},
		},
		{
			name:  "success",
			print: func(p *Printer) { p.PrintSuccess("Treat dispensed", D("Taken", "yes")) },
			want:  []string{"SUCCESS", "Treat dispensed", "Taken:", "yes"},
		},
		{
			name:  "warning",
			print: func(p *Printer) { p.PrintWarning("No press", D("Waited", "20s")) },
			want:  []string{"WARNING", "No press", "Waited:"},
		},
		{
			name: "error with tips",
			print: func(p *Printer) {
				p.PrintError("Connection failed", errors.New("connection refused"), []string{"Is the hub powered on?"})
			},
			want: []string{"FAILED", "Connection failed", "connection refused", "Troubleshooting:", "Is the hub powered on?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := NewPrinter(&buf).SetWidth(80)
			tt.print(p)

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestRenderHeader_ParamOrder(t *testing.T) {
	out := RenderHeader("x", "cmd", []Detail{D("First", "1"), D("Second", "2"), D("Third", "3")}, 80)
	first := strings.Index(out, "First")
	second := strings.Index(out, "Second")
	third := strings.Index(out, "Third")
	if first < 0 || !(first < second && second < third) {
		t.Errorf("params out of order: %d %d %d", first, second, third)
	}
}

func TestPrinter_PrintHubs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintHubs(nil)
	if !strings.Contains(buf.String(), "No hubs found") {
		t.Errorf("empty list output = %q", buf.String())
	}

	buf.Reset()
	p.PrintHubs([]*discovery.Hub{
		{Name: "3a001d000b47", IP: "192.168.0.136", Port: 4889, Source: discovery.SourceBroadcast, DiscoveredAt: time.Now()},
		{Name: "cleverpet", IP: "192.168.0.140", Port: 4889, Source: discovery.SourceMDNS, Hostname: "cleverpet.local."},
	})
	out := buf.String()
	for _, w := range []string{"3a001d000b47", "192.168.0.136:4889", "broadcast", "cleverpet.local."} {
		if !strings.Contains(out, w) {
			t.Errorf("hub list missing %q:\n%s", w, out)
		}
	}
}

func TestHubDetails(t *testing.T) {
	h := &discovery.Hub{Name: "abc", IP: "10.0.0.2", Port: 4889, Source: discovery.SourceManual}
	details := HubDetails(h)
	if len(details) != 4 {
		t.Fatalf("HubDetails() = %v, want 4 lines without hostname", details)
	}
	if details[2] != D("Port", "4889") {
		t.Errorf("details[2] = %v, want Port 4889", details[2])
	}

	h.Hostname = "cleverpet.local."
	if got := HubDetails(h); len(got) != 5 {
		t.Errorf("HubDetails() with hostname has %d lines, want 5", len(got))
	}
}

func TestRenderButtons(t *testing.T) {
	out := RenderButtons(hub.DecodeButtons(5))
	if strings.Count(out, PadPressedMarker) != 2 || strings.Count(out, PadIdleMarker) != 1 {
		t.Errorf("RenderButtons(5) = %q, want two pressed and one idle", out)
	}
}

func TestRoundBoard(t *testing.T) {
	b := NewRoundBoard("Training", 3).SetWidth(80)

	if b.Percent() != 0 {
		t.Errorf("Percent() = %v before any round", b.Percent())
	}

	b.Start(1)
	if !strings.Contains(b.RenderRound(1), "Waiting for a press") {
		t.Errorf("running round = %q", b.RenderRound(1))
	}

	b.Record(game.RoundResult{Round: 1, Pressed: hub.DecodeButtons(1), Correct: true, Dispensed: true, Taken: true})
	b.Record(game.RoundResult{Round: 2, Pressed: hub.DecodeButtons(2)})
	b.Record(game.RoundResult{Round: 9})

	if b.Played() != 2 {
		t.Errorf("Played() = %d, want 2", b.Played())
	}

	tests := []struct {
		round int
		want  string
	}{
		{round: 1, want: "treat taken"},
		{round: 2, want: "Wrong pad"},
		{round: 3, want: "Pending"},
	}
	for _, tt := range tests {
		if got := b.RenderRound(tt.round); !strings.Contains(got, tt.want) {
			t.Errorf("RenderRound(%d) = %q, want it to contain %q", tt.round, got, tt.want)
		}
	}
	if b.RenderRound(0) != "" || b.RenderRound(4) != "" {
		t.Error("RenderRound() out of range should be empty")
	}

	if out := b.Render(); !strings.Contains(out, "[2/3]") {
		t.Errorf("Render() missing progress count:\n%s", out)
	}
}
