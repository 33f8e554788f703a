package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/controlpet/internal/game"
)

// RoundStatus is the display state of one training round
type RoundStatus int

const (
	RoundPending RoundStatus = iota // Not yet played
	RoundRunning                    // Waiting for a press
	RoundCorrect                    // Target pressed
	RoundMissed                     // Wrong pad or no press
)

// RoundBoard shows training progress: a bar plus one line per round
type RoundBoard struct {
	Label   string
	Results []game.RoundResult
	Status  []RoundStatus
	Width   int
	bar     progress.Model
}

// NewRoundBoard creates a board for a session of total rounds
func NewRoundBoard(label string, total int) *RoundBoard {
	b := &RoundBoard{
		Label:   label,
		Results: make([]game.RoundResult, total),
		Status:  make([]RoundStatus, total),
	}
	return b.SetWidth(GetTerminalWidth())
}

// SetWidth sets the terminal width for responsive rendering
func (b *RoundBoard) SetWidth(width int) *RoundBoard {
	b.Width = width
	barWidth := min(max(width-20, 20), 50)
	b.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return b
}

// Start marks round n (1-based) as running
func (b *RoundBoard) Start(n int) {
	if n < 1 || n > len(b.Status) {
		return
	}
	b.Status[n-1] = RoundRunning
}

// Record stores the outcome of a finished round
func (b *RoundBoard) Record(r game.RoundResult) {
	if r.Round < 1 || r.Round > len(b.Status) {
		return
	}
	b.Results[r.Round-1] = r
	if r.Correct {
		b.Status[r.Round-1] = RoundCorrect
	} else {
		b.Status[r.Round-1] = RoundMissed
	}
}

// Played returns the number of finished rounds
func (b *RoundBoard) Played() int {
	n := 0
	for _, s := range b.Status {
		if s == RoundCorrect || s == RoundMissed {
			n++
		}
	}
	return n
}

// Percent returns the finished fraction of the session
func (b *RoundBoard) Percent() float64 {
	if len(b.Status) == 0 {
		return 0
	}
	return float64(b.Played()) / float64(len(b.Status))
}

// Render returns the whole board
func (b *RoundBoard) Render() string {
	var sb strings.Builder

	if b.Label != "" {
		sb.WriteString(HeaderTitleStyle.Render(b.Label))
		sb.WriteString("\n\n")
	}

	sb.WriteString(b.RenderBar())
	sb.WriteString("\n\n")

	lines := make([]string, len(b.Status))
	for i := range b.Status {
		lines[i] = b.RenderRound(i + 1)
	}
	sb.WriteString(strings.Join(lines, "\n"))
	return sb.String()
}

// RenderBar renders the progress bar line
func (b *RoundBoard) RenderBar() string {
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]", b.bar.ViewAs(b.Percent()), b.Percent()*100, b.Played(), len(b.Status)))
}

// RenderRound renders the line for round n (1-based)
func (b *RoundBoard) RenderRound(n int) string {
	if n < 1 || n > len(b.Status) {
		return ""
	}
	status := b.Status[n-1]
	r := b.Results[n-1]

	var marker, name, note string
	var style lipgloss.Style

	switch status {
	case RoundCorrect:
		marker, style = StepMarkerComplete, StepCompleteStyle
		name = "Correct press"
		if r.Taken {
			note = "treat taken"
		} else {
			note = "treat not taken"
		}
	case RoundMissed:
		marker, style = FailureMarker, ErrorTitleStyle
		if r.Pressed.Any() {
			name = "Wrong pad"
		} else {
			name = "No press"
		}
	case RoundRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
		name = "Waiting for a press"
	default:
		marker, style = StepMarkerPending, StepPendingStyle
		name = "Pending"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  [%d/%d] ", n, len(b.Status)))
	sb.WriteString(style.Render(name))
	sb.WriteString(strings.Repeat(" ", max(24-lipgloss.Width(name), 1)))
	sb.WriteString(style.Render(marker))

	if status == RoundCorrect || status == RoundMissed {
		sb.WriteString("  ")
		sb.WriteString(RenderButtons(r.Pressed))
	}
	if note != "" {
		sb.WriteString("  ")
		sb.WriteString(StepNoteStyle.Render("(" + note + ")"))
	}
	return sb.String()
}

// String implements fmt.Stringer
func (b *RoundBoard) String() string {
	return b.Render()
}
