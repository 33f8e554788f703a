package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/controlpet/internal/discovery"
)

// Detail is one key/value line in a header or result box. Details keep the
// order they are given in.
type Detail struct {
	Key   string
	Value string
}

// D is shorthand for building a Detail
func D(key, value string) Detail {
	return Detail{Key: key, Value: value}
}

// Printer provides methods for printing UI components to a writer.
// This is how CLI commands should output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = max(width, MinTerminalWidth)
	return p
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Detail) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.Println(RenderWarningBox(title, details, p.width))
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(RenderErrorBox(title, err, troubleshooting, p.width))
}

// PrintHubs prints one line per hub, or a note when none were found
func (p *Printer) PrintHubs(hubs []*discovery.Hub) {
	if len(hubs) == 0 {
		p.Println(StepPendingStyle.Render("  No hubs found"))
		return
	}
	for _, h := range hubs {
		p.Println(RenderHubLine(h))
	}
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params []Detail, width int) string {
	width = max(width, MinTerminalWidth)

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(title))
	commandLine := HeaderCommandStyle.Render(command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(params) > 0 {
		divider := RenderHorizontalDivider(max(width-6, 10), "─")

		lines := make([]string, 0, len(params))
		for _, d := range params {
			lines = append(lines, HeaderParamKeyStyle.Render(d.Key+":")+" "+HeaderParamValueStyle.Render(d.Value))
		}
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, strings.Join(lines, "\n"))
	}

	return PanelStyle(width, PrimaryColor).Render(content)
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details []Detail, width int) string {
	return renderResultBox(SuccessTitleStyle.Render(fmt.Sprintf("   %s  SUCCESS  ─  %s", SuccessMarker, title)), details, width, SuccessColor)
}

// RenderWarningBox renders a warning result box
func RenderWarningBox(title string, details []Detail, width int) string {
	style := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	return renderResultBox(style.Render(fmt.Sprintf("   !  WARNING  ─  %s", title)), details, width, WarningColor)
}

func renderResultBox(titleLine string, details []Detail, width int, color lipgloss.Color) string {
	width = max(width, MinTerminalWidth)

	lines := []string{"", titleLine, ""}
	for _, d := range details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	lines = append(lines, "")

	return BoxStyle(width, color).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box with troubleshooting
func RenderErrorBox(title string, err error, troubleshooting []string, width int) string {
	width = max(width, MinTerminalWidth)

	lines := []string{"", ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", FailureMarker, title)), ""}

	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+err.Error()), "")
	}

	if len(troubleshooting) > 0 {
		tips := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
		for _, tip := range troubleshooting {
			tips = append(tips, TroubleshootingItemStyle.Render("  • "+tip))
		}
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Width(width-8).
			Padding(0, 1).
			Render(strings.Join(tips, "\n"))
		lines = append(lines, box, "")
	}

	return BoxStyle(width, ErrorColor).Render(strings.Join(lines, "\n"))
}

// RenderHubLine renders a discovered hub as a single line
func RenderHubLine(h *discovery.Hub) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(StepCompleteStyle.Render(StepMarkerRunning))
	b.WriteString(" ")
	b.WriteString(HeaderParamValueStyle.Bold(true).Render(h.Name))
	b.WriteString("  ")
	b.WriteString(HeaderParamValueStyle.Render(h.Address()))
	b.WriteString("  ")

	note := h.Source
	if h.Hostname != "" {
		note += ", " + h.Hostname
	}
	if !h.DiscoveredAt.IsZero() {
		note += ", " + h.DiscoveredAt.Format(time.TimeOnly)
	}
	b.WriteString(StepNoteStyle.Render("(" + note + ")"))
	return b.String()
}

// HubDetails returns the usual detail lines for a hub
func HubDetails(h *discovery.Hub) []Detail {
	details := []Detail{
		D("Name", h.Name),
		D("Address", h.IP),
		D("Port", strconv.Itoa(h.Port)),
		D("Found via", h.Source),
	}
	if h.Hostname != "" {
		details = append(details, D("Hostname", h.Hostname))
	}
	return details
}
