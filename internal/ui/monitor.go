package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/controlpet/internal/hub"
	"github.com/muurk/controlpet/internal/protocol"
)

// maxMonitorEvents is how many received messages the monitor keeps on screen
const maxMonitorEvents = 12

// MonitorHub is the part of the hub client the monitor drives
type MonitorHub interface {
	Events() <-chan hub.Event
	SetButtonLight(button hub.Button, color hub.Color, intensity int) error
	AllButtonsOff() error
	StartNewRound() error
	RequestButtons() error
	PositiveSound() error
	NegativeSound() error
	Dispense(ctx context.Context) (bool, error)
}

// Messages for async operations
type hubEventMsg struct{ event hub.Event }
type feedClosedMsg struct{}
type dispenseDoneMsg struct {
	taken bool
	err   error
}

// monitorKeyMap defines key bindings for the monitor
type monitorKeyMap struct {
	Left     key.Binding
	Middle   key.Binding
	Right    key.Binding
	Cue      key.Binding
	Off      key.Binding
	Round    key.Binding
	Buttons  key.Binding
	Positive key.Binding
	Negative key.Binding
	Dispense key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Middle, k.Right, k.Dispense, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Middle, k.Right, k.Cue, k.Off},
		{k.Round, k.Buttons, k.Positive, k.Negative, k.Dispense},
		{k.Help, k.Quit},
	}
}

func newMonitorKeyMap() monitorKeyMap {
	return monitorKeyMap{
		Left:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "left light")),
		Middle:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "middle light")),
		Right:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "right light")),
		Cue:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cue light")),
		Off:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "all off")),
		Round:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new round")),
		Buttons:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "query buttons")),
		Positive: key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "positive sound")),
		Negative: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "negative sound")),
		Dispense: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dispense")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// lightCycle is the order a light steps through on each key press
var lightCycle = []hub.Color{hub.ColorOff, hub.ColorYellow, hub.ColorBlue, hub.ColorWhite}

func nextColor(c hub.Color) hub.Color {
	for i, lc := range lightCycle {
		if lc == c {
			return lightCycle[(i+1)%len(lightCycle)]
		}
	}
	return hub.ColorYellow
}

type monitorEvent struct {
	at   string
	text string
}

// MonitorModel is an interactive view of a live hub session: it shows every
// message the hub sends and lets the user drive lights, sounds and the
// dispenser from the keyboard.
type MonitorModel struct {
	ctx     context.Context
	hub     MonitorHub
	address string

	lights     [4]hub.Color
	reported   hub.ButtonState
	lastPress  hub.ButtonState
	events     []monitorEvent
	dispensing bool
	status     string
	err        error
	closed     bool

	keys    monitorKeyMap
	help    help.Model
	spinner spinner.Model
	width   int
}

// NewMonitorModel creates a monitor for a connected hub
func NewMonitorModel(ctx context.Context, h MonitorHub, address string) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StepRunningStyle

	m := MonitorModel{
		ctx:     ctx,
		hub:     h,
		address: address,
		keys:    newMonitorKeyMap(),
		help:    help.New(),
		spinner: s,
		width:   GetTerminalWidth(),
	}
	for i := range m.lights {
		m.lights[i] = hub.ColorOff
	}
	return m
}

// RunMonitor runs the monitor until the user quits or the hub disconnects
func RunMonitor(ctx context.Context, h MonitorHub, address string) error {
	p := tea.NewProgram(NewMonitorModel(ctx, h, address), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(MonitorModel); ok && m.closed {
		return fmt.Errorf("hub %s disconnected", address)
	}
	return nil
}

// Init implements tea.Model
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.hub.Events()))
}

func waitForEvent(ch <-chan hub.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return hubEventMsg{event: ev}
	}
}

func (m MonitorModel) dispense() tea.Cmd {
	return func() tea.Msg {
		taken, err := m.hub.Dispense(m.ctx)
		return dispenseDoneMsg{taken: taken, err: err}
	}
}

// Update implements tea.Model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width, MinTerminalWidth), MaxContentWidth)
		m.help.Width = m.width
		return m, nil

	case hubEventMsg:
		m.recordEvent(msg.event)
		return m, waitForEvent(m.hub.Events())

	case feedClosedMsg:
		m.closed = true
		return m, tea.Quit

	case dispenseDoneMsg:
		m.dispensing = false
		switch {
		case msg.err != nil:
			m.err = msg.err
		case msg.taken:
			m.status = "Treat taken"
		default:
			m.status = "Treat not taken"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m MonitorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Left):
		err = m.cycleLight(hub.ButtonLeft)
	case key.Matches(msg, m.keys.Middle):
		err = m.cycleLight(hub.ButtonMiddle)
	case key.Matches(msg, m.keys.Right):
		err = m.cycleLight(hub.ButtonRight)
	case key.Matches(msg, m.keys.Cue):
		err = m.cycleLight(hub.LightCue)
	case key.Matches(msg, m.keys.Off):
		if err = m.hub.AllButtonsOff(); err == nil {
			for _, b := range hub.Touchpads {
				m.lights[b] = hub.ColorOff
			}
			m.status = "Lights off"
		}
	case key.Matches(msg, m.keys.Round):
		if err = m.hub.StartNewRound(); err == nil {
			for i := range m.lights {
				m.lights[i] = hub.ColorOff
			}
			m.status = "New round"
		}
	case key.Matches(msg, m.keys.Buttons):
		if err = m.hub.RequestButtons(); err == nil {
			m.status = "Buttons requested"
		}
	case key.Matches(msg, m.keys.Positive):
		if err = m.hub.PositiveSound(); err == nil {
			m.status = "Played " + hub.SoundPositive
		}
	case key.Matches(msg, m.keys.Negative):
		if err = m.hub.NegativeSound(); err == nil {
			m.status = "Played " + hub.SoundNegative
		}
	case key.Matches(msg, m.keys.Dispense):
		if m.dispensing {
			return m, nil
		}
		m.dispensing = true
		m.status = "Dispensing"
		m.err = nil
		return m, m.dispense()
	default:
		return m, nil
	}

	m.err = err
	return m, nil
}

func (m *MonitorModel) cycleLight(b hub.Button) error {
	next := nextColor(m.lights[b])
	if err := m.hub.SetButtonLight(b, next, 100); err != nil {
		return err
	}
	m.lights[b] = next
	m.status = fmt.Sprintf("%s light %s", b, next)
	return nil
}

func (m *MonitorModel) recordEvent(ev hub.Event) {
	switch ev.Message.Command {
	case protocol.CmdButtons:
		m.reported = ev.Buttons
	case protocol.CmdButtonEvent:
		m.lastPress = ev.Buttons
	}

	m.events = append(m.events, monitorEvent{
		at:   ev.ReceivedAt.Format("15:04:05.000"),
		text: ev.Message.String(),
	})
	if len(m.events) > maxMonitorEvents {
		m.events = m.events[len(m.events)-maxMonitorEvents:]
	}
}

// View implements tea.Model
func (m MonitorModel) View() string {
	var b strings.Builder

	header := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render("HUB MONITOR"),
		HeaderCommandStyle.Render(m.address),
	)
	b.WriteString(PanelStyle(m.width, PrimaryColor).Render(header))
	b.WriteString("\n\n")

	b.WriteString("  Lights    ")
	for i, c := range m.lights {
		b.WriteString(LightStyle(c).Render(fmt.Sprintf("%s:%s", hub.Button(i), c)))
		b.WriteString("  ")
	}
	b.WriteString("\n")
	b.WriteString("  Pressed   " + RenderButtons(m.lastPress) + "\n")
	b.WriteString("  Reported  " + RenderButtons(m.reported) + "\n\n")

	b.WriteString(TroubleshootingTitleStyle.Render("  Received") + "\n")
	if len(m.events) == 0 {
		b.WriteString(StepPendingStyle.Render("  nothing yet") + "\n")
	}
	for _, ev := range m.events {
		b.WriteString("  " + EventTimeStyle.Render(ev.at) + "  " + EventCommandStyle.Render(ev.text) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorMessageStyle.Render("  "+FailureMarker+" "+m.err.Error()) + "\n")
	case m.dispensing:
		b.WriteString("  " + m.spinner.View() + " " + StepRunningStyle.Render("Waiting for dispense acknowledgement") + "\n")
	case m.status != "":
		b.WriteString(StepCompleteStyle.Render("  "+SuccessMarker+" "+m.status) + "\n")
	}

	b.WriteString("\n  " + m.help.View(m.keys))
	return b.String()
}
