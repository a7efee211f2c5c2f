// Package tui renders widget updates in the terminal.
//
// [Model] is a bubbletea model fed by [UpdateMsg] values, normally sent from
// a board update callback through tea.Program.Send. [Printer] is the
// line-oriented fallback used when stdout is not a terminal.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/pollwidget"
)

const refreshInterval = time.Second

// UpdateMsg carries one poll result into the update loop.
type UpdateMsg pollwidget.Update

// tickMsg refreshes the relative "updated" times.
type tickMsg time.Time

// WidgetInfo describes a panel to reserve before the first update arrives.
type WidgetInfo struct {
	Name string
	Kind string
}

// panel is the render state of one widget.
type panel struct {
	name   string
	kind   string
	last   pollwidget.Update
	loaded bool
	polls  int
}

// Model is the root bubbletea model.
type Model struct {
	title   string
	order   []string
	panels  map[string]*panel
	spinner spinner.Model
	now     func() time.Time
	width   int
}

// New creates a model with one panel per widget, in the given order.
func New(title string, widgets []WidgetInfo) Model {
	if title == "" {
		title = "Fermentrack"
	}
	m := Model{
		title:   title,
		panels:  make(map[string]*panel, len(widgets)),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		now:     time.Now,
	}
	for _, w := range widgets {
		m.addPanel(w.Name, w.Kind)
	}
	return m
}

func (m *Model) addPanel(name, kind string) *panel {
	p := &panel{name: name, kind: kind}
	m.panels[name] = p
	m.order = append(m.order, name)
	return p
}

// Init starts the spinner and the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles key presses, window resizes, poll updates and ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case UpdateMsg:
		m.apply(pollwidget.Update(msg))
		return m, nil

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) apply(u pollwidget.Update) {
	p, ok := m.panels[u.Widget]
	if !ok {
		p = m.addPanel(u.Widget, u.Labels[kindLabel])
	}
	if kind := u.Labels[kindLabel]; kind != "" {
		p.kind = kind
	}
	p.last = u
	p.loaded = u.State == pollwidget.StateLoaded
	p.polls++
}

// View renders the title and one panel per widget.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	now := m.now()
	for _, name := range m.order {
		b.WriteString(m.renderPanel(m.panels[name], now))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("q: quit"))
	return b.String()
}

func (m Model) panelStyle() lipgloss.Style {
	if m.width > 4 {
		return panelStyle.Width(m.width - 4)
	}
	return panelStyle
}
