package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jpalmerr/pollwidget/fermentrack"
)

const (
	kindLabel = fermentrack.KindLabel

	// maxRawWidth truncates compact JSON for widgets of unknown kind, in runes.
	maxRawWidth = 200
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F2A65A"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1)

	nameStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	lcdStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F2A65A"))
)

func (m Model) renderPanel(p *panel, now time.Time) string {
	var b strings.Builder

	header := nameStyle.Render(p.name)
	if p.kind != "" {
		header += dimStyle.Render(" [" + p.kind + "]")
	}
	b.WriteString(header)
	b.WriteString("\n")

	if !p.loaded {
		b.WriteString(m.spinner.View())
		b.WriteString(" waiting for first response")
	} else {
		b.WriteString(renderItems(p.kind, p.last.Items))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("updated " + humanize.RelTime(p.last.UpdatedAt, now, "ago", "from now")))
	}

	if p.last.Error != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("last poll failed: " + p.last.Error.Error()))
	}

	return m.panelStyle().Render(b.String())
}

// renderItems formats the last good body according to the widget kind.
// Bodies that do not decode as the kind expects fall back to raw JSON.
func renderItems(kind string, items json.RawMessage) string {
	switch kind {
	case fermentrack.KindLCD:
		var lcds []fermentrack.LCDStatus
		if err := json.Unmarshal(items, &lcds); err == nil {
			return renderLCDs(lcds)
		}
	case fermentrack.KindGravity:
		var sensors []fermentrack.GravitySensor
		if err := json.Unmarshal(items, &sensors); err == nil {
			return renderGravity(sensors)
		}
	}
	return renderRaw(items)
}

func renderLCDs(lcds []fermentrack.LCDStatus) string {
	if len(lcds) == 0 {
		return dimStyle.Render("no controllers")
	}
	blocks := make([]string, 0, len(lcds))
	for _, lcd := range lcds {
		var b strings.Builder
		b.WriteString(lcd.DeviceName)
		for _, line := range lcd.Lines() {
			b.WriteString("\n")
			b.WriteString(lcdStyle.Render(line))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func renderGravity(sensors []fermentrack.GravitySensor) string {
	if len(sensors) == 0 {
		return dimStyle.Render("no gravity sensors")
	}
	lines := make([]string, 0, len(sensors))
	for _, s := range sensors {
		line := fmt.Sprintf("%-20s SG %-6s %s", s.DeviceName, s.CurrentGravity, s.Temperature())
		if s.Bound() {
			line += dimStyle.Render(" -> " + s.BoundDevice.Name)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderRaw(items json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, items); err != nil {
		return string(items)
	}
	s := buf.String()
	if utf8.RuneCountInString(s) > maxRawWidth {
		s = string([]rune(s)[:maxRawWidth]) + "..."
	}
	return s
}
