// Package display renders the robot screen on a terminal.
package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/extreme-axolotls/relaybot/internal/status"
)

// Screen is the robot's text display.
type Screen interface {
	// Clear clears the screen and sets its colors. An empty color keeps the
	// current one.
	Clear(screen, pen string)
	Print(msg string)
}

// Width is the character width of the robot screen.
const Width = 20

var palette = map[string]string{
	"black":  "#000000",
	"white":  "#FFFFFF",
	"red":    "#CC0000",
	"green":  "#00AA00",
	"blue":   "#0044CC",
	"yellow": "#E6C200",
	"orange": "#FF8800",
	"purple": "#7A3DB8",
}

// resolveColor maps a palette name to hex. Anything else (hex, ANSI index)
// is passed to lipgloss unchanged.
func resolveColor(c string) string {
	if hex, ok := palette[strings.ToLower(c)]; ok {
		return hex
	}
	return c
}

// Console is a Screen that writes styled lines to a terminal.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	screen string
	pen    string
	style  lipgloss.Style
}

// NewConsole creates a Console writing to w with the given colors.
func NewConsole(w io.Writer, screen, pen string) *Console {
	c := &Console{w: w}
	c.setColors(screen, pen)
	return c
}

func (c *Console) setColors(screen, pen string) {
	if screen != "" {
		c.screen = screen
	}
	if pen != "" {
		c.pen = pen
	}
	c.style = lipgloss.NewStyle().
		Background(lipgloss.Color(resolveColor(c.screen))).
		Foreground(lipgloss.Color(resolveColor(c.pen))).
		Bold(true).
		Width(Width)
}

// Clear draws an empty screen-colored bar and sets the colors for
// subsequent lines.
func (c *Console) Clear(screen, pen string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setColors(screen, pen)
	fmt.Fprintln(c.w, c.style.Render(""))
}

// Print writes one line.
func (c *Console) Print(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, c.style.Render(msg))
}

// Colors returns the current screen and pen colors.
func (c *Console) Colors() (screen, pen string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen, c.pen
}

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(12)

	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8800"))
	historyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginLeft(2)
)

func valueStyle(v string) lipgloss.Style {
	switch v {
	case "DOWN", "RUNNING", "PRESENT", "HUGGING", "on":
		return goodStyle
	case "UNKNOWN", "WINDING", "REVERSED", "DOWN?", "down":
		return warnStyle
	}
	return idleStyle
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(label),
		valueStyle(value).Render(value))
}

// RenderStatus renders a multi-line status block for snap.
func RenderStatus(snap status.Snapshot) string {
	launcher := orUnknown(string(snap.Launcher))
	if snap.ArmUnconfirmed {
		launcher += "?"
	}
	rows := []string{
		row("launcher", launcher),
		row("belt", onOff(snap.Belt)),
		row("intake", orUnknown(string(snap.Intake))),
		row("gripper", orUnknown(string(snap.Gripper))),
		row("pump", onOff(snap.Pump)),
		row("continuous", onOff(snap.Continuous)),
	}

	sensors := append([]status.SensorStatus(nil), snap.Sensors...)
	sort.Slice(sensors, func(i, j int) bool { return sensors[i].Name < sensors[j].Name })
	for _, s := range sensors {
		rows = append(rows, row(s.Name+" eye", orUnknown(string(s.Presence))))
	}

	if snap.ReadErrors > 0 {
		rows = append(rows, row("read errors", fmt.Sprint(snap.ReadErrors)))
	}
	if snap.Link.State != "" {
		rows = append(rows, row("remote", snap.Link.State))
		if snap.Link.Ignored > 0 {
			rows = append(rows, row("ignored", fmt.Sprint(snap.Link.Ignored)))
		}
	}
	rows = append(rows, row("uptime", snap.Uptime().Truncate(time.Second).String()))

	for _, e := range snap.History {
		rows = append(rows, historyStyle.Render(fmt.Sprintf("%s %s", e.Time.Format("15:04:05.000"), e.Event)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
