package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/offthechainak/hourbank/pkg/core/model"
)

// ClockOutFunc closes the watched session and returns the completed event.
type ClockOutFunc func() (*model.ClockEvent, error)

// SessionModel is the bubbletea model behind `hourbank status --watch`. It
// renders a live clock for the volunteer's open session and can close the
// session in place.
type SessionModel struct {
	width  int
	height int

	volunteer *model.Volunteer
	event     *model.ClockEvent

	elapsed time.Duration

	clockingOut bool
	exiting     bool
}

type tickMsg struct{}

func NewSessionModel(volunteer *model.Volunteer, event *model.ClockEvent) SessionModel {
	return SessionModel{
		volunteer: volunteer,
		event:     event,
		elapsed:   time.Since(event.StartTime),
	}
}

func (m SessionModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.elapsed = time.Since(m.event.StartTime)
		if m.clockingOut || m.exiting {
			return m, nil
		}
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "o", "O":
			m.clockingOut = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.exiting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m SessionModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	var components []string

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Align(lipgloss.Center).
		Width(m.width)
	components = append(components, headerStyle.Render("⏱  ON SHIFT  ⏱"))

	nameStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Align(lipgloss.Center).
		Width(m.width)
	components = append(components, nameStyle.Render(m.volunteer.Name))

	components = append(components, m.renderBigClock())

	hours := m.elapsed.Hours()
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)
	info := fmt.Sprintf("Started at %s · %.2f hours so far · balance %.2f",
		m.event.StartTime.Local().Format("15:04:05"), hours, m.volunteer.Hours)
	components = append(components, infoStyle.Render(info))

	panel := lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))

	return lipgloss.JoinVertical(lipgloss.Left, panel, helpBar)
}

// renderBigClock renders the elapsed time as ASCII art digits.
func (m SessionModel) renderBigClock() string {
	duration := m.elapsed
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	timeStr := fmt.Sprintf("%02d:%02d", minutes, seconds)
	if hours > 0 {
		timeStr = fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}

	var lines [5]strings.Builder
	for _, char := range timeStr {
		art, ok := clockDigits[char]
		if !ok {
			continue
		}
		for i := 0; i < 5; i++ {
			lines[i].WriteString(art[i])
			lines[i].WriteString(" ")
		}
	}

	clockStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true)

	var rendered []string
	for i := 0; i < 5; i++ {
		line := lipgloss.NewStyle().
			Align(lipgloss.Center).
			Width(m.width).
			Render(clockStyle.Render(lines[i].String()))
		rendered = append(rendered, line)
	}
	return strings.Join(rendered, "\n")
}

// clockDigits holds 5-row ASCII art for each clock character.
var clockDigits = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

func (m SessionModel) renderHelpBar() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)

	return helpStyle.Render("o clock out · esc/q exit (stay clocked in) · ctrl+c force quit")
}

// RunSessionTimer runs the live session view. When the volunteer presses o,
// clockOut is invoked after the program releases the terminal.
func RunSessionTimer(volunteer *model.Volunteer, event *model.ClockEvent, clockOut ClockOutFunc) error {
	p := tea.NewProgram(NewSessionModel(volunteer, event), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	m := finalModel.(SessionModel)
	switch {
	case m.clockingOut:
		completed, err := clockOut()
		if err != nil {
			return fmt.Errorf("failed to clock out: %w", err)
		}
		credited := 0.0
		if completed.HoursAccumulated != nil {
			credited = *completed.HoursAccumulated
		}
		fmt.Printf("⏹️  Clocked out %s\n", volunteer.Name)
		fmt.Printf("📊 Session length: %s (%.2f hours credited)\n", formatDuration(completed.Elapsed()), credited)
	case m.exiting:
		fmt.Printf("\n💡 Still clocked in since %s.\n", event.StartTime.Local().Format("15:04:05"))
		fmt.Printf("   Use 'hourbank status' to check the session or 'hourbank clockout' to close it.\n")
	}

	return nil
}

func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	return fmt.Sprintf("%.0fs", d.Seconds())
}
