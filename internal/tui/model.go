package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pixie/internal/processor"
	"pixie/pkg/imgutil"
)

// Model renders live batch progress from a stream of ProgressUpdate deltas.
// It quits once the stream is closed.
type Model struct {
	updates     <-chan processor.ProgressUpdate
	started     time.Time
	width       int
	total       int
	processed   int
	errors      int
	bytesBefore int64
	bytesAfter  int64
	quitting    bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

func NewModel(updates <-chan processor.ProgressUpdate) Model {
	return Model{updates: updates, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.processed += msg.ProcessedDelta
		m.errors += msg.ErrorDelta
		m.bytesBefore += msg.BytesBeforeDelta
		m.bytesAfter += msg.BytesAfterDelta
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

// Done is the number of files that finished, successfully or not.
func (m Model) Done() int {
	return m.processed + m.errors
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = max(20, min(60, m.width-10))
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = math.Min(1, float64(m.Done())/float64(m.total))
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)
	files := labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.Done(), m.total))
	if m.errors > 0 {
		files += warnStyle.Render(fmt.Sprintf("  errors:%d", m.errors))
	}

	lines := []string{
		titleStyle.Render("pixie"),
		files,
		labelStyle.Render(fmt.Sprintf("Size: %s -> %s", imgutil.FormatSize(m.bytesBefore), imgutil.FormatSize(m.bytesAfter))) +
			dimStyle.Render(fmt.Sprintf("  (%.1f%% saved)", processor.CalculateSavings(m.bytesBefore, m.bytesAfter))),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(renderBar(barWidth, ratio)),
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
)
