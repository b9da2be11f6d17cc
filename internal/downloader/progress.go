package downloader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

type progressMsg struct {
	received int64
	total    int64
}

type statusMsg string

type doneMsg struct{ err error }

// progressTracker accumulates byte counts on the reporting goroutine. The
// model sees only progressMsg values, so the two never share state.
type progressTracker struct {
	received     int64
	total        int64
	lastReported int64
}

// account folds one absolute downloaded count into the running totals and
// returns the pair to publish. Fragment restarts report lower absolutes;
// those deltas are skipped.
func (t *progressTracker) account(downloaded, totalEstimate int64) (int64, int64) {
	if delta := downloaded - t.lastReported; delta > 0 {
		t.received += delta
		t.lastReported = downloaded
	}
	if totalEstimate > t.total {
		t.total = totalEstimate
	}
	return t.received, t.total
}

// progressModel renders one download as a progress bar with a status line.
// All mutation happens in Update on the bubbletea loop.
type progressModel struct {
	received int64
	total    int64

	bar    progress.Model
	status string
	done   bool
	err    error
}

func newProgressModel() *progressModel {
	return &progressModel{
		bar:    progress.New(progress.WithDefaultGradient()),
		status: "Starting download...",
	}
}

func (m *progressModel) Init() tea.Cmd {
	return nil
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 72 {
			m.bar.Width = 72
		}
	case progressMsg:
		m.received = msg.received
		m.total = msg.total
	case statusMsg:
		m.status = string(msg)
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *progressModel) View() string {
	if m.done {
		if m.err != nil {
			return fmt.Sprintf("Download failed: %v\n", m.err)
		}
		return "Download complete.\n"
	}

	var b strings.Builder
	b.WriteString(m.status)
	b.WriteString("\n")
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.received) / float64(m.total)
		if percent > 1 {
			percent = 1
		}
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString(fmt.Sprintf("\n%s / %s\n", humanBytes(m.received), humanBytes(m.total)))
	return b.String()
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
