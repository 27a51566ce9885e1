package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/detect"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/metrics"
)

const (
	tickInterval   = 250 * time.Millisecond
	recentLineKeep = 8
)

type tickMsg time.Time

type resultMsg detect.Result

type sessionDoneMsg struct{ err error }

// WatchModel is the live bubbletea view for an active watch session. It
// polls the recorder for aggregate stats and shows the latest detections.
type WatchModel struct {
	room     string
	spinner  spinner.Model
	snapshot func() metrics.Stats
	results  <-chan detect.Result
	done     <-chan error

	stats  metrics.Stats
	recent []string
	start  time.Time
	err    error
	ended  bool
}

func NewWatchModel(room string, snapshot func() metrics.Stats, results <-chan detect.Result, done <-chan error) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = SpinnerStyle
	return WatchModel{
		room:     room,
		spinner:  sp,
		snapshot: snapshot,
		results:  results,
		done:     done,
		start:    time.Now(),
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick(), m.nextResult(), m.waitDone())
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m WatchModel) nextResult() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.results
		if !ok {
			return nil
		}
		return resultMsg(res)
	}
}

func (m WatchModel) waitDone() tea.Cmd {
	return func() tea.Msg {
		return sessionDoneMsg{err: <-m.done}
	}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.ended = true
			return m, tea.Quit
		}

	case tickMsg:
		m.stats = m.snapshot()
		return m, m.tick()

	case resultMsg:
		m.recent = append(m.recent, formatResult(detect.Result(msg)))
		if len(m.recent) > recentLineKeep {
			m.recent = m.recent[len(m.recent)-recentLineKeep:]
		}
		return m, m.nextResult()

	case sessionDoneMsg:
		m.err = msg.err
		m.ended = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) View() string {
	if m.ended {
		return ""
	}

	header := fmt.Sprintf("%s Watching room %s  %s", m.spinner.View(),
		BoldStyle.Foreground(Primary).Render(m.room),
		MutedStyle.Render(time.Since(m.start).Round(time.Second).String()))

	stats := fmt.Sprintf("frames %d   objects %d   %.1f fps   net %s   e2e %s",
		m.stats.Frames, m.stats.Detections, m.stats.FPS,
		formatLatency(m.stats.AvgNetwork), formatLatency(m.stats.AvgEndToEnd))

	lines := []string{header, MutedStyle.Render(stats), ""}
	for _, l := range m.recent {
		lines = append(lines, l)
	}
	lines = append(lines, "", MutedStyle.Render("press q to stop"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Err returns the session error delivered while the view was running.
func (m WatchModel) Err() error { return m.err }

func formatResult(res detect.Result) string {
	if len(res.Detections) == 0 {
		return MutedStyle.Render(fmt.Sprintf("  frame %-6d no objects", res.Frame.Seq))
	}
	labels := ""
	for i, d := range res.Detections {
		if i > 0 {
			labels += ", "
		}
		labels += fmt.Sprintf("%s %.0f%%", d.Label, d.Confidence*100)
	}
	return fmt.Sprintf("  frame %-6d %s", res.Frame.Seq, labels)
}
