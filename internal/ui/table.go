package ui

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/metrics"
)

var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Primary).
				Align(lipgloss.Center).
				Padding(0, 1)

	TableRowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TableRowAltStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Padding(0, 1)
)

// RenderRooms prints the coordinator's live rooms as a table.
func RenderRooms(rooms map[string]int) {
	if len(rooms) == 0 {
		PrintInfo("No active rooms.")
		return
	}

	codes := make([]string, 0, len(rooms))
	for code := range rooms {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatTitle
	t.AppendHeader(table.Row{"Room", "Peers"})
	for _, code := range codes {
		t.AppendRow(table.Row{code, rooms[code]})
	}
	t.AppendFooter(table.Row{"Total", len(rooms)})
	t.Render()
}

// RenderSessionSummary prints the final pipeline stats after a watch session
// ends.
func RenderSessionSummary(st metrics.Stats, elapsed time.Duration) {
	rows := [][]string{
		{"Duration", elapsed.Round(time.Second).String()},
		{"Frames processed", fmt.Sprintf("%d", st.Frames)},
		{"Objects detected", fmt.Sprintf("%d", st.Detections)},
		{"Throughput", fmt.Sprintf("%.1f fps", st.FPS)},
		{"Avg network latency", formatLatency(st.AvgNetwork)},
		{"Avg inference latency", formatLatency(st.AvgInference)},
		{"Avg end-to-end latency", formatLatency(st.AvgEndToEnd)},
	}

	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Muted)).
		Headers("Metric", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return TableHeaderStyle
			case row%2 == 1:
				return TableRowAltStyle
			default:
				return TableRowStyle
			}
		})

	fmt.Println(TitleStyle.Render(IconStats + " Session summary"))
	fmt.Println(t)
}

func formatLatency(d time.Duration) string {
	if d == 0 {
		return "n/a"
	}
	return d.Round(100 * time.Microsecond).String()
}
