package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/juliaset/pkg/errors"
	"github.com/matzehuels/juliaset/pkg/outputset"
)

// Progress view styles
var (
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	nameStyle     = lipgloss.NewStyle().Foreground(colorWhite).Width(34)
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	barWidth     = 30
	tickInterval = 100 * time.Millisecond
)

// =============================================================================
// ProgressModel - Live view over running output sets
// =============================================================================

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ProgressModel is the bubbletea model showing one progress bar per output
// set. It quits once every set has finished; q or ctrl+c abandons the sets.
type ProgressModel struct {
	Sets      []*outputset.OutputSet
	Cancelled bool
	Width     int
}

// NewProgressModel creates a progress model over sets.
func NewProgressModel(sets []*outputset.OutputSet) ProgressModel {
	return ProgressModel{Sets: sets, Width: 80}
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Cancelled = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
	case tickMsg:
		if m.finished() {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Generating"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("q cancel"))
	b.WriteString("\n\n")

	for _, o := range m.Sets {
		pct := o.Progress()
		filled := pct * barWidth / 100
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(string(o.Color()))).Render(strings.Repeat("█", filled)) +
			barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))

		status := StyleNumber.Render(fmt.Sprintf("%3d%%", pct))
		// Failed sets are evicted by the session, so check the error first.
		switch st := o.State(); {
		case o.Err() != nil:
			status = styleIconError.Render(iconError + " " + errors.UserMessage(o.Err()))
		case st == outputset.StateResident || st == outputset.StateSpilled:
			status = styleIconSuccess.Render(iconSuccess)
		}

		fmt.Fprintf(&b, "%s %s %s %s\n", swatch(o.Color()), nameStyle.Render(o.String()), bar, status)
	}
	return b.String()
}

func (m ProgressModel) finished() bool {
	for _, o := range m.Sets {
		select {
		case <-o.Done():
		default:
			return false
		}
	}
	return true
}

// runProgress shows the progress view until every set finishes. It returns
// context.Canceled when the user quits early.
func runProgress(ctx context.Context, sets []*outputset.OutputSet) error {
	p := tea.NewProgram(NewProgressModel(sets), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "progress view")
	}
	if m, ok := final.(ProgressModel); ok && m.Cancelled {
		return context.Canceled
	}
	return nil
}
