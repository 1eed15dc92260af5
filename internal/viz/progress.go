package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/experiment"
	"github.com/san-kum/invscat/internal/inverse"
)

const (
	sparkWidth = 48
	barWidth   = 32
)

type TickMsg time.Time

// ProgressMsg carries one optimizer iteration into the program.
type ProgressMsg inverse.Progress

// DoneMsg ends the run.
type DoneMsg struct {
	Result *experiment.Result
	Err    error
}

// ProgressModel follows a running experiment. The run itself happens
// elsewhere and reports through ProgressMsg and DoneMsg.
type ProgressModel struct {
	cfg     *config.Config
	cancel  context.CancelFunc
	theme   Theme
	styles  Styles
	frame   int
	start   time.Time
	last    inverse.Progress
	history []float64
	result  *experiment.Result
	err     error
	done    bool
}

// NewProgressModel watches a run of cfg. cancel is called when the user
// quits early; it may be nil.
func NewProgressModel(cfg *config.Config, theme Theme, cancel context.CancelFunc) ProgressModel {
	return ProgressModel{
		cfg:    cfg,
		cancel: cancel,
		theme:  theme,
		styles: NewStyles(theme),
		start:  time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd { return tick() }

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		}
	case TickMsg:
		m.frame++
		if !m.done {
			return m, tick()
		}
	case ProgressMsg:
		m.last = inverse.Progress(msg)
		m.history = append(m.history, msg.F)
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	s := m.styles
	if m.done {
		if m.err != nil {
			return s.Bad.Render("run failed: "+m.err.Error()) + "\n"
		}
		return RenderReport(s, m.cfg, m.result) + "\n"
	}

	var b strings.Builder
	b.WriteString(s.Header.Render(fmt.Sprintf("%s minimizing J(nu) with %s", Spinner(m.frame), m.cfg.Optimizer.Method)))
	b.WriteString("\n")
	b.WriteString(s.row("iteration", m.last.Iteration) + "\n")
	b.WriteString(s.row("J(nu)", m.last.F) + "\n")
	b.WriteString(s.row("|grad|", m.last.GradNorm) + "\n")
	b.WriteString(s.row("elapsed", time.Since(m.start).Round(time.Millisecond).String()) + "\n")
	if limit := m.cfg.Optimizer.MaxIterations; limit > 0 {
		b.WriteString(s.row("budget", s.ProgressBar(float64(m.last.Iteration)/float64(limit), barWidth)) + "\n")
	}
	b.WriteString(s.row("history", Sparkline(log10Series(m.history), sparkWidth)) + "\n")
	b.WriteString(s.Hint.Render("t theme  q quit"))
	return s.Panel.Render(b.String()) + "\n"
}

// Result returns the outcome once DoneMsg has been received.
func (m ProgressModel) Result() (*experiment.Result, error) { return m.result, m.err }

// Iterations is the number of progress messages seen.
func (m ProgressModel) Iterations() int { return len(m.history) }

// Theme is the theme in use.
func (m ProgressModel) Theme() Theme { return m.theme }
