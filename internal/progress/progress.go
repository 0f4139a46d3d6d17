// Package progress renders live benchmark progress: a bubbletea dashboard
// for interactive terminals and a plain logging sink for everything else.
package progress

import (
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Display is a progress sink with a lifecycle. Start before the benchmark,
// Stop after; sink events may arrive from any goroutine in between.
type Display interface {
	RunStarted(run int, seed int64)
	HandCompleted(run, handNumber, playersLeft int)
	RunCompleted(run, totalHands int, winner string, err error)
	Start() error
	Stop()
}

// Plain logs progress lines through the standard logger. Used when stdout
// is not a terminal or the dashboard is disabled.
type Plain struct {
	logger *log.Logger
}

// NewPlain builds the logging sink.
func NewPlain(logger *log.Logger) *Plain {
	return &Plain{logger: logger.WithPrefix("progress")}
}

func (p *Plain) Start() error { return nil }
func (p *Plain) Stop()        {}

func (p *Plain) RunStarted(run int, seed int64) {
	p.logger.Info("run started", "run", run, "seed", seed)
}

func (p *Plain) HandCompleted(run, handNumber, playersLeft int) {
	if handNumber%25 == 0 {
		p.logger.Info("run progress", "run", run, "hands", handNumber, "players_left", playersLeft)
	}
}

func (p *Plain) RunCompleted(run, totalHands int, winner string, err error) {
	if err != nil {
		p.logger.Error("run failed", "run", run, "error", err)
		return
	}
	p.logger.Info("run complete", "run", run, "hands", totalHands, "winner", winner)
}

type runStartedMsg struct {
	run  int
	seed int64
}

type handCompletedMsg struct {
	run         int
	handNumber  int
	playersLeft int
}

type runCompletedMsg struct {
	run        int
	totalHands int
	winner     string
	err        error
}

// TUI is the interactive dashboard. Sink callbacks forward messages into
// the bubbletea program, which serializes them, so it is safe to call from
// concurrent runs.
type TUI struct {
	program *tea.Program

	mu      sync.Mutex
	started bool
}

// NewTUI builds a dashboard for the given number of runs.
func NewTUI(runs int) *TUI {
	m := newModel(runs)
	return &TUI{program: tea.NewProgram(m)}
}

// Start launches the dashboard in the background.
func (t *TUI) Start() error {
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()
	go func() {
		_, _ = t.program.Run()
	}()
	return nil
}

// Stop shuts the dashboard down and waits for the terminal to be restored.
func (t *TUI) Stop() {
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()
	if !started {
		return
	}
	t.program.Quit()
	t.program.Wait()
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()
	if started {
		t.program.Send(msg)
	}
}

func (t *TUI) RunStarted(run int, seed int64) {
	t.send(runStartedMsg{run: run, seed: seed})
}

func (t *TUI) HandCompleted(run, handNumber, playersLeft int) {
	t.send(handCompletedMsg{run: run, handNumber: handNumber, playersLeft: playersLeft})
}

func (t *TUI) RunCompleted(run, totalHands int, winner string, err error) {
	t.send(runCompletedMsg{run: run, totalHands: totalHands, winner: winner, err: err})
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type runRow struct {
	run         int
	seed        int64
	hands       int
	playersLeft int
	done        bool
	winner      string
	err         error
}

type model struct {
	spinner   spinner.Model
	totalRuns int
	rows      map[int]*runRow
	completed int
}

func newModel(runs int) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return model{
		spinner:   sp,
		totalRuns: runs,
		rows:      make(map[int]*runRow),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case runStartedMsg:
		m.rows[msg.run] = &runRow{run: msg.run, seed: msg.seed}
	case handCompletedMsg:
		if row, ok := m.rows[msg.run]; ok {
			row.hands = msg.handNumber
			row.playersLeft = msg.playersLeft
		}
	case runCompletedMsg:
		row, ok := m.rows[msg.run]
		if !ok {
			row = &runRow{run: msg.run}
			m.rows[msg.run] = row
		}
		row.done = true
		if msg.totalHands > 0 {
			row.hands = msg.totalHands
		}
		row.winner = msg.winner
		row.err = msg.err
		m.completed++
		if m.completed >= m.totalRuns {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	s := titleStyle.Render(fmt.Sprintf("pokerbench: %d/%d runs complete", m.completed, m.totalRuns)) + "\n\n"

	var runs []int
	for run := range m.rows {
		runs = append(runs, run)
	}
	sort.Ints(runs)

	for _, run := range runs {
		row := m.rows[run]
		label := runStyle.Render(fmt.Sprintf("run %d", row.run))
		switch {
		case row.err != nil:
			s += fmt.Sprintf("%s %s %s\n", failStyle.Render("✗"), label,
				detailStyle.Render(row.err.Error()))
		case row.done:
			s += fmt.Sprintf("%s %s %s\n", doneStyle.Render("✓"), label,
				detailStyle.Render(fmt.Sprintf("%d hands, winner %s", row.hands, row.winner)))
		default:
			s += fmt.Sprintf("%s %s %s\n", m.spinner.View(), label,
				detailStyle.Render(fmt.Sprintf("hand %d, %d players left", row.hands, row.playersLeft)))
		}
	}
	return s
}
