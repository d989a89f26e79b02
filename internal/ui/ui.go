package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/vitals/internal/model"
	"github.com/Dicklesworthstone/vitals/internal/sampler"
	"github.com/Dicklesworthstone/vitals/internal/series"
)

// Board is the read side of the series the loop records into.
type Board interface {
	Views() []series.View
}

// StatsFunc reports loop counters for the status line.
type StatsFunc func() sampler.Stats

// Model renders live metric views. It only reads; the sampling loop runs
// independently and is stopped through cancel on quit.
type Model struct {
	board    Board
	stats    StatsFunc
	store    string
	interval time.Duration
	cancel   context.CancelFunc

	keys   keyMap
	help   help.Model
	width  int
	height int
}

func New(board Board, stats StatsFunc, storePath string, interval time.Duration, cancel context.CancelFunc) *Model {
	if cancel == nil {
		cancel = func() {}
	}
	return &Model{
		board:    board,
		stats:    stats,
		store:    storePath,
		interval: interval,
		cancel:   cancel,
		keys:     defaultKeys(),
		help:     help.New(),
		width:    120,
		height:   40,
	}
}

type keyMap struct {
	Quit key.Binding
	Help key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Quit, k.Help} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Quit, k.Help}} }

type tickMsg struct{}

func tickCmd() tea.Cmd { return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	case tickMsg:
		return m, tickCmd()
	}
	return m, nil
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	naStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	header := titleStyle.Render("Host Vitals") + "  " +
		subtleStyle.Render(fmt.Sprintf("every %s → %s", m.interval, m.store))

	graphWidth := clampInt(m.width/2-8, 20, 120)
	var cards []string
	for _, v := range m.board.Views() {
		cards = append(cards, card(v, graphWidth))
	}

	perRow := 2
	if m.width < 2*(graphWidth+6) {
		perRow = 1
	}
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	parts := []string{header}
	parts = append(parts, rows...)
	parts = append(parts, m.statusLine(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) statusLine() string {
	if m.stats == nil {
		return ""
	}
	st := m.stats()
	line := subtleStyle.Render(fmt.Sprintf("ticks %d", st.Ticks))
	if st.StoreFailures > 0 {
		msg := "store write failed"
		if st.LastError != nil {
			msg = firstLine(st.LastError.Error())
		}
		line += "  " + errStyle.Render(fmt.Sprintf("%d store failures: %s", st.StoreFailures, msg))
	}
	return line
}

func card(v series.View, width int) string {
	value := v.Display
	if !v.Available {
		value = naStyle.Render(model.Unavailable)
	}
	body := fmt.Sprintf("%s\n%s", value, sparkline(v.History, width, v.Metric.IsTemperature()))
	return cardStyle.Render(labelStyle.Render(v.Metric.Label()) + "\n" + body)
}

// sparklineBlocks are block characters for 8-level vertical resolution (lowest to highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// sparkline renders the last width points of data. Percentages use a fixed
// 0-100 scale; temperatures scale to their own range.
func sparkline(data []float64, width int, autoscale bool) string {
	if width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}
	lo, hi := 0.0, 100.0
	if autoscale {
		lo, hi = findMinMax(data)
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(data)))
	for _, v := range data {
		n := 0.5
		if hi > lo {
			n = (v - lo) / (hi - lo)
		}
		idx := clampInt(int(n*float64(len(sparklineBlocks)-1)+0.5), 0, len(sparklineBlocks)-1)
		b.WriteRune(sparklineBlocks[idx])
	}
	return b.String()
}

func findMinMax(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0, 100
	}
	lo, hi = data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func firstLine(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "✗ ")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(m *Model) error {
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
