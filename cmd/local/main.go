package main

import (
	"chinchi/internal/board"
	"chinchi/internal/local"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	lip "github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lip.NewStyle().Foreground(lip.Color("#F1FA8C")).Bold(true)
	footerStyle = lip.NewStyle().Foreground(lip.Color("#6272A4"))
	cellStyle   = lip.NewStyle().Foreground(lip.Color("#BD93F9"))
	chiStyle    = lip.NewStyle().Foreground(lip.Color("#8BE9FD"))
	nStyle      = lip.NewStyle().Foreground(lip.Color("#FF79C6"))
	winStyle    = lip.NewStyle().Foreground(lip.Color("#50FA7B")).Bold(true)
	cursorStyle = lip.NewStyle().Background(lip.Color("#44475A")).Bold(true)
	errStyle    = lip.NewStyle().Foreground(lip.Color("#FF5555"))
)

type model struct {
	game    *local.Game
	cursorX int
	cursorY int
	outcome local.Outcome
	err     error
}

func newModel(length int) model {
	return model{game: local.New(length), cursorX: board.Size / 2, cursorY: board.Size / 2}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		m.cursorY = max(m.cursorY-1, 0)
	case "down", "j":
		m.cursorY = min(m.cursorY+1, board.Size-1)
	case "left", "h":
		m.cursorX = max(m.cursorX-1, 0)
	case "right", "l":
		m.cursorX = min(m.cursorX+1, board.Size-1)
	case "c", "1":
		m.place(board.Chi)
	case "n", "2":
		m.place(board.N)
	case "r":
		if m.game.Over() {
			m.game.Rematch()
			m.outcome = local.Outcome{}
			m.err = nil
		}
	}
	return m, nil
}

func (m *model) place(glyph string) {
	out, err := m.game.Place(board.Index(m.cursorX, m.cursorY), glyph)
	m.err = err
	if err == nil {
		m.outcome = out
	}
}

func (m model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("ちんち  (alternate %d in a row)", m.game.TargetLength)))
	s.WriteString("\n\n")

	for y := 0; y < board.Size; y++ {
		for x := 0; x < board.Size; x++ {
			s.WriteString(m.renderCell(x, y))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")

	switch m.outcome.Result {
	case local.Win:
		s.WriteString(winStyle.Render(fmt.Sprintf("player %d wins!", m.outcome.Winner+1)))
	case local.Draw:
		s.WriteString(winStyle.Render("board full, draw"))
	default:
		s.WriteString(fmt.Sprintf("player %d to move", m.game.Turn+1))
	}
	s.WriteString("\n")
	if m.err != nil {
		s.WriteString(errStyle.Render(m.err.Error()) + "\n")
	}

	help := "arrows/hjkl move • c place ち • n place ん • q quit"
	if m.game.Over() {
		help = "r rematch • q quit"
	}
	s.WriteString(footerStyle.Render(help) + "\n")
	return s.String()
}

func (m model) renderCell(x, y int) string {
	idx := board.Index(x, y)
	content := m.game.Board[idx]
	if content == board.Empty {
		content = "　"
	}
	cell := "[" + content + "]"

	style := cellStyle
	switch m.game.Board[idx] {
	case board.Chi:
		style = chiStyle
	case board.N:
		style = nStyle
	}
	if m.outcome.Result == local.Win && slices.Contains(m.outcome.Line, idx) {
		style = winStyle
	} else if x == m.cursorX && y == m.cursorY {
		style = style.Inherit(cursorStyle)
	}
	return style.Render(cell)
}

func main() {
	length := flag.Int("length", 4, "alternating run needed to win (1-5)")
	flag.Parse()

	if _, err := tea.NewProgram(newModel(*length), tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
