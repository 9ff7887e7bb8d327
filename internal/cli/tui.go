package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/ce-mcp/pkg/tools"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listFilterStyle = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// CompilerListModel - Interactive compiler selection
// =============================================================================

// CompilerListModel is the bubbletea model for interactive compiler
// selection. Typing filters the list by id or name.
type CompilerListModel struct {
	Compilers []tools.CompilerInfo
	Filter    string
	Cursor    int
	Offset    int
	Height    int
	Selected  *tools.CompilerInfo

	visible []int
}

func newCompilerListModel(compilers []tools.CompilerInfo) CompilerListModel {
	m := CompilerListModel{Compilers: compilers, Height: 15}
	m.applyFilter()
	return m
}

func (m CompilerListModel) Init() tea.Cmd {
	return nil
}

func (m CompilerListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case tea.KeyDown:
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			selected := m.Compilers[m.visible[m.Cursor]]
			m.Selected = &selected
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				r := []rune(m.Filter)
				m.Filter = string(r[:len(r)-1])
				m.applyFilter()
			}
		case tea.KeySpace:
			m.Filter += " "
			m.applyFilter()
		case tea.KeyRunes:
			m.Filter += string(msg.Runes)
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 7
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// applyFilter recomputes the visible rows and resets the cursor.
func (m *CompilerListModel) applyFilter() {
	needle := strings.ToLower(m.Filter)
	visible := make([]int, 0, len(m.Compilers))
	for i, c := range m.Compilers {
		if needle == "" || strings.Contains(strings.ToLower(c.ID), needle) || strings.Contains(strings.ToLower(c.Name), needle) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	m.Cursor = 0
	m.Offset = 0
}

func (m CompilerListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Compiler"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  type to filter  esc quit"))
	b.WriteString("\n")
	if m.Filter != "" {
		b.WriteString(listFilterStyle.Render("filter: " + m.Filter))
	}
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		c := m.Compilers[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, c.ID, c.Name, c.InstructionSet})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "ISA").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render("  no compiler matches"))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.visible))))
	}

	return b.String()
}
