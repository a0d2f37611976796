package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/olsclient/pkg/ols"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SearchPickerModel - Interactive search hit selection
// =============================================================================

// SearchPickerModel is the bubbletea model for picking one search hit.
type SearchPickerModel struct {
	Hits     []ols.Entity
	Total    int
	Cursor   int
	Selected ols.Entity
	Height   int
	Offset   int
}

// NewSearchPickerModel creates a picker over hits. total is the number of
// hits the query matched, which may exceed len(hits).
func NewSearchPickerModel(hits []ols.Entity, total int) SearchPickerModel {
	return SearchPickerModel{
		Hits:   hits,
		Total:  total,
		Height: 15,
	}
}

func (m SearchPickerModel) Init() tea.Cmd {
	return nil
}

func (m SearchPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Hits)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Hits) == 0 {
				return m, nil
			}
			m.Selected = m.Hits[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m SearchPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select a Result"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Hits))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		label, ontology := hitColumns(m.Hits[i])
		rows = append(rows, []string{cursor, truncate(label, 40), string(m.Hits[i].Kind()), ontology})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Label", "Kind", "Ontology").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 2 || col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d of %d]", m.Cursor+1, len(m.Hits), m.Total)))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// hitColumns returns the display label and ontology of a search hit.
func hitColumns(e ols.Entity) (label, ontology string) {
	switch v := e.(type) {
	case *ols.Ontology:
		return v.Title(), v.OntologyID
	case *ols.Term:
		return v.Label, v.OntologyName
	case *ols.Property:
		return v.Label, v.OntologyName
	case *ols.Individual:
		return v.Label, v.OntologyName
	}
	return e.ID(), ""
}
