package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/modelcitizen/pkg/loader"
)

// BrowseMode represents the current mode of the browse UI
type BrowseMode int

const (
	ModeList BrowseMode = iota
	ModeDetail
)

// BrowseModel is the Bubbletea model for browsing blueprint definitions
type BrowseModel struct {
	mode   BrowseMode
	list   list.Model
	detail DetailView
	width  int
	height int
}

// NewBrowseModel creates a browse UI over defs
func NewBrowseModel(defs []loader.Definition) BrowseModel {
	items := make([]list.Item, len(defs))
	for i, d := range defs {
		items[i] = DefinitionItem{Definition: d}
	}

	l := list.New(items, DefinitionItemDelegate{}, 0, 0)
	l.Title = "Blueprint Definitions"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return BrowseModel{mode: ModeList, list: l}
}

// Mode returns the current mode.
func (m BrowseModel) Mode() BrowseMode {
	return m.mode
}

// Init initializes the model
func (m BrowseModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update handles messages
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			if m.list.FilterState() == list.Filtering {
				break
			}
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "enter", " ":
				item, ok := m.list.SelectedItem().(DefinitionItem)
				if !ok {
					return m, nil
				}
				m.detail = DetailView{Definition: item.Definition}
				m.mode = ModeDetail
				return m, nil
			}

		case ModeDetail:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc", "enter", "backspace":
				m.mode = ModeList
				return m, nil
			}
			return m, nil
		}
	}

	if m.mode == ModeList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI
func (m BrowseModel) View() string {
	switch m.mode {
	case ModeDetail:
		help := helpStyle.Render(FormatKey("esc", "back") + " • " + FormatKey("q", "quit"))
		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Left, m.detail.View(), help),
		)
	default:
		help := helpStyle.Render(
			FormatKey("↑/↓", "navigate") + " • " +
				FormatKey("/", "filter") + " • " +
				FormatKey("enter", "details") + " • " +
				FormatKey("q", "quit"),
		)
		return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), help)
	}
}

// RunBrowseUI starts the interactive browse UI
func RunBrowseUI(defs []loader.Definition) error {
	p := tea.NewProgram(NewBrowseModel(defs))
	_, err := p.Run()
	return err
}
