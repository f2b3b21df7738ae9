package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marshallshelly/modelcitizen/pkg/loader"
)

// DefinitionItem represents a blueprint definition in the list
type DefinitionItem struct {
	Definition loader.Definition
}

func (i DefinitionItem) FilterValue() string {
	return i.Definition.Name + " " + i.Definition.Model + " " + i.Definition.Alias
}

func (i DefinitionItem) Title() string {
	return fmt.Sprintf("%s.%s", i.Definition.Package, i.Definition.Name)
}

func (i DefinitionItem) Description() string {
	return mutedStyle.Render(fmt.Sprintf("%s as %q · %d rule(s)", i.Definition.Model, i.Definition.Alias, len(i.Definition.Rules)))
}

// DefinitionItemDelegate is a custom delegate for definition list items
type DefinitionItemDelegate struct{}

func (d DefinitionItemDelegate) Height() int                             { return 2 }
func (d DefinitionItemDelegate) Spacing() int                            { return 1 }
func (d DefinitionItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d DefinitionItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(DefinitionItem)
	if !ok {
		return
	}

	var s string
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.Title() + "\n  " + i.Description())
	} else {
		s = unselectedItemStyle.Render("  " + i.Title() + "\n  " + i.Description())
	}

	_, _ = fmt.Fprint(w, s)
}

// DetailView renders one definition with its rules
type DetailView struct {
	Definition loader.Definition
}

// View renders the detail view
func (v DetailView) View() string {
	d := v.Definition
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Name))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s:%d", d.File, d.Line)))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "model   %s\n", d.Model)
	fmt.Fprintf(&b, "alias   %s\n", d.Alias)
	if d.Base != "" {
		fmt.Fprintf(&b, "extends %s\n", d.Base)
	}
	b.WriteString("\n")

	if len(d.Rules) == 0 {
		b.WriteString(mutedStyle.Render("No tagged fields"))
	}
	for _, r := range d.Rules {
		fmt.Fprintf(&b, "%-8s %-16s %s\n", FormatKind(r.Kind), r.Field, mutedStyle.Render(r.Tag))
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
