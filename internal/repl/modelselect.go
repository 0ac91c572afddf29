package repl

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ModelOption is one entry of the /model picker.
type ModelOption struct {
	Key      string // config key, e.g. "claude-sonnet"
	Provider string
	Model    string
}

var (
	selectorHeaderStyle    = lipgloss.NewStyle().Bold(true)
	selectorHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	selectorDimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ModelSelector is a bubbletea model for interactively selecting a model
type ModelSelector struct {
	options   []ModelOption
	current   string // Currently active model key
	cursor    int
	selected  string // Selected model key (empty if cancelled)
	cancelled bool
}

// NewModelSelector creates a new model selector with the cursor on current.
func NewModelSelector(options []ModelOption, current string) *ModelSelector {
	cursor := 0
	for i, o := range options {
		if o.Key == current {
			cursor = i
			break
		}
	}

	return &ModelSelector{
		options: options,
		current: current,
		cursor:  cursor,
	}
}

// Init implements tea.Model
func (m *ModelSelector) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *ModelSelector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.selected = m.options[m.cursor].Key
		return m, tea.Quit
	case "esc", "q", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model
func (m *ModelSelector) View() string {
	var b strings.Builder

	b.WriteString(selectorHeaderStyle.Render("Select model:"))
	b.WriteString("\n")

	width := 0
	for _, o := range m.options {
		width = max(width, len(o.Key))
	}

	for i, o := range m.options {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		marker := " "
		if o.Key == m.current {
			marker = "•"
		}

		line := fmt.Sprintf("%s %s %-*s  %s", cursor, marker, width, o.Key,
			selectorDimStyle.Render(o.Provider+"/"+o.Model))

		if i == m.cursor {
			line = selectorHighlightStyle.Render(line)
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(selectorDimStyle.Render("Use ↑/↓ to navigate, Enter to select, Esc to cancel"))

	return b.String()
}

// RunModelSelector runs the interactive model selector and returns the
// selected model key. Returns an empty string if cancelled.
func RunModelSelector(options []ModelOption, current string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no models available")
	}

	p := tea.NewProgram(NewModelSelector(options, current))

	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("error running selector: %w", err)
	}

	selector := finalModel.(*ModelSelector)
	if selector.cancelled {
		return "", nil
	}

	return selector.selected, nil
}
