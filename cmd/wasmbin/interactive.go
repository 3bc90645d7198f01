package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasmbin/wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectSection modelState = iota
	stateShowSection
	stateFilter
)

type interactiveModel struct {
	err      error
	module   *wasm.Module
	filename string
	features string
	lines    []string
	sums     []wasm.Summary
	viewport viewport.Model
	filter   textinput.Model
	selected int
	state    modelState
}

func newInteractiveModel(filename, features string) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.Width = 40
	return &interactiveModel{
		filename: filename,
		features: features,
		filter:   ti,
		viewport: viewport.New(80, 20),
		state:    stateSelectSection,
	}
}

type loadedMsg struct {
	err    error
	module *wasm.Module
	sums   []wasm.Summary
}

type detailMsg struct {
	err   error
	lines []string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *interactiveModel) loadModule() tea.Msg {
	mod, _, err := loadModule(m.filename, m.features)
	if err != nil {
		return loadedMsg{err: err}
	}
	sums, err := mod.Summaries()
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{module: mod, sums: sums}
}

func (m *interactiveModel) forceAll() tea.Msg {
	if err := m.module.ForceAll(context.Background()); err != nil {
		return loadedMsg{err: err}
	}
	sums, err := m.module.Summaries()
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{module: m.module, sums: sums}
}

func (m *interactiveModel) describeSelected() tea.Msg {
	lines, err := describeSection(m.module, m.module.Sections[m.selected])
	return detailMsg{lines: lines, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-5, 1)

	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "enter", "esc":
				if msg.String() == "esc" {
					m.filter.SetValue("")
				}
				m.filter.Blur()
				m.state = stateShowSection
				m.refreshDetail()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.refreshDetail()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectSection && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down", "j":
			if m.state == stateSelectSection && m.selected < len(m.sums)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			if m.state == stateSelectSection && m.module != nil && len(m.sums) > 0 {
				return m, m.describeSelected
			}

		case "f":
			if m.state == stateSelectSection && m.module != nil {
				return m, m.forceAll
			}

		case "/":
			if m.state == stateShowSection {
				m.state = stateFilter
				return m, m.filter.Focus()
			}

		case "esc":
			if m.state == stateShowSection {
				m.state = stateSelectSection
				m.lines = nil
				m.err = nil
				m.filter.SetValue("")
				return m, nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.module = msg.module
		m.sums = msg.sums

	case detailMsg:
		m.lines = msg.lines
		m.err = msg.err
		m.state = stateShowSection
		// describing forces the section, so sizes and states change
		if sums, err := m.module.Summaries(); err == nil {
			m.sums = sums
		}
		m.refreshDetail()
		m.viewport.GotoTop()
		return m, nil
	}

	if m.state == stateShowSection {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) refreshDetail() {
	needle := strings.ToLower(m.filter.Value())
	var b strings.Builder
	for _, l := range filterLines(m.lines, needle) {
		b.WriteString(l)
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}

// filterLines keeps the lines containing needle, case-insensitively.
func filterLines(lines []string, needle string) []string {
	if needle == "" {
		return lines
	}
	var out []string
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), needle) {
			out = append(out, l)
		}
	}
	return out
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state == stateSelectSection {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.module == nil {
		return "Loading module..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("WASM Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectSection:
		b.WriteString("Select a section:\n\n")
		for i, s := range m.sums {
			line := s.String()
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + styleSummary(s, line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter show • f force all • q quit"))

	case stateShowSection, stateFilter:
		s := m.sums[m.selected]
		b.WriteString(fmt.Sprintf("Section %s\n", funcStyle.Render(s.ID.String())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		} else {
			b.WriteString(m.viewport.View())
			b.WriteString("\n")
		}
		if m.state == stateFilter {
			b.WriteString(m.filter.View())
		} else {
			b.WriteString(helpStyle.Render("↑/↓ scroll • / filter • esc back • q quit"))
		}
	}
	return b.String()
}

func styleSummary(s wasm.Summary, line string) string {
	switch {
	case s.ID == wasm.SectionCustom:
		return helpStyle.Render(line)
	case s.Forced:
		return funcStyle.Render(line)
	default:
		return typeStyle.Render(line)
	}
}

func runInteractive(filename, features string) error {
	p := tea.NewProgram(newInteractiveModel(filename, features), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
