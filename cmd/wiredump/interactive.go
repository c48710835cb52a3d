package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wire-runtime/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type row struct {
	node  *schema.Node
	path  string
	depth int
}

type browserModel struct {
	root      schema.Node
	expanded  map[string]bool
	title     string
	status    string
	rows      []row
	search    textinput.Model
	selected  int
	offset    int
	height    int
	searching bool
}

func newBrowserModel(root schema.Node, title string) *browserModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search"
	ti.Width = 40

	m := &browserModel{
		root:     root,
		title:    title,
		expanded: map[string]bool{root.Name: true},
		search:   ti,
		height:   20,
	}
	m.rebuild()
	return m
}

func (m *browserModel) rebuild() {
	m.rows = m.rows[:0]
	var walk func(n *schema.Node, path string, depth int)
	walk = func(n *schema.Node, path string, depth int) {
		m.rows = append(m.rows, row{node: n, path: path, depth: depth})
		if !m.expanded[path] {
			return
		}
		for i := range n.Children {
			c := &n.Children[i]
			walk(c, path+"/"+c.Name, depth+1)
		}
	}
	walk(&m.root, m.root.Name, 0)
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
}

func (m *browserModel) setAll(expanded bool, n *schema.Node, path string) {
	if len(n.Children) == 0 {
		return
	}
	m.expanded[path] = expanded
	for i := range n.Children {
		c := &n.Children[i]
		m.setAll(expanded, c, path+"/"+c.Name)
	}
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-5, 1)

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		m.status = ""
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}

		case "enter", " ", "right", "l":
			r := m.rows[m.selected]
			if len(r.node.Children) > 0 {
				m.expanded[r.path] = !m.expanded[r.path]
				m.rebuild()
			}

		case "left", "h":
			r := m.rows[m.selected]
			if m.expanded[r.path] {
				m.expanded[r.path] = false
				m.rebuild()
			} else {
				m.selectParent(r)
			}

		case "e":
			m.setAll(true, &m.root, m.root.Name)
			m.rebuild()

		case "c":
			m.setAll(false, &m.root, m.root.Name)
			m.expanded[m.root.Name] = true
			m.rebuild()

		case "/":
			m.searching = true
			m.search.SetValue("")
			return m, m.search.Focus()
		}
	}
	m.scroll()
	return m, nil
}

func (m *browserModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		m.find(m.search.Value())
		m.scroll()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// find expands the whole tree and selects the next row after the current
// one whose rendering contains query.
func (m *browserModel) find(query string) {
	if query == "" {
		return
	}
	current := m.rows[m.selected].path
	m.setAll(true, &m.root, m.root.Name)
	m.rebuild()

	start := 0
	for i, r := range m.rows {
		if r.path == current {
			start = i
			break
		}
	}
	plain := plainStyles()
	for k := 1; k <= len(m.rows); k++ {
		i := (start + k) % len(m.rows)
		if strings.Contains(formatNode(*m.rows[i].node, plain), query) {
			m.selected = i
			return
		}
	}
	m.status = "no match for " + query
}

func (m *browserModel) selectParent(r row) {
	idx := strings.LastIndexByte(r.path, '/')
	if idx < 0 {
		return
	}
	parent := r.path[:idx]
	for i := m.selected - 1; i >= 0; i-- {
		if m.rows[i].path == parent {
			m.selected = i
			return
		}
	}
}

func (m *browserModel) scroll() {
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+m.height {
		m.offset = m.selected - m.height + 1
	}
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Wire Dump"))
	b.WriteString(" ")
	b.WriteString(m.title)
	b.WriteString("\n\n")

	st := colorStyles()
	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		marker := "  "
		if len(r.node.Children) > 0 {
			marker = "▸ "
			if m.expanded[r.path] {
				marker = "▾ "
			}
		}
		indent := strings.Repeat("  ", r.depth)
		if i == m.selected {
			b.WriteString(selectedStyle.Render(indent + marker + formatNode(*r.node, plainStyles())))
		} else {
			b.WriteString(indent + marker + formatNode(*r.node, st))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	default:
		b.WriteString(helpStyle.Render("↑/↓ move • enter toggle • ←/→ collapse/expand • e/c all • / search • q quit"))
	}
	return b.String()
}

func runInteractive(root schema.Node, title string) error {
	p := tea.NewProgram(newBrowserModel(root, title), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
