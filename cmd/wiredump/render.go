package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wire-runtime/schema"
)

type styles struct {
	name  lipgloss.Style
	typ   lipgloss.Style
	value lipgloss.Style
	pos   lipgloss.Style
}

func plainStyles() styles {
	s := lipgloss.NewStyle()
	return styles{name: s, typ: s, value: s, pos: s}
}

func colorStyles() styles {
	return styles{
		name:  lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		typ:   lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		value: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Bold(true),
		pos:   lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

// formatNode renders one node without its children.
func formatNode(n schema.Node, st styles) string {
	var b strings.Builder
	b.WriteString(st.name.Render(n.Name))
	b.WriteString(": ")
	b.WriteString(st.typ.Render(n.Type))
	if n.Value != "" {
		b.WriteString(" = ")
		b.WriteString(st.value.Render(n.Value))
	}
	b.WriteString(" ")
	b.WriteString(st.pos.Render(fmt.Sprintf("@%d:%d", n.Segment, n.Offset)))
	return b.String()
}

func renderTree(n schema.Node, st styles) string {
	var b strings.Builder
	var walk func(n schema.Node, depth int)
	walk = func(n schema.Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(formatNode(n, st))
		b.WriteByte('\n')
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return b.String()
}
