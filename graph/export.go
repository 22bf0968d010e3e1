package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coregx/lexforge/leaf"
)

// exportFormat is the small set of rendering primitives DOT and Mermaid
// output differ on; export.go's traversal is shared between both.
type exportFormat interface {
	header() string
	footer() string
	node(id, label string, accept bool) string
	edge(from, to, label string) string
	escape(label string) string
}

// DOT renders the graph in Graphviz's dot format: one box per state,
// accept states colored green, edges labeled with their byte ranges.
func (g *Graph) DOT() string {
	return g.export(dotFormat{})
}

// Mermaid renders the graph as a Mermaid flowchart.
func (g *Graph) Mermaid() string {
	return g.export(mermaidFormat{})
}

func (g *Graph) export(fmtr exportFormat) string {
	var b strings.Builder
	ids := map[[2]uint64]string{}
	next := 0
	nameOf := func(s State) string {
		k := s.key()
		if n, ok := ids[k]; ok {
			return n
		}
		n := "n" + strconv.Itoa(next)
		next++
		ids[k] = n
		return n
	}

	b.WriteString(fmtr.header())

	for _, s := range g.States() {
		data := g.StateData(s)
		id := nameOf(s)
		label := stateLabel(s)
		if data.Type == StateAccept {
			label += "\naccept " + leafLabel(g, data.Accept)
		}
		b.WriteString(fmtr.node(id, fmtr.escape(label), data.Type == StateAccept))

		for _, e := range data.Normal {
			b.WriteString(fmtr.edge(id, nameOf(e.To), fmtr.escape(rangeLabel(e.Class))))
		}
		if data.EOI != nil {
			b.WriteString(fmtr.edge(id, nameOf(*data.EOI), "<eoi>"))
		}
	}

	b.WriteString(fmtr.footer())
	return b.String()
}

func stateLabel(s State) string {
	if s.HasCtx {
		return fmt.Sprintf("dfa %d / ctx %d", s.DFAID, s.Context)
	}
	return fmt.Sprintf("dfa %d", s.DFAID)
}

func leafLabel(g *Graph, id leaf.LeafId) string {
	l := g.leaves.Get(id)
	name := l.Name
	if name == "" {
		name = fmt.Sprintf("#%d", id)
	}
	if prefix, ok := leaf.RequiredPrefix(l); ok {
		return fmt.Sprintf("%s %q", name, prefix)
	}
	return name
}

func rangeLabel(bc ByteClass) string {
	parts := make([]string, 0, len(bc.Ranges))
	for _, r := range bc.Ranges {
		if r.Lo == r.Hi {
			parts = append(parts, byteLabel(r.Lo))
		} else {
			parts = append(parts, byteLabel(r.Lo)+".."+byteLabel(r.Hi))
		}
	}
	return strings.Join(parts, "|")
}

func byteLabel(b byte) string {
	if b >= 0x20 && b < 0x7F && b != '\'' && b != '\\' {
		return string(rune(b))
	}
	return fmt.Sprintf("\\x%02x", b)
}

type dotFormat struct{}

func (dotFormat) header() string { return "digraph Lexer{node[shape=box];splines=ortho;" }
func (dotFormat) footer() string { return "}" }

func (dotFormat) node(id, label string, accept bool) string {
	color := "dodgerblue"
	if accept {
		color = "green"
	}
	return fmt.Sprintf("%s[label=\"%s\",color=%s];", id, label, color)
}

func (dotFormat) edge(from, to, label string) string {
	return fmt.Sprintf("%s->%s[label=\"%s\"];", from, to, label)
}

func (dotFormat) escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

type mermaidFormat struct{}

func (mermaidFormat) header() string { return "flowchart TB\n" }
func (mermaidFormat) footer() string { return "" }

func (mermaidFormat) node(id, label string, accept bool) string {
	color := "#000000"
	if accept {
		color = "#00C853"
	}
	return fmt.Sprintf("%s[\"%s\"]\nstyle %s stroke:%s\n", id, label, id, color)
}

func (mermaidFormat) edge(from, to, label string) string {
	return fmt.Sprintf("%s-->|%s|%s\n", from, label, to)
}

func (mermaidFormat) escape(s string) string {
	s = strings.ReplaceAll(s, `"`, "&quot")
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "\n", "<br>")
}
