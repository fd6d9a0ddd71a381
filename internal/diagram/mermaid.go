package diagram

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/emicklei/dot"
)

type valuer interface {
	Value(label string) interface{}
}

var mermaidEscaper = strings.NewReplacer(
	`"`, "#quot;",
	"<", "#lt;",
	">", "#gt;",
	"|", "#124;",
	"\n", "<br/>",
)

var tableBreaks = strings.NewReplacer(
	"</TD>", "\t",
	"<BR/>", "\n",
	"</TR>", "\n",
)

// Mermaid writes the diagram as a Mermaid flowchart. Clusters become
// subgraphs; the footer is left out.
func (d *Diagram) Mermaid() string {
	b := d.b
	var sb strings.Builder

	if b.opts.Title != "" {
		fmt.Fprintf(&sb, "---\ntitle: %s\n---\n", strconv.Quote(b.opts.Title))
	}
	if b.opts.TopDown {
		sb.WriteString("flowchart TB\n")
	} else {
		sb.WriteString("flowchart LR\n")
	}

	ids := make(map[string]string, len(b.order))
	for i, id := range b.order {
		ids[id] = "n" + strconv.Itoa(i)
	}
	b.writeMembers(&sb, b.content, ids, 1)

	for _, l := range b.links {
		fmt.Fprintf(&sb, "    %s %s %s\n", ids[l.from], arrow(l.edge), ids[l.to])
	}
	return sb.String()
}

func (b *Builder) writeMembers(sb *strings.Builder, parent *dot.Graph, ids map[string]string, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, id := range b.order {
		if b.parents[id] != parent {
			continue
		}
		left, right := shape(b.nodes[id])
		fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, ids[id], left, nodeText(b.nodes[id]), right)
	}
	for i, s := range b.sections {
		if s.parent != parent {
			continue
		}
		label := mermaidEscaper.Replace(s.label)
		if label == "" {
			label = " "
		}
		fmt.Fprintf(sb, "%ssubgraph c%d[\"%s\"]\n", indent, i, label)
		b.writeMembers(sb, s.graph, ids, depth+1)
		fmt.Fprintf(sb, "%send\n", indent)
	}
}

func attr(v valuer, key string) string {
	switch value := v.Value(key).(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

func shape(n dot.Node) (string, string) {
	switch attr(n, "shape") {
	case "circle":
		return "((", "))"
	case "doublecircle":
		return "(((", ")))"
	case "diamond":
		return "{", "}"
	case "cylinder":
		return "[(", ")]"
	case "note":
		return ">", "]"
	case "box", "plaintext":
		if strings.Contains(attr(n, "style"), "rounded") {
			return "(", ")"
		}
		return "[", "]"
	default:
		return "(", ")"
	}
}

// nodeText combines a node's label and external label. Events and
// gateways carry a symbol as label and their name as xlabel.
func nodeText(n dot.Node) string {
	var parts []string
	switch label := n.Value("label").(type) {
	case dot.HTML:
		parts = append(parts, tableText(string(label)))
	case nil:
	default:
		if text := strings.TrimSpace(fmt.Sprint(label)); text != "" {
			parts = append(parts, mermaidEscaper.Replace(text))
		}
	}
	if x := strings.TrimSpace(attr(n, "xlabel")); x != "" {
		parts = append(parts, mermaidEscaper.Replace(x))
	}
	if len(parts) == 0 {
		return " "
	}
	return strings.Join(parts, "<br/>")
}

// tableText flattens a Graphviz HTML-like table to one line per row with
// cells separated by " | ".
func tableText(s string) string {
	var rows []string
	for _, line := range strings.Split(stripTags(tableBreaks.Replace(s)), "\n") {
		var cells []string
		for _, cell := range strings.Split(line, "\t") {
			if cell = strings.TrimSpace(html.UnescapeString(cell)); cell != "" {
				cells = append(cells, mermaidEscaper.Replace(cell))
			}
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	}
	return strings.Join(rows, "<br/>")
}

func stripTags(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func arrow(e dot.Edge) string {
	style := attr(e, "style")
	broken := style == "dashed" || style == "dotted"
	headless := attr(e, "arrowhead") == "none"

	var line string
	switch {
	case broken && headless:
		line = "-.-"
	case broken:
		line = "-.->"
	case headless:
		line = "---"
	default:
		line = "-->"
	}
	if label := strings.TrimSpace(attr(e, "label")); label != "" {
		line += "|" + mermaidEscaper.Replace(label) + "|"
	}
	return line
}
