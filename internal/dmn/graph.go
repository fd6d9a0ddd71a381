package dmn

import (
	"fmt"
	"html"
	"strings"

	"github.com/emicklei/dot"
	"github.com/pkg/errors"

	"github.com/sjansen/bpmn-to-image/internal/diagram"
	"github.com/sjansen/bpmn-to-image/internal/domain/conversion"
)

// ErrViewNotFound is returned when no decision can be shown in the
// requested view.
var ErrViewNotFound = errors.New("view not found")

var hitPolicies = map[string]string{
	"UNIQUE":       "U",
	"FIRST":        "F",
	"PRIORITY":     "P",
	"ANY":          "A",
	"COLLECT":      "C",
	"RULE ORDER":   "R",
	"OUTPUT ORDER": "O",
}

var aggregations = map[string]string{
	"SUM":   "+",
	"MIN":   "<",
	"MAX":   ">",
	"COUNT": "#",
}

// Graph draws defs in the given view.
func Graph(defs *Definitions, view conversion.View, opts diagram.Options) (*diagram.Diagram, error) {
	switch view {
	case conversion.ViewDRD:
		return requirementsGraph(defs, opts), nil
	case conversion.ViewDecision:
		for _, d := range defs.Decisions {
			if d.DecisionTable != nil {
				return single(opts, d.ID, decisionTable(d)), nil
			}
		}
	case conversion.ViewLiteralExpression:
		for _, d := range defs.Decisions {
			if d.LiteralExpression != nil {
				return single(opts, d.ID, literalExpression(d)), nil
			}
		}
	default:
		return nil, errors.Wrapf(conversion.ErrInvalidView, "%q", view)
	}
	return nil, errors.Wrapf(ErrViewNotFound, "no decision has a %s", view)
}

func requirementsGraph(defs *Definitions, opts diagram.Options) *diagram.Diagram {
	opts.TopDown = true
	b := diagram.NewBuilder(opts)
	g := b.Content()

	for _, d := range defs.Decisions {
		n, _ := b.Node(g, d.ID, label(d.Name, d.ID))
		n.Attr("shape", "box")
	}
	for _, i := range defs.InputData {
		n, _ := b.Node(g, i.ID, label(i.Name, i.ID))
		n.Attr("shape", "box").Attr("style", "rounded")
	}
	for _, k := range defs.BusinessKnowledgeModels {
		n, _ := b.Node(g, k.ID, label(k.Name, k.ID))
		n.Attr("shape", "box").Attr("style", "diagonals")
	}
	for _, k := range defs.KnowledgeSources {
		n, _ := b.Node(g, k.ID, label(k.Name, k.ID))
		n.Attr("shape", "note")
	}
	for _, a := range defs.TextAnnotations {
		n, _ := b.Node(g, a.ID, strings.TrimSpace(a.Text))
		n.Attr("shape", "box").Attr("style", "dashed").Attr("fontsize", "10")
	}

	// Requirements point from the required element to the one needing it.
	for _, d := range defs.Decisions {
		information(b, d.ID, d.InformationRequirements)
		knowledge(b, d.ID, d.KnowledgeRequirements)
		authority(b, d.ID, d.AuthorityRequirements)
	}
	for _, k := range defs.BusinessKnowledgeModels {
		knowledge(b, k.ID, k.KnowledgeRequirements)
		authority(b, k.ID, k.AuthorityRequirements)
	}
	for _, k := range defs.KnowledgeSources {
		authority(b, k.ID, k.AuthorityRequirements)
	}
	for _, a := range defs.Associations {
		if e, ok := b.Edge(a.SourceRef.ID(), a.TargetRef.ID()); ok {
			e.Dotted().Attr("arrowhead", "none")
		}
	}
	return b.Diagram()
}

func information(b *diagram.Builder, id string, reqs []Requirement) {
	for _, r := range reqs {
		b.Edge(r.Target(), id)
	}
}

func knowledge(b *diagram.Builder, id string, reqs []Requirement) {
	for _, r := range reqs {
		if e, ok := b.Edge(r.Target(), id); ok {
			e.Dashed().Attr("arrowhead", "open")
		}
	}
}

func authority(b *diagram.Builder, id string, reqs []Requirement) {
	for _, r := range reqs {
		if e, ok := b.Edge(r.Target(), id); ok {
			e.Dashed().Attr("arrowhead", "dot")
		}
	}
}

func single(opts diagram.Options, id string, table string) *diagram.Diagram {
	b := diagram.NewBuilder(opts)
	n, _ := b.Node(b.Content(), id, "")
	n.Attr("shape", "plaintext").
		Attr("margin", "0").
		Attr("label", dot.HTML(table))
	return b.Diagram()
}

// HitPolicy abbreviates a table's hit policy the way DMN editors do,
// e.g. "C+" for COLLECT with SUM aggregation.
func HitPolicy(t *DecisionTable) string {
	policy := t.HitPolicy
	if policy == "" {
		policy = "UNIQUE"
	}
	abbr, ok := hitPolicies[policy]
	if !ok {
		abbr = policy
	}
	return abbr + aggregations[t.Aggregation]
}

func decisionTable(d Decision) string {
	t := d.DecisionTable
	cols := 1 + len(t.Inputs) + len(t.Outputs)

	var sb strings.Builder
	sb.WriteString(`<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0" CELLPADDING="6">`)
	fmt.Fprintf(&sb, `<TR><TD COLSPAN="%d" ALIGN="LEFT"><B>%s</B></TD></TR>`, cols, escape(label(d.Name, d.ID)))

	sb.WriteString(`<TR>`)
	fmt.Fprintf(&sb, `<TD BGCOLOR="#eeeeee">%s</TD>`, escape(HitPolicy(t)))
	for _, in := range t.Inputs {
		fmt.Fprintf(&sb, `<TD BGCOLOR="#eeeeee"><B>%s</B></TD>`, escape(in.Header()))
	}
	for _, out := range t.Outputs {
		fmt.Fprintf(&sb, `<TD BGCOLOR="#dde8f5"><B>%s</B></TD>`, escape(out.Header()))
	}
	sb.WriteString(`</TR>`)

	for i, rule := range t.Rules {
		sb.WriteString(`<TR>`)
		fmt.Fprintf(&sb, `<TD>%d</TD>`, i+1)
		for _, entry := range pad(rule.InputEntries, len(t.Inputs)) {
			fmt.Fprintf(&sb, `<TD>%s</TD>`, escape(entryText(entry)))
		}
		for _, entry := range pad(rule.OutputEntries, len(t.Outputs)) {
			fmt.Fprintf(&sb, `<TD>%s</TD>`, escape(entryText(entry)))
		}
		sb.WriteString(`</TR>`)
	}
	sb.WriteString(`</TABLE>`)
	return sb.String()
}

func literalExpression(d Decision) string {
	var sb strings.Builder
	sb.WriteString(`<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0" CELLPADDING="6">`)
	fmt.Fprintf(&sb, `<TR><TD ALIGN="LEFT"><B>%s</B></TD></TR>`, escape(label(d.Name, d.ID)))
	if v := d.Variable; v != nil {
		fmt.Fprintf(&sb, `<TR><TD ALIGN="LEFT" BGCOLOR="#eeeeee">%s : %s</TD></TR>`,
			escape(v.Name), escape(typeRef(v.TypeRef)))
	}
	lines := strings.Split(strings.TrimSpace(d.LiteralExpression.Text), "\n")
	for i, line := range lines {
		lines[i] = escape(line)
	}
	fmt.Fprintf(&sb, `<TR><TD ALIGN="LEFT" BALIGN="LEFT">%s</TD></TR>`, strings.Join(lines, `<BR/>`))
	sb.WriteString(`</TABLE>`)
	return sb.String()
}

// pad makes sure a rule has a cell for every column.
func pad(entries []Expression, n int) []Expression {
	for len(entries) < n {
		entries = append(entries, Expression{})
	}
	return entries[:n]
}

func entryText(e Expression) string {
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return "-"
	}
	return text
}

func typeRef(t string) string {
	if t == "" {
		return "Any"
	}
	return t
}

func label(name, id string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return id
}

// escape prepares text for a Graphviz HTML-like label. Graphviz rejects
// empty cells, so a space stands in for blank text.
func escape(s string) string {
	if s == "" {
		return " "
	}
	return html.EscapeString(s)
}
