package bpmn

import (
	"strings"

	"github.com/emicklei/dot"

	"github.com/sjansen/bpmn-to-image/internal/diagram"
)

var gatewaySymbols = map[string]string{
	"exclusiveGateway":  "X",
	"parallelGateway":   "+",
	"inclusiveGateway":  "O",
	"eventBasedGateway": "E",
	"complexGateway":    "*",
}

var eventSymbols = map[string]string{
	"message":     "M",
	"timer":       "T",
	"signal":      "S",
	"error":       "E",
	"escalation":  "!",
	"conditional": "C",
	"link":        "L",
	"compensate":  "<<",
	"cancel":      "X",
	"terminate":   "",
	"multiple":    "*",
}

var taskMarkers = map[string]string{
	"userTask":         "user",
	"serviceTask":      "service",
	"scriptTask":       "script",
	"sendTask":         "send",
	"receiveTask":      "receive",
	"manualTask":       "manual",
	"businessRuleTask": "rule",
	"callActivity":     "call",
}

// Graph lays out every process in defs. Pools become clusters; message
// flows connect across them.
func Graph(defs *Definitions, opts diagram.Options) *diagram.Diagram {
	b := diagram.NewBuilder(opts)
	b.Graph().Attr("forcelabels", "true")

	pools := make(map[string]Participant)
	var participants []Participant
	for _, c := range defs.Collaborations {
		for _, p := range c.Participants {
			participants = append(participants, p)
			if p.ProcessRef != "" {
				pools[p.ProcessRef] = p
			}
		}
	}

	var flows []Element
	for _, p := range defs.Processes {
		g := b.Content()
		if pool, ok := pools[p.ID]; ok {
			g = b.Cluster(g, "cluster_"+pool.ID, firstNonEmpty(pool.Name, p.Name, p.ID))
		} else if len(defs.Processes) > 1 {
			g = b.Cluster(g, "cluster_"+p.ID, firstNonEmpty(p.Name, p.ID))
		}
		flows = append(flows, addElements(b, g, p.Elements)...)
	}

	// Collapsed pools only appear as message flow endpoints.
	for _, p := range participants {
		if p.ProcessRef == "" {
			n, _ := b.Node(b.Content(), p.ID, firstNonEmpty(p.Name, p.ID))
			n.Attr("shape", "box").Attr("width", "3")
		}
	}

	for _, c := range defs.Collaborations {
		for _, e := range c.Elements {
			if e.Kind() == Annotation {
				n, _ := b.Node(b.Content(), e.ID, e.Label())
				annotation(n)
			}
		}
		flows = append(flows, c.MessageFlows...)
		flows = append(flows, associations(c.Elements)...)
	}

	for _, f := range flows {
		connect(b, f)
	}
	return b.Diagram()
}

func addElements(b *diagram.Builder, g *dot.Graph, elements []Element) []Element {
	var flows []Element
	for _, e := range elements {
		switch e.Kind() {
		case SequenceFlow, Association:
			flows = append(flows, e)
		case SubProcess:
			n, _ := b.Node(g, e.ID, e.Label()+"\n[+]")
			n.Attr("shape", "box").Attr("style", "rounded,bold")
			inner := b.Cluster(g, "cluster_"+e.ID, firstNonEmpty(e.Label(), e.Type()))
			inner.Attr("style", "rounded,dashed")
			flows = append(flows, addElements(b, inner, e.Elements)...)
			for _, child := range e.Elements {
				if child.Kind() == StartEvent {
					if edge, ok := b.Edge(e.ID, child.ID); ok {
						edge.Dotted().Attr("arrowhead", "none")
					}
				}
			}
		case Other:
		default:
			n, _ := b.Node(g, e.ID, e.Label())
			style(n, e)
			if e.Kind() == BoundaryEvent {
				flows = append(flows, e)
			}
		}
	}
	return flows
}

func style(n dot.Node, e Element) {
	switch e.Kind() {
	case StartEvent, EndEvent, IntermediateEvent, BoundaryEvent:
		event(n, e)
	case Task:
		label := e.Label()
		if marker, ok := taskMarkers[e.Type()]; ok {
			label = "<" + marker + ">\n" + label
		}
		n.Label(label).Attr("shape", "box").Attr("style", "rounded")
		if e.Type() == "callActivity" {
			n.Attr("penwidth", "3")
		}
	case Gateway:
		n.Attr("shape", "diamond").
			Attr("width", "0.5").
			Attr("height", "0.5").
			Attr("fixedsize", "true").
			Attr("xlabel", e.Label()).
			Label(gatewaySymbols[e.Type()])
	case DataObject:
		n.Attr("shape", "note")
	case DataStore:
		n.Attr("shape", "cylinder")
	case Annotation:
		annotation(n)
	}
}

func event(n dot.Node, e Element) {
	def := e.EventDefinition()
	n.Attr("shape", "circle").
		Attr("width", "0.4").
		Attr("fixedsize", "true").
		Attr("fontsize", "9").
		Attr("xlabel", e.Label()).
		Label(eventSymbols[def])

	switch e.Kind() {
	case EndEvent:
		n.Attr("penwidth", "3")
		if def == "terminate" {
			n.Attr("style", "filled").Attr("fillcolor", "black")
		}
	case IntermediateEvent:
		n.Attr("shape", "doublecircle")
	case BoundaryEvent:
		n.Attr("shape", "doublecircle")
		if e.CancelActivity == "false" {
			n.Attr("style", "dashed")
		}
	}
}

func annotation(n dot.Node) {
	n.Attr("shape", "box").
		Attr("style", "dashed").
		Attr("fontsize", "10")
}

func associations(elements []Element) []Element {
	var result []Element
	for _, e := range elements {
		if e.Kind() == Association {
			result = append(result, e)
		}
	}
	return result
}

func connect(b *diagram.Builder, f Element) {
	if f.Kind() == BoundaryEvent {
		if edge, ok := b.Edge(f.AttachedToRef, f.ID); ok {
			edge.Dotted().Attr("arrowhead", "none")
		}
		return
	}

	edge, ok := b.Edge(f.SourceRef, f.TargetRef)
	if !ok {
		return
	}
	if label := f.Label(); label != "" {
		edge.Label(label)
	}
	switch f.Kind() {
	case MessageFlow:
		edge.Dashed().Attr("arrowhead", "empty").Attr("constraint", "false")
	case Association:
		edge.Dotted().Attr("arrowhead", "none")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
