// Package bpmn reads BPMN 2.0 process diagrams.
//
// Only the semantic model is read. Diagram interchange (BPMNDI) shapes and
// waypoints are ignored because layout is recomputed by Graphviz.
package bpmn

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoProcess is returned when a file defines neither processes nor a
// collaboration.
var ErrNoProcess = errors.New("no process defined")

type Definitions struct {
	XMLName        xml.Name        `xml:"definitions"`
	ID             string          `xml:"id,attr"`
	Name           string          `xml:"name,attr"`
	Collaborations []Collaboration `xml:"collaboration"`
	Processes      []Process       `xml:"process"`
}

type Collaboration struct {
	ID           string        `xml:"id,attr"`
	Name         string        `xml:"name,attr"`
	Participants []Participant `xml:"participant"`
	MessageFlows []Element     `xml:"messageFlow"`
	Elements     []Element     `xml:",any"`
}

// Participant is a pool. ProcessRef is empty for collapsed pools.
type Participant struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name,attr"`
	ProcessRef string `xml:"processRef,attr"`
}

type Process struct {
	ID       string    `xml:"id,attr"`
	Name     string    `xml:"name,attr"`
	Elements []Element `xml:",any"`
}

// Element is any child of a process, sub-process or collaboration. The
// element's local name decides its Kind.
type Element struct {
	XMLName        xml.Name
	ID             string    `xml:"id,attr"`
	Name           string    `xml:"name,attr"`
	SourceRef      string    `xml:"sourceRef,attr"`
	TargetRef      string    `xml:"targetRef,attr"`
	AttachedToRef  string    `xml:"attachedToRef,attr"`
	CancelActivity string    `xml:"cancelActivity,attr"`
	Text           string    `xml:"text"`
	Elements       []Element `xml:",any"`
}

type Kind int

const (
	Other Kind = iota
	StartEvent
	EndEvent
	IntermediateEvent
	BoundaryEvent
	Task
	SubProcess
	Gateway
	DataObject
	DataStore
	Annotation
	SequenceFlow
	MessageFlow
	Association
)

var kinds = map[string]Kind{
	"startEvent":             StartEvent,
	"endEvent":               EndEvent,
	"intermediateCatchEvent": IntermediateEvent,
	"intermediateThrowEvent": IntermediateEvent,
	"boundaryEvent":          BoundaryEvent,
	"task":                   Task,
	"userTask":               Task,
	"serviceTask":            Task,
	"scriptTask":             Task,
	"sendTask":               Task,
	"receiveTask":            Task,
	"manualTask":             Task,
	"businessRuleTask":       Task,
	"callActivity":           Task,
	"subProcess":             SubProcess,
	"transaction":            SubProcess,
	"adHocSubProcess":        SubProcess,
	"exclusiveGateway":       Gateway,
	"parallelGateway":        Gateway,
	"inclusiveGateway":       Gateway,
	"eventBasedGateway":      Gateway,
	"complexGateway":         Gateway,
	"dataObjectReference":    DataObject,
	"dataStoreReference":     DataStore,
	"textAnnotation":         Annotation,
	"sequenceFlow":           SequenceFlow,
	"messageFlow":            MessageFlow,
	"association":            Association,
}

func (e Element) Kind() Kind {
	return kinds[e.XMLName.Local]
}

// Type is the element's local name, e.g. "userTask".
func (e Element) Type() string {
	return e.XMLName.Local
}

// EventDefinition returns the trigger of an event without the
// "EventDefinition" suffix, e.g. "timer", or "" for plain events.
func (e Element) EventDefinition() string {
	for _, child := range e.Elements {
		if def, ok := strings.CutSuffix(child.XMLName.Local, "EventDefinition"); ok {
			return def
		}
	}
	return ""
}

// Label is the text shown for the element.
func (e Element) Label() string {
	if e.Kind() == Annotation {
		return strings.TrimSpace(e.Text)
	}
	return strings.TrimSpace(e.Name)
}

func Parse(r io.Reader) (*Definitions, error) {
	defs := &Definitions{}
	if err := xml.NewDecoder(r).Decode(defs); err != nil {
		return nil, errors.Wrap(err, "unable to parse bpmn")
	}
	if len(defs.Processes) == 0 && len(defs.Collaborations) == 0 {
		return nil, ErrNoProcess
	}
	return defs, nil
}

func ParseFile(path string) (*Definitions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	defs, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return defs, nil
}

// Title picks a heading for the diagram: the definitions name, the name of
// a lone process or pool, or fallback.
func (d *Definitions) Title(fallback string) string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	var names []string
	for _, c := range d.Collaborations {
		for _, p := range c.Participants {
			if p.Name != "" {
				names = append(names, p.Name)
			}
		}
	}
	if len(names) == 0 {
		for _, p := range d.Processes {
			if p.Name != "" {
				names = append(names, p.Name)
			}
		}
	}
	if len(names) == 1 {
		return strings.TrimSpace(names[0])
	}
	return fallback
}
