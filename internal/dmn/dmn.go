// Package dmn reads DMN decision models and draws their three views: the
// decision requirements diagram, decision tables and literal expressions.
package dmn

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoDecision is returned when a file defines no decision.
var ErrNoDecision = errors.New("no decision defined")

type Definitions struct {
	XMLName                 xml.Name                 `xml:"definitions"`
	ID                      string                   `xml:"id,attr"`
	Name                    string                   `xml:"name,attr"`
	Decisions               []Decision               `xml:"decision"`
	InputData               []InputData              `xml:"inputData"`
	BusinessKnowledgeModels []BusinessKnowledgeModel `xml:"businessKnowledgeModel"`
	KnowledgeSources        []KnowledgeSource        `xml:"knowledgeSource"`
	TextAnnotations         []TextAnnotation         `xml:"textAnnotation"`
	Associations            []Association            `xml:"association"`
}

type Decision struct {
	ID                      string             `xml:"id,attr"`
	Name                    string             `xml:"name,attr"`
	Variable                *Variable          `xml:"variable"`
	InformationRequirements []Requirement      `xml:"informationRequirement"`
	KnowledgeRequirements   []Requirement      `xml:"knowledgeRequirement"`
	AuthorityRequirements   []Requirement      `xml:"authorityRequirement"`
	DecisionTable           *DecisionTable     `xml:"decisionTable"`
	LiteralExpression       *LiteralExpression `xml:"literalExpression"`
}

type Variable struct {
	Name    string `xml:"name,attr"`
	TypeRef string `xml:"typeRef,attr"`
}

type InputData struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type BusinessKnowledgeModel struct {
	ID                    string        `xml:"id,attr"`
	Name                  string        `xml:"name,attr"`
	KnowledgeRequirements []Requirement `xml:"knowledgeRequirement"`
	AuthorityRequirements []Requirement `xml:"authorityRequirement"`
}

type KnowledgeSource struct {
	ID                    string        `xml:"id,attr"`
	Name                  string        `xml:"name,attr"`
	AuthorityRequirements []Requirement `xml:"authorityRequirement"`
}

type TextAnnotation struct {
	ID   string `xml:"id,attr"`
	Text string `xml:"text"`
}

type Association struct {
	ID        string `xml:"id,attr"`
	SourceRef Ref    `xml:"sourceRef"`
	TargetRef Ref    `xml:"targetRef"`
}

// Requirement points at exactly one required element.
type Requirement struct {
	RequiredDecision  *Ref `xml:"requiredDecision"`
	RequiredInput     *Ref `xml:"requiredInput"`
	RequiredKnowledge *Ref `xml:"requiredKnowledge"`
	RequiredAuthority *Ref `xml:"requiredAuthority"`
}

// Target is the id of the required element.
func (r Requirement) Target() string {
	for _, ref := range []*Ref{r.RequiredDecision, r.RequiredInput, r.RequiredKnowledge, r.RequiredAuthority} {
		if ref != nil {
			return ref.ID()
		}
	}
	return ""
}

type Ref struct {
	Href string `xml:"href,attr"`
}

// ID strips the leading "#" of a local reference.
func (r Ref) ID() string {
	return strings.TrimPrefix(r.Href, "#")
}

type DecisionTable struct {
	ID          string   `xml:"id,attr"`
	HitPolicy   string   `xml:"hitPolicy,attr"`
	Aggregation string   `xml:"aggregation,attr"`
	Inputs      []Input  `xml:"input"`
	Outputs     []Output `xml:"output"`
	Rules       []Rule   `xml:"rule"`
}

type Input struct {
	ID              string     `xml:"id,attr"`
	Label           string     `xml:"label,attr"`
	InputExpression Expression `xml:"inputExpression"`
}

// Header is what the column shows: its label, else its expression.
func (i Input) Header() string {
	if i.Label != "" {
		return i.Label
	}
	return strings.TrimSpace(i.InputExpression.Text)
}

type Output struct {
	ID      string `xml:"id,attr"`
	Label   string `xml:"label,attr"`
	Name    string `xml:"name,attr"`
	TypeRef string `xml:"typeRef,attr"`
}

func (o Output) Header() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Name
}

type Rule struct {
	ID            string       `xml:"id,attr"`
	Description   string       `xml:"description"`
	InputEntries  []Expression `xml:"inputEntry"`
	OutputEntries []Expression `xml:"outputEntry"`
}

type Expression struct {
	ID      string `xml:"id,attr"`
	TypeRef string `xml:"typeRef,attr"`
	Text    string `xml:"text"`
}

type LiteralExpression struct {
	ID                 string `xml:"id,attr"`
	TypeRef            string `xml:"typeRef,attr"`
	ExpressionLanguage string `xml:"expressionLanguage,attr"`
	Text               string `xml:"text"`
}

func Parse(r io.Reader) (*Definitions, error) {
	defs := &Definitions{}
	if err := xml.NewDecoder(r).Decode(defs); err != nil {
		return nil, errors.Wrap(err, "unable to parse dmn")
	}
	if len(defs.Decisions) == 0 {
		return nil, ErrNoDecision
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

func (d *Definitions) Title(fallback string) string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	return fallback
}
