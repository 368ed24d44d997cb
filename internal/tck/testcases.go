// Package tck parses DMN TCK test-case files.
package tck

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"
)

// CaseType is the kind of invocable a test case targets.
type CaseType int

const (
	Decision CaseType = iota
	BusinessKnowledgeModel
	DecisionService
)

func (t CaseType) String() string {
	switch t {
	case BusinessKnowledgeModel:
		return "bkm"
	case DecisionService:
		return "decisionService"
	default:
		return "decision"
	}
}

// ParseCaseType maps a type attribute to a CaseType. Unknown or empty
// values default to Decision.
func ParseCaseType(s string) CaseType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bkm":
		return BusinessKnowledgeModel
	case "decisionservice":
		return DecisionService
	default:
		return Decision
	}
}

// TestCases is a parsed TCK test file.
type TestCases struct {
	ModelName string
	Labels    []string
	Cases     []TestCase
}

// TestCase is a single testCase element.
type TestCase struct {
	ID            string
	Name          string
	Type          CaseType
	Description   string
	InvocableName string
	Inputs        []InputNode
	Results       []ResultNode
}

// InputNode is a named input value for a test case.
type InputNode struct {
	Name  string
	Value *Value
}

// ResultNode is an expected result for a test case.
type ResultNode struct {
	Name        string
	ErrorResult bool
	Type        CaseType
	Cast        string
	Expected    *Value
	Computed    *Value
}

// Value is a TCK value: exactly one of Simple, Components or List is set.
type Value struct {
	Simple     *Simple
	Components []Component
	List       *List
}

// Simple is a scalar value with an optional xsd type annotation.
type Simple struct {
	Type *string
	Text *string
	Nil  bool
}

// Component is a named member of a structured value.
type Component struct {
	Name  *string
	Value *Value
	Nil   bool
}

// List is an ordered collection of values.
type List struct {
	Items []Value
	Nil   bool
}

const xsiNS = "http://www.w3.org/2001/XMLSchema-instance"

// Raw decoding layer. The TCK schema allows a value to appear as a simple
// <value> element, a run of <component> elements, or a <list> element, at
// any nesting depth; these structs mirror that shape and are converted to
// the exported model afterwards.

type testCasesXML struct {
	XMLName   xml.Name      `xml:"testCases"`
	ModelName string        `xml:"modelName"`
	Labels    []string      `xml:"labels>label"`
	Cases     []testCaseXML `xml:"testCase"`
}

type testCaseXML struct {
	ID            string          `xml:"id,attr"`
	Name          string          `xml:"name,attr"`
	Type          string          `xml:"type,attr"`
	InvocableName string          `xml:"invocableName,attr"`
	Description   string          `xml:"description"`
	Inputs        []inputNodeXML  `xml:"inputNode"`
	Results       []resultNodeXML `xml:"resultNode"`
}

type inputNodeXML struct {
	Name string `xml:"name,attr"`
	valueBodyXML
}

type resultNodeXML struct {
	Name        string        `xml:"name,attr"`
	ErrorResult string        `xml:"errorResult,attr"`
	Type        string        `xml:"type,attr"`
	Cast        string        `xml:"cast,attr"`
	Expected    *valueBodyXML `xml:"expected"`
	Computed    *valueBodyXML `xml:"computed"`
}

// valueBodyXML holds the three mutually exclusive value forms.
type valueBodyXML struct {
	Value      *simpleXML     `xml:"value"`
	Components []componentXML `xml:"component"`
	List       *listXML       `xml:"list"`
}

type simpleXML struct {
	Type *string `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr"`
	Nil  string  `xml:"http://www.w3.org/2001/XMLSchema-instance nil,attr"`
	Text string  `xml:",chardata"`
}

type componentXML struct {
	Name *string `xml:"name,attr"`
	Nil  string  `xml:"http://www.w3.org/2001/XMLSchema-instance nil,attr"`
	valueBodyXML
}

type listXML struct {
	Nil   string         `xml:"http://www.w3.org/2001/XMLSchema-instance nil,attr"`
	Items []valueBodyXML `xml:"item"`
}

// ParseFile reads and parses a TCK test file. The root element must be
// testCases.
func ParseFile(path string) (*TestCases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses TCK test-case XML. name is used in error messages only.
func Parse(data []byte, name string) (*TestCases, error) {
	var raw testCasesXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse test file %s: %w", name, err)
	}

	tc := &TestCases{
		ModelName: strings.TrimSpace(raw.ModelName),
		Labels:    raw.Labels,
	}
	for _, c := range raw.Cases {
		parsed, err := parseCase(c)
		if err != nil {
			return nil, fmt.Errorf("test file %s: %w", name, err)
		}
		tc.Cases = append(tc.Cases, parsed)
	}
	return tc, nil
}

func parseCase(c testCaseXML) (TestCase, error) {
	out := TestCase{
		ID:            c.ID,
		Name:          c.Name,
		Type:          ParseCaseType(c.Type),
		Description:   strings.TrimSpace(c.Description),
		InvocableName: c.InvocableName,
	}
	for _, in := range c.Inputs {
		if in.Name == "" {
			return out, fmt.Errorf("test case %q: inputNode without name attribute", c.ID)
		}
		out.Inputs = append(out.Inputs, InputNode{
			Name:  in.Name,
			Value: parseValue(in.valueBodyXML),
		})
	}
	for _, rn := range c.Results {
		if rn.Name == "" {
			return out, fmt.Errorf("test case %q: resultNode without name attribute", c.ID)
		}
		node := ResultNode{
			Name:        rn.Name,
			ErrorResult: rn.ErrorResult == "true",
			Type:        ParseCaseType(rn.Type),
			Cast:        rn.Cast,
		}
		if rn.Expected != nil {
			node.Expected = parseValue(*rn.Expected)
		}
		if rn.Computed != nil {
			node.Computed = parseValue(*rn.Computed)
		}
		out.Results = append(out.Results, node)
	}
	return out, nil
}

// parseValue converts the raw value forms in precedence order: simple,
// then components, then list. Returns nil when none is present.
func parseValue(body valueBodyXML) *Value {
	if body.Value != nil {
		return &Value{Simple: parseSimple(body.Value)}
	}
	if len(body.Components) > 0 {
		comps := make([]Component, 0, len(body.Components))
		for _, c := range body.Components {
			comps = append(comps, Component{
				Name:  c.Name,
				Value: parseValue(c.valueBodyXML),
				Nil:   c.Nil == "true",
			})
		}
		sortComponents(comps)
		return &Value{Components: comps}
	}
	if body.List != nil {
		if body.List.Nil == "true" {
			return &Value{List: &List{Nil: true}}
		}
		l := &List{}
		for _, item := range body.List.Items {
			if v := parseValue(item); v != nil {
				l.Items = append(l.Items, *v)
			}
		}
		return &Value{List: l}
	}
	return nil
}

func parseSimple(v *simpleXML) *Simple {
	s := &Simple{
		Type: v.Type,
		Nil:  v.Nil == "true",
	}
	if v.Text != "" {
		text := v.Text
		s.Text = &text
	}
	// a typed value without text content reads as the empty string
	if s.Type != nil && s.Text == nil && !s.Nil {
		empty := ""
		s.Text = &empty
	}
	return s
}

// sortComponents orders components by name; unnamed components sort first.
func sortComponents(comps []Component) {
	sort.SliceStable(comps, func(i, j int) bool {
		a, b := comps[i].Name, comps[j].Name
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return *a < *b
		}
	})
}
