package client

import (
	"strings"

	"github.com/ppiankov/tckrunner/internal/tck"
)

// ValueDTO is the wire form of a TCK value: exactly one of the three
// fields is populated.
type ValueDTO struct {
	Simple     *SimpleDTO     `json:"simple,omitempty"`
	Components []ComponentDTO `json:"components,omitempty"`
	List       *ListDTO       `json:"list,omitempty"`
}

// SimpleDTO is a scalar value with an optional type annotation.
type SimpleDTO struct {
	Type *string `json:"type"`
	Text *string `json:"text"`
	Nil  bool    `json:"isNil"`
}

// ComponentDTO is a named member of a structured value.
type ComponentDTO struct {
	Name  *string   `json:"name"`
	Value *ValueDTO `json:"value"`
	Nil   bool      `json:"isNil"`
}

// ListDTO is an ordered collection of values.
type ListDTO struct {
	Items []ValueDTO `json:"items"`
	Nil   bool       `json:"isNil"`
}

// InputDTO is a named input value submitted for evaluation.
type InputDTO struct {
	Name  string    `json:"name"`
	Value *ValueDTO `json:"value"`
}

type evaluateRequest struct {
	Invocable string     `json:"invocable"`
	Input     []InputDTO `json:"input"`
}

type errorDTO struct {
	Detail string `json:"detail"`
}

type optionalValueDTO struct {
	Value *ValueDTO `json:"value"`
}

type resultEnvelope struct {
	Data   *optionalValueDTO `json:"data"`
	Errors []errorDTO        `json:"errors"`
}

func (r *resultEnvelope) errorDetails() string {
	details := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		details = append(details, e.Detail)
	}
	return strings.Join(details, ", ")
}

// ValueDTOFrom converts a parsed TCK value into its wire form.
// Returns nil for a nil value.
func ValueDTOFrom(v *tck.Value) *ValueDTO {
	if v == nil {
		return nil
	}
	switch {
	case v.Simple != nil:
		return &ValueDTO{Simple: &SimpleDTO{
			Type: v.Simple.Type,
			Text: v.Simple.Text,
			Nil:  v.Simple.Nil,
		}}
	case v.Components != nil:
		comps := make([]ComponentDTO, 0, len(v.Components))
		for _, c := range v.Components {
			comps = append(comps, ComponentDTO{
				Name:  c.Name,
				Value: ValueDTOFrom(c.Value),
				Nil:   c.Nil,
			})
		}
		return &ValueDTO{Components: comps}
	case v.List != nil:
		l := &ListDTO{Nil: v.List.Nil}
		for i := range v.List.Items {
			item := ValueDTOFrom(&v.List.Items[i])
			if item != nil {
				l.Items = append(l.Items, *item)
			}
		}
		return &ValueDTO{List: l}
	default:
		return nil
	}
}

// InputsFrom converts TCK input nodes into wire form.
func InputsFrom(inputs []tck.InputNode) []InputDTO {
	out := make([]InputDTO, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, InputDTO{Name: in.Name, Value: ValueDTOFrom(in.Value)})
	}
	return out
}

// Equal reports deep equality of two values, treating nil pointers as
// distinct from empty values.
func (v *ValueDTO) Equal(other *ValueDTO) bool {
	if v == nil || other == nil {
		return v == other
	}
	if !v.Simple.equal(other.Simple) {
		return false
	}
	if len(v.Components) != len(other.Components) {
		return false
	}
	for i := range v.Components {
		if !v.Components[i].equal(&other.Components[i]) {
			return false
		}
	}
	return v.List.equal(other.List)
}

func (s *SimpleDTO) equal(other *SimpleDTO) bool {
	if s == nil || other == nil {
		return s == other
	}
	return strPtrEqual(s.Type, other.Type) && strPtrEqual(s.Text, other.Text) && s.Nil == other.Nil
}

func (c *ComponentDTO) equal(other *ComponentDTO) bool {
	if c == nil || other == nil {
		return c == other
	}
	if !strPtrEqual(c.Name, other.Name) || c.Nil != other.Nil {
		return false
	}
	return c.Value.Equal(other.Value)
}

func (l *ListDTO) equal(other *ListDTO) bool {
	if l == nil || other == nil {
		return l == other
	}
	if l.Nil != other.Nil || len(l.Items) != len(other.Items) {
		return false
	}
	for i := range l.Items {
		if !l.Items[i].Equal(&other.Items[i]) {
			return false
		}
	}
	return true
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
