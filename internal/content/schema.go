package content

import (
	"fmt"
	"strings"

	"ContentGenerator/internal/domain"
)

// FieldKind tells the validator how to measure a field.
type FieldKind int

const (
	// Text is a string that must carry visible text.
	Text FieldKind = iota
	// List is an array with a minimum item count.
	List
)

// FieldRule is one required field of a page schema.
type FieldRule struct {
	Name   string
	Kind   FieldKind
	MinLen int
	Hint   string
}

// Schema enumerates the required fields of one content type.
type Schema struct {
	Type   domain.ContentType
	Fields []FieldRule
}

// Describe renders the schema as prompt instructions.
func (s Schema) Describe() string {
	var b strings.Builder
	for _, f := range s.Fields {
		switch f.Kind {
		case List:
			fmt.Fprintf(&b, "- %q: array with at least %d items. %s\n", f.Name, f.MinLen, f.Hint)
		default:
			fmt.Fprintf(&b, "- %q: string. %s\n", f.Name, f.Hint)
		}
	}
	return b.String()
}

// Registry keeps a mapping from content types to their schemas.
type Registry struct {
	schemas map[domain.ContentType]Schema
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: map[domain.ContentType]Schema{}}
}

// Register adds or replaces a schema.
func (r *Registry) Register(s Schema) {
	if r.schemas == nil {
		r.schemas = map[domain.ContentType]Schema{}
	}
	r.schemas[s.Type] = s
}

// Resolve returns the schema for ct or an error if it is absent.
func (r *Registry) Resolve(ct domain.ContentType) (Schema, error) {
	if s, ok := r.schemas[ct]; ok {
		return s, nil
	}
	return Schema{}, fmt.Errorf("no schema registered for %s", ct)
}

// DefaultRegistry holds the page schemas for all three content types.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(Schema{
		Type: domain.ContentLocation,
		Fields: []FieldRule{
			{Name: "title", Kind: Text, Hint: "Page title naming the location."},
			{Name: "meta_description", Kind: Text, Hint: "One sentence for search snippets."},
			{Name: "description", Kind: Text, Hint: "Overview of doing business in the location."},
			{Name: "local_benefits", Kind: List, MinLen: 3, Hint: "Short bullet points about local advantages."},
			{Name: "faqs", Kind: List, MinLen: 2, Hint: "Objects with \"question\" and \"answer\"."},
		},
	})
	reg.Register(Schema{
		Type: domain.ContentIndustry,
		Fields: []FieldRule{
			{Name: "title", Kind: Text, Hint: "Page title naming the industry."},
			{Name: "meta_description", Kind: Text, Hint: "One sentence for search snippets."},
			{Name: "description", Kind: Text, Hint: "Overview of the industry's needs."},
			{Name: "pain_points", Kind: List, MinLen: 3, Hint: "Problems businesses in the industry face."},
			{Name: "services", Kind: List, MinLen: 3, Hint: "How the product helps the industry."},
			{Name: "faqs", Kind: List, MinLen: 2, Hint: "Objects with \"question\" and \"answer\"."},
		},
	})
	reg.Register(Schema{
		Type: domain.ContentCombo,
		Fields: []FieldRule{
			{Name: "title", Kind: Text, Hint: "Page title naming industry and location."},
			{Name: "meta_description", Kind: Text, Hint: "One sentence for search snippets."},
			{Name: "intro", Kind: Text, Hint: "Opening paragraph for the industry in the location."},
			{Name: "benefits", Kind: List, MinLen: 3, Hint: "Benefits specific to the pair."},
			{Name: "local_considerations", Kind: List, MinLen: 2, Hint: "Local regulations, demand or competition notes."},
			{Name: "faqs", Kind: List, MinLen: 3, Hint: "Objects with \"question\" and \"answer\"."},
		},
	})
	return reg
}
