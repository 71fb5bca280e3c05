package usecase

import (
	"bytes"
	"fmt"
	"text/template"

	"ContentGenerator/internal/content"
	"ContentGenerator/internal/domain"
)

// PromptData is the value templates are executed against.
type PromptData struct {
	Target   domain.Target
	Slug     string
	Location *domain.SeedItem
	Industry *domain.SeedItem
	Fields   string
}

var defaultPromptTemplates = map[domain.ContentType]string{
	domain.ContentLocation: `Write a service landing page for businesses in {{.Location.Name}}.
{{- with .Location.Metadata}}
Location facts:{{range $k, $v := .}}
- {{$k}}: {{$v}}{{end}}{{end}}

Answer with a single JSON object and nothing else. Required fields:
{{.Fields}}`,

	domain.ContentIndustry: `Write a landing page for {{.Industry.Name}} businesses.
{{- with .Industry.Metadata}}
Industry facts:{{range $k, $v := .}}
- {{$k}}: {{$v}}{{end}}{{end}}

Answer with a single JSON object and nothing else. Required fields:
{{.Fields}}`,

	domain.ContentCombo: `Write a landing page for {{.Industry.Name}} businesses in {{.Location.Name}}.
{{- with .Location.Metadata}}
Location facts:{{range $k, $v := .}}
- {{$k}}: {{$v}}{{end}}{{end}}
{{- with .Industry.Metadata}}
Industry facts:{{range $k, $v := .}}
- {{$k}}: {{$v}}{{end}}{{end}}

Answer with a single JSON object and nothing else. Required fields:
{{.Fields}}`,
}

// PromptBuilder renders one prompt per target from per-type templates.
type PromptBuilder struct {
	registry  *content.Registry
	templates map[domain.ContentType]*template.Template
}

// NewPromptBuilder parses the built-in templates, replacing any type that
// has a non-empty entry in overrides.
func NewPromptBuilder(registry *content.Registry, overrides map[domain.ContentType]string) (*PromptBuilder, error) {
	b := &PromptBuilder{registry: registry, templates: map[domain.ContentType]*template.Template{}}
	for _, ct := range domain.AllContentTypes {
		text := defaultPromptTemplates[ct]
		if override := overrides[ct]; override != "" {
			text = override
		}
		tmpl, err := template.New(string(ct)).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s prompt template: %w", ct, err)
		}
		b.templates[ct] = tmpl
	}
	return b, nil
}

// Build renders the prompt for target. location and industry may be nil
// when the content type does not reference that dimension.
func (b *PromptBuilder) Build(target domain.Target, location, industry *domain.SeedItem) (string, error) {
	tmpl, ok := b.templates[target.Type]
	if !ok {
		return "", fmt.Errorf("no prompt template for %s", target.Type)
	}
	schema, err := b.registry.Resolve(target.Type)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, PromptData{
		Target:   target,
		Slug:     target.Slug(),
		Location: location,
		Industry: industry,
		Fields:   schema.Describe(),
	})
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", target, err)
	}
	return buf.String(), nil
}
