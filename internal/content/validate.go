package content

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ContentGenerator/internal/domain"
)

// Validate checks obj against the schema of ct and returns a
// *domain.ValidationError naming every violated field.
func (r *Registry) Validate(ct domain.ContentType, obj map[string]any) error {
	schema, err := r.Resolve(ct)
	if err != nil {
		return err
	}

	var violations []domain.FieldViolation
	for _, rule := range schema.Fields {
		if problem := checkField(rule, obj[rule.Name], obj); problem != "" {
			violations = append(violations, domain.FieldViolation{Field: rule.Name, Problem: problem})
		}
	}

	if len(violations) > 0 {
		return &domain.ValidationError{ContentType: ct, Violations: violations}
	}
	return nil
}

func checkField(rule FieldRule, value any, obj map[string]any) string {
	if _, present := obj[rule.Name]; !present || value == nil {
		return "missing"
	}

	switch rule.Kind {
	case List:
		items, ok := value.([]any)
		if !ok {
			return fmt.Sprintf("expected array, got %T", value)
		}
		if n := countItems(items); n < rule.MinLen {
			return fmt.Sprintf("has %d items, need at least %d", n, rule.MinLen)
		}
	default:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected string, got %T", value)
		}
		if VisibleText(s) == "" {
			return "empty"
		}
	}
	return ""
}

func countItems(items []any) int {
	n := 0
	for _, item := range items {
		switch v := item.(type) {
		case nil:
			continue
		case string:
			if VisibleText(v) == "" {
				continue
			}
		case map[string]any:
			if len(v) == 0 {
				continue
			}
		}
		n++
	}
	return n
}

// VisibleText returns s without markup and surrounding whitespace.
func VisibleText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// Title picks the page title out of validated content.
func Title(obj map[string]any) string {
	if v, ok := obj["title"].(string); ok {
		return VisibleText(v)
	}
	return ""
}
