package content

import (
	"errors"
	"strings"
	"testing"

	"ContentGenerator/internal/domain"
)

func validLocation() map[string]any {
	return map[string]any{
		"title":            "Dentists in Dublin",
		"meta_description": "Find out more.",
		"description":      "<p>Dublin is a busy city.</p>",
		"local_benefits":   []any{"one", "two", "three"},
		"faqs": []any{
			map[string]any{"question": "q1", "answer": "a1"},
			map[string]any{"question": "q2", "answer": "a2"},
		},
	}
}

func TestValidateAcceptsCompleteLocation(t *testing.T) {
	t.Parallel()

	if err := DefaultRegistry().Validate(domain.ContentLocation, validLocation()); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidateReportsShortList(t *testing.T) {
	t.Parallel()

	obj := validLocation()
	obj["local_benefits"] = []any{"one", "two"}

	err := DefaultRegistry().Validate(domain.ContentLocation, obj)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := vErr.Fields(); len(got) != 1 || got[0] != "local_benefits" {
		t.Fatalf("unexpected fields: %v", got)
	}
	if !strings.Contains(err.Error(), "has 2 items, need at least 3") {
		t.Fatalf("unexpected message: %s", err)
	}
}

func TestValidateListsEveryViolation(t *testing.T) {
	t.Parallel()

	obj := map[string]any{
		"title":            "<p>  </p>",
		"meta_description": "fine",
		"intro":            42,
		"benefits":         "not a list",
		"faqs":             []any{"", nil, "only one"},
		"unexpected":       true,
	}

	err := DefaultRegistry().Validate(domain.ContentCombo, obj)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	want := []string{"title", "intro", "benefits", "local_considerations", "faqs"}
	got := vErr.Fields()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestValidateUnknownType(t *testing.T) {
	t.Parallel()

	if err := NewRegistry().Validate(domain.ContentIndustry, map[string]any{}); err == nil {
		t.Fatal("expected error for unregistered schema")
	}
}

func TestVisibleText(t *testing.T) {
	t.Parallel()

	if got := VisibleText("  <div><b>Hello</b> world</div> "); got != "Hello world" {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := VisibleText("plain"); got != "plain" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestSchemaDescribeMentionsMinimums(t *testing.T) {
	t.Parallel()

	schema, err := DefaultRegistry().Resolve(domain.ContentLocation)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	desc := schema.Describe()
	if !strings.Contains(desc, `"local_benefits": array with at least 3 items`) {
		t.Fatalf("description misses list minimum:\n%s", desc)
	}
}
