package domain

import "time"

// PageStatus is the visibility of a published page.
type PageStatus string

const (
	PageDraft     PageStatus = "draft"
	PagePublished PageStatus = "published"
)

// PublishedPage is a generated page keyed by its slug. Location, industry and
// combo pages share this shape; the content type selects the table.
type PublishedPage struct {
	ID           string
	ContentType  ContentType
	Slug         string
	LocationSlug string
	IndustrySlug string
	Title        string
	Content      map[string]any
	Status       PageStatus
	PublishedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Completion is what an AI provider returned: raw text, or an already
// decoded object when the provider supports structured output.
type Completion struct {
	Text       string
	Structured map[string]any
}

// Len approximates the response size for generation logs.
func (c Completion) Len() int {
	return len(c.Text)
}
