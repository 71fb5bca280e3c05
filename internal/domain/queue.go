package domain

import (
	"fmt"
	"time"
)

// ContentType names the page shape a queue item produces.
type ContentType string

const (
	ContentLocation ContentType = "location"
	ContentIndustry ContentType = "industry"
	ContentCombo    ContentType = "combo"
)

// AllContentTypes lists every content type in populate order.
var AllContentTypes = []ContentType{ContentLocation, ContentIndustry, ContentCombo}

// Valid reports whether c is a known content type.
func (c ContentType) Valid() bool {
	switch c {
	case ContentLocation, ContentIndustry, ContentCombo:
		return true
	}
	return false
}

// ParseContentTypes converts config/CLI strings; an empty input means all types.
func ParseContentTypes(values []string) ([]ContentType, error) {
	if len(values) == 0 {
		return append([]ContentType(nil), AllContentTypes...), nil
	}
	out := make([]ContentType, 0, len(values))
	seen := map[ContentType]bool{}
	for _, v := range values {
		ct := ContentType(v)
		if !ct.Valid() {
			return nil, fmt.Errorf("unknown content type %q", v)
		}
		if seen[ct] {
			continue
		}
		seen[ct] = true
		out = append(out, ct)
	}
	return out, nil
}

// Target identifies what a queue item generates. Slugs not used by the
// content type stay empty.
type Target struct {
	Type         ContentType
	LocationSlug string
	IndustrySlug string
}

// Validate enforces the slug shape of each content type.
func (t Target) Validate() error {
	switch t.Type {
	case ContentLocation:
		if t.LocationSlug == "" || t.IndustrySlug != "" {
			return fmt.Errorf("location target needs exactly a location slug")
		}
	case ContentIndustry:
		if t.IndustrySlug == "" || t.LocationSlug != "" {
			return fmt.Errorf("industry target needs exactly an industry slug")
		}
	case ContentCombo:
		if t.LocationSlug == "" || t.IndustrySlug == "" {
			return fmt.Errorf("combo target needs both slugs")
		}
	default:
		return fmt.Errorf("unknown content type %q", t.Type)
	}
	return nil
}

// Slug is the deterministic page slug the target publishes under.
func (t Target) Slug() string {
	switch t.Type {
	case ContentLocation:
		return t.LocationSlug
	case ContentIndustry:
		return t.IndustrySlug
	default:
		return t.IndustrySlug + "-" + t.LocationSlug
	}
}

// Key is unique across content types and used for set arithmetic.
func (t Target) Key() string {
	return string(t.Type) + ":" + t.LocationSlug + ":" + t.IndustrySlug
}

func (t Target) String() string {
	return string(t.Type) + "/" + t.Slug()
}

// Status is a queue item's lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// AllStatuses is ordered along the lifecycle.
var AllStatuses = []Status{StatusQueued, StatusProcessing, StatusCompleted, StatusFailed, StatusSkipped}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// Outstanding statuses block another item for the same target.
func (s Status) Outstanding() bool {
	return s == StatusQueued || s == StatusProcessing
}

// CanTransition is the queue state machine.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusQueued:
		return to == StatusProcessing
	case StatusProcessing:
		return to.Terminal()
	}
	return false
}

// QueueItem is one generation task.
type QueueItem struct {
	ID           string
	ContentType  ContentType
	LocationSlug string
	IndustrySlug string
	Status       Status
	Priority     int
	PublishedRef string
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Target returns the item's generation target.
func (q QueueItem) Target() Target {
	return Target{Type: q.ContentType, LocationSlug: q.LocationSlug, IndustrySlug: q.IndustrySlug}
}

// NewQueueItem builds a queued item for target; ID and timestamps are left to storage.
func NewQueueItem(target Target, priority int) QueueItem {
	return QueueItem{
		ContentType:  target.Type,
		LocationSlug: target.LocationSlug,
		IndustrySlug: target.IndustrySlug,
		Status:       StatusQueued,
		Priority:     priority,
	}
}

// QueueFilter narrows queue listings for operators.
type QueueFilter struct {
	Status      Status
	ContentType ContentType
	Limit       int
}
