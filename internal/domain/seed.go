package domain

import (
	"fmt"
	"time"
)

// Dimension is one independent axis targets are built from.
type Dimension string

const (
	DimensionLocation Dimension = "location"
	DimensionIndustry Dimension = "industry"
)

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	return d == DimensionLocation || d == DimensionIndustry
}

const (
	MinPriority = 1
	MaxPriority = 5
)

// SeedItem is an administrative entry of one dimension, e.g. the "dublin" location.
type SeedItem struct {
	Dimension Dimension
	Slug      string
	Name      string
	Priority  int
	Active    bool
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks identity fields and the priority range.
func (s SeedItem) Validate() error {
	if !s.Dimension.Valid() {
		return fmt.Errorf("unknown dimension %q", s.Dimension)
	}
	if s.Slug == "" {
		return fmt.Errorf("%s seed without slug", s.Dimension)
	}
	if s.Priority < MinPriority || s.Priority > MaxPriority {
		return fmt.Errorf("%s/%s: priority %d outside %d..%d", s.Dimension, s.Slug, s.Priority, MinPriority, MaxPriority)
	}
	return nil
}

// ClampPriority keeps p inside MinPriority..MaxPriority.
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}
