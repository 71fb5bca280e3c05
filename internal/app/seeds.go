package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ContentGenerator/internal/domain"
)

// SeedFile is the import format for `seed import`. JSON files parse too.
type SeedFile struct {
	Locations  []SeedEntry `yaml:"locations"`
	Industries []SeedEntry `yaml:"industries"`
}

// SeedEntry is one location or industry. Active defaults to true.
type SeedEntry struct {
	Slug     string            `yaml:"slug"`
	Name     string            `yaml:"name"`
	Priority int               `yaml:"priority"`
	Active   *bool             `yaml:"active"`
	Metadata map[string]string `yaml:"metadata"`
}

// LoadSeedFile reads and validates a seed file.
func LoadSeedFile(path string) ([]domain.SeedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeeds(data)
}

// ParseSeeds decodes YAML or JSON seed data.
func ParseSeeds(data []byte) ([]domain.SeedItem, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode seeds: %w", err)
	}

	items := make([]domain.SeedItem, 0, len(file.Locations)+len(file.Industries))
	seen := map[string]bool{}
	add := func(dim domain.Dimension, entries []SeedEntry) error {
		for _, e := range entries {
			active := true
			if e.Active != nil {
				active = *e.Active
			}
			item := domain.SeedItem{
				Dimension: dim,
				Slug:      e.Slug,
				Name:      e.Name,
				Priority:  e.Priority,
				Active:    active,
				Metadata:  e.Metadata,
			}
			if err := item.Validate(); err != nil {
				return err
			}
			key := string(dim) + "/" + e.Slug
			if seen[key] {
				return fmt.Errorf("duplicate seed %s", key)
			}
			seen[key] = true
			items = append(items, item)
		}
		return nil
	}

	if err := add(domain.DimensionLocation, file.Locations); err != nil {
		return nil, err
	}
	if err := add(domain.DimensionIndustry, file.Industries); err != nil {
		return nil, err
	}
	return items, nil
}
