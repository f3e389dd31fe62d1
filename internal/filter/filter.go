// Package filter narrows registry entry lists by text query, type bucket,
// and category. Filtering is pure: it allocates a new slice, preserves the
// input order, and never mutates entries.
package filter

import (
	"strings"

	"github.com/permahub/permahub/internal/registry"
)

// Type buckets selectable in listings. Each non-all bucket maps to exactly
// one modelType value.
const (
	TypeAll   = "all"
	TypeText  = "text"
	TypeImage = "image"
	TypeAudio = "audio"
)

// Criteria describes one filter pass. Zero values mean "no constraint":
// an empty Query matches everything, an empty or "all" Type passes every
// type, and an empty Category passes every category.
type Criteria struct {
	Query    string
	Type     string
	Category string
}

// bucketModelType returns the modelType value the bucket selects, or ""
// for all.
func bucketModelType(bucket string) string {
	switch bucket {
	case TypeText:
		return registry.ModelTypeText
	case TypeImage:
		return registry.ModelTypeImage
	case TypeAudio:
		return registry.ModelTypeAudio
	}
	return ""
}

// Apply returns the entries matching every set criterion, in input order.
// Filtering an already-filtered list with the same criteria returns the
// same list.
func Apply(entries []registry.Entry, c Criteria) []registry.Entry {
	query := strings.ToLower(strings.TrimSpace(c.Query))
	wantType := bucketModelType(c.Type)

	out := make([]registry.Entry, 0, len(entries))
	for _, e := range entries {
		if query != "" && !matchesQuery(e, query) {
			continue
		}
		if wantType != "" && e.ModelType != wantType {
			continue
		}
		if c.Category != "" && !matchesCategory(e, c.Category) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// matchesQuery reports whether the lowercased query occurs in the entry's
// name, description, or any tag. Absent fields never match.
func matchesQuery(e registry.Entry, query string) bool {
	if strings.Contains(strings.ToLower(e.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(e.Description), query) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// matchesCategory compares against the model category, falling back to the
// agent type for entries without one.
func matchesCategory(e registry.Entry, category string) bool {
	if e.Category != "" {
		return strings.EqualFold(e.Category, category)
	}
	return strings.EqualFold(e.Type, category)
}
