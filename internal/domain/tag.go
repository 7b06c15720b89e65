package domain

import (
	"strings"
	"time"
)

// Reserved workflow tags. They are seeded into every new document and always
// reported by statistics.
const (
	TagTodo   = "To do"
	TagToRead = "To read"
)

// ReservedTags lists the workflow tags in seeding order (ids 1 and 2).
var ReservedTags = []string{TagTodo, TagToRead}

// Tag is a catalog entry. Names are compared case-insensitively.
type Tag struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Binding is the per-record association with a tag. Completed is only
// meaningful for the reserved workflow tags and belongs to this record alone.
type Binding struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Completed bool      `json:"completed"`
}

// Bind creates a fresh binding for the tag.
func (t *Tag) Bind() *Binding {
	return &Binding{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

// TagKey is the identity key used for case-insensitive comparisons.
func TagKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsReservedTag reports whether name designates a workflow tag.
func IsReservedTag(name string) bool {
	key := TagKey(name)
	for _, r := range ReservedTags {
		if TagKey(r) == key {
			return true
		}
	}
	return false
}
