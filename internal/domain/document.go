package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SchemaVersion is the only document version this build reads and writes.
const SchemaVersion = 1

// Document is the aggregate root persisted as a whole on every write.
type Document struct {
	Bookmarks []*Record `json:"bookmarks"`
	Tags      []*Tag    `json:"tags"`
	Version   int       `json:"version"`
}

// TimestampLayout is the ISO-8601 form used for stored timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Accepted created_at layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"Mon Jan 02 15:04:05 -0700 2006",
	time.RFC1123Z,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a stored or imported created_at value.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NewDocument returns an empty document seeded with the reserved tags.
func NewDocument(now time.Time) *Document {
	doc := &Document{
		Bookmarks: []*Record{},
		Tags:      make([]*Tag, 0, len(ReservedTags)),
		Version:   SchemaVersion,
	}
	for i, name := range ReservedTags {
		doc.Tags = append(doc.Tags, &Tag{ID: i + 1, Name: name, CreatedAt: now.UTC()})
	}
	return doc
}

// FindRecord returns the record with id and its position, or nil and -1.
func (d *Document) FindRecord(id string) (*Record, int) {
	for i, r := range d.Bookmarks {
		if r.ID == id {
			return r, i
		}
	}
	return nil, -1
}

// Normalize repairs nil slices and a zero version left by foreign writers.
func (d *Document) Normalize() {
	if d.Bookmarks == nil {
		d.Bookmarks = []*Record{}
	}
	if d.Tags == nil {
		d.Tags = []*Tag{}
	}
	if d.Version == 0 {
		d.Version = SchemaVersion
	}
	for _, r := range d.Bookmarks {
		r.Normalize()
	}
}

// Clone returns a deep copy through the persisted representation.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return DecodeDocument(data)
}

// EncodeDocument serializes the document the way it is stored on disk.
func EncodeDocument(d *Document) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// DecodeDocument parses a persisted document and normalizes it.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	doc.Normalize()
	return &doc, nil
}
