// Package stats aggregates counts, tag popularity and a daily activity
// heatmap over a document.
package stats

import (
	"slices"
	"time"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
)

// HeatmapDays is the length of the activity window, today included.
const HeatmapDays = 366

// MaxLevel is the highest heatmap intensity.
const MaxLevel = 4

const dayLayout = "2006-01-02"

type TagCount struct {
	Name           string `json:"name"`
	Count          int    `json:"count"`
	CompletedCount int    `json:"completed_count"`
}

type Day struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// Diagnostics counts records that could not be placed on the heatmap.
type Diagnostics struct {
	MissingCreatedAt int
	Unparseable      int
	OutOfRange       int
}

type Statistics struct {
	TotalBookmarks    int        `json:"total_bookmarks"`
	ActiveBookmarks   int        `json:"active_bookmarks"`
	ArchivedBookmarks int        `json:"archived_bookmarks"`
	TotalTags         int        `json:"total_tags"`
	TopTags           []TagCount `json:"top_tags"`
	Heatmap           []Day      `json:"heatmap"`

	Diagnostics Diagnostics `json:"-"`
}

// Compute derives the statistics of doc as of now. It never mutates doc.
func Compute(doc *domain.Document, now time.Time) Statistics {
	s := Statistics{
		TotalBookmarks: len(doc.Bookmarks),
		TotalTags:      len(doc.Tags),
	}
	for _, r := range doc.Bookmarks {
		if r.Archived {
			s.ArchivedBookmarks++
		} else {
			s.ActiveBookmarks++
		}
	}

	s.TopTags = Popularity(doc)
	s.Heatmap, s.Diagnostics = Heatmap(doc, now)
	return s
}

// Popularity counts bindings per tag name over every record, archived ones
// and ones without created_at included. Entries are sorted by count,
// descending, ties in first-seen order. Reserved tags without any binding
// are pinned in front at zero.
func Popularity(doc *domain.Document) []TagCount {
	var (
		order []string
		byKey = map[string]*TagCount{}
	)

	for _, r := range doc.Bookmarks {
		for _, b := range r.Tags {
			key := domain.TagKey(b.Name)
			if key == "" {
				continue
			}
			tc, ok := byKey[key]
			if !ok {
				tc = &TagCount{Name: b.Name}
				byKey[key] = tc
				order = append(order, key)
			}
			tc.Count++
			if b.Completed {
				tc.CompletedCount++
			}
		}
	}

	counted := make([]TagCount, 0, len(order))
	for _, key := range order {
		counted = append(counted, *byKey[key])
	}
	slices.SortStableFunc(counted, func(a, b TagCount) int {
		return b.Count - a.Count
	})

	var pinned []TagCount
	for _, name := range domain.ReservedTags {
		if _, ok := byKey[domain.TagKey(name)]; !ok {
			pinned = append(pinned, TagCount{Name: name})
		}
	}
	return append(pinned, counted...)
}

// Heatmap buckets records by UTC creation day over the HeatmapDays days
// ending today. The result is ascending and has no gaps.
func Heatmap(doc *domain.Document, now time.Time) ([]Day, Diagnostics) {
	var diag Diagnostics

	today := truncateDay(now.UTC())
	start := today.AddDate(0, 0, -(HeatmapDays - 1))

	counts := make(map[string]int, HeatmapDays)
	for _, r := range doc.Bookmarks {
		if r.CreatedAt == "" {
			diag.MissingCreatedAt++
			continue
		}
		created, ok := domain.ParseTimestamp(r.CreatedAt)
		if !ok {
			diag.Unparseable++
			continue
		}
		day := truncateDay(created.UTC())
		if day.Before(start) || day.After(today) {
			diag.OutOfRange++
			continue
		}
		counts[day.Format(dayLayout)]++
	}

	days := make([]Day, 0, HeatmapDays)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		c := counts[key]
		days = append(days, Day{Date: key, Count: c, Level: Level(c)})
	}
	return days, diag
}

// Level maps a day count to an intensity: min(4, ceil(count/2)).
func Level(count int) int {
	if count <= 0 {
		return 0
	}
	return min(MaxLevel, (count+1)/2)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
