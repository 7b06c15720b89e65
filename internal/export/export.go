// Package export renders records as Markdown notes with YAML front matter
// or as a JSON array compatible with batch import.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
)

// Supported formats.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ContentType returns the MIME type and file extension of format.
func ContentType(format string) (mime, ext string) {
	if format == FormatJSON {
		return "application/json", "json"
	}
	return "text/markdown; charset=utf-8", "md"
}

// ParseFormat maps user input onto a supported format.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", domain.Validationf("unsupported export format %q", s)
	}
}

// Render writes records in format.
func Render(format string, records []*domain.Record) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return Markdown(records)
	case FormatJSON:
		return JSON(records)
	default:
		return nil, domain.Validationf("unsupported export format %q", format)
	}
}

type frontMatter struct {
	ID        string   `yaml:"id"`
	Author    string   `yaml:"author,omitempty"`
	Handle    string   `yaml:"handle,omitempty"`
	CreatedAt string   `yaml:"created_at,omitempty"`
	URL       string   `yaml:"url,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	Completed []string `yaml:"completed,omitempty"`
	Archived  bool     `yaml:"archived"`
	Likes     int64    `yaml:"likes"`
	Retweets  int64    `yaml:"retweets"`
	Replies   int64    `yaml:"replies"`
	Views     int64    `yaml:"views"`
}

// Markdown renders one note per record, separated by a horizontal rule.
func Markdown(records []*domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range records {
		if i > 0 {
			buf.WriteString("\n")
		}
		if err := writeNote(&buf, r); err != nil {
			return nil, fmt.Errorf("failed to render record %s: %w", r.ID, err)
		}
	}
	return buf.Bytes(), nil
}

func writeNote(buf *bytes.Buffer, r *domain.Record) error {
	fm := frontMatter{
		ID:        r.ID,
		Author:    r.Name,
		Handle:    r.ScreenName,
		CreatedAt: r.CreatedAt,
		URL:       r.URL,
		Archived:  r.Archived,
		Likes:     r.FavoriteCount,
		Retweets:  r.RetweetCount,
		Replies:   r.ReplyCount,
		Views:     r.ViewsCount,
	}
	for _, b := range r.Tags {
		fm.Tags = append(fm.Tags, b.Name)
		if b.Completed {
			fm.Completed = append(fm.Completed, b.Name)
		}
	}

	head, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}

	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimSpace(r.FullText))
	buf.WriteString("\n")

	if len(r.Media) > 0 {
		buf.WriteString("\n")
		for _, m := range r.Media {
			if m.Type == domain.MediaVideo {
				fmt.Fprintf(buf, "- [video %d](%s)\n", m.ID, m.URL)
			} else {
				fmt.Fprintf(buf, "- ![image %d](%s)\n", m.ID, m.URL)
			}
		}
	}
	return nil
}

// JSON renders records as an indented array.
func JSON(records []*domain.Record) ([]byte, error) {
	if records == nil {
		records = []*domain.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal records: %w", err)
	}
	return data, nil
}
