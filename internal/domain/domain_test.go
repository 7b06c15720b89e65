package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewDocumentSeedsReservedTags(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := NewDocument(now)

	if doc.Version != SchemaVersion {
		t.Fatalf("expected version %d, got %d", SchemaVersion, doc.Version)
	}
	if len(doc.Bookmarks) != 0 {
		t.Fatalf("expected no bookmarks, got %d", len(doc.Bookmarks))
	}
	if len(doc.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(doc.Tags))
	}
	if doc.Tags[0].ID != 1 || doc.Tags[0].Name != TagTodo {
		t.Errorf("unexpected first tag: %+v", doc.Tags[0])
	}
	if doc.Tags[1].ID != 2 || doc.Tags[1].Name != TagToRead {
		t.Errorf("unexpected second tag: %+v", doc.Tags[1])
	}
}

func TestMediaFileName(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		index    int
		want     string
	}{
		{"photo", "photo", 0, "alice_42_photo_0.jpg"},
		{"video", "video", 1, "alice_42_video_1.mp4"},
		{"animated gif", "animated_gif", 2, "alice_42_animated_gif_2.mp4"},
		{"unknown type", "sticker", 0, "alice_42_sticker_0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MediaFileName("alice", "42", tt.declared, tt.index)
			if got != tt.want {
				t.Errorf("MediaFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyMedia(t *testing.T) {
	cases := map[string]string{
		"photo":        MediaImage,
		"video":        MediaVideo,
		"animated_gif": MediaVideo,
		"GIF":          MediaVideo,
		"":             MediaImage,
	}
	for in, want := range cases {
		if got := ClassifyMedia(in); got != want {
			t.Errorf("ClassifyMedia(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalMediaType(t *testing.T) {
	cases := map[string]string{
		"photo":        "photo",
		"  video ":     "video",
		"animated_gif": "animated_gif",
		"gif":          "animated_gif",
		"GIF":          "animated_gif",
		"":             "photo",
	}
	for in, want := range cases {
		if got := CanonicalMediaType(in); got != want {
			t.Errorf("CanonicalMediaType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMediaDeclaredType(t *testing.T) {
	tests := []struct {
		name  string
		media Media
		want  string
	}{
		{"kept declared type", Media{Type: MediaVideo, Declared: "animated_gif"}, "animated_gif"},
		{"legacy video", Media{Type: MediaVideo}, "video"},
		{"legacy image", Media{Type: MediaImage}, "photo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.media.DeclaredType(); got != tt.want {
				t.Errorf("DeclaredType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMediaMarkResolved(t *testing.T) {
	m := &Media{Type: MediaImage, URL: "https://cdn.example/a.jpg", Original: "https://cdn.example/a.jpg"}
	if m.Resolved() {
		t.Fatal("fresh media must not be resolved")
	}
	if got := m.RemoteSource(); got != "https://cdn.example/a.jpg" {
		t.Fatalf("unexpected remote source %q", got)
	}

	m.MarkResolved("alice_42_photo_0.jpg")

	if !m.Resolved() {
		t.Fatal("expected resolved media")
	}
	if m.URL != "/media/alice_42_photo_0.jpg" || m.Thumbnail != m.URL {
		t.Errorf("unexpected local handles: %+v", m)
	}
	if m.RemoteSource() != "" {
		t.Errorf("resolved media should have no remote source")
	}
}

func TestRecordNormalizeClampsCounters(t *testing.T) {
	r := &Record{ID: "1", FavoriteCount: -3, ViewsCount: 10}
	r.Normalize()

	if r.FavoriteCount != 0 {
		t.Errorf("expected clamped favorite count, got %d", r.FavoriteCount)
	}
	if r.ViewsCount != 10 {
		t.Errorf("expected views preserved, got %d", r.ViewsCount)
	}
	if r.Media == nil || r.Tags == nil {
		t.Error("expected non-nil collections")
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := NewDocument(time.Now())
	doc.Bookmarks = append(doc.Bookmarks, &Record{ID: "1", FullText: "hello"})

	clone, err := doc.Clone()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clone.Bookmarks[0].FullText = "changed"

	if doc.Bookmarks[0].FullText != "hello" {
		t.Error("mutating the clone leaked into the original")
	}
}

func TestDecodeDocumentNormalizes(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"bookmarks":[{"id":"1","full_text":"x"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Version != SchemaVersion {
		t.Errorf("expected version repaired to %d, got %d", SchemaVersion, doc.Version)
	}
	if doc.Tags == nil || doc.Bookmarks[0].Media == nil {
		t.Error("expected nil slices repaired")
	}
}

func TestIsReservedTag(t *testing.T) {
	if !IsReservedTag("  to DO ") {
		t.Error("expected case-insensitive match on reserved tag")
	}
	if IsReservedTag("golang") {
		t.Error("unexpected reserved match")
	}
}

func TestErrorHelpersWrapKinds(t *testing.T) {
	if !errors.Is(Validationf("bad %s", "input"), ErrValidation) {
		t.Error("Validationf must wrap ErrValidation")
	}
	if !errors.Is(NotFoundf("record %s", "1"), ErrNotFound) {
		t.Error("NotFoundf must wrap ErrNotFound")
	}
	if !errors.Is(Conflictf("tag %s", "x"), ErrConflict) {
		t.Error("Conflictf must wrap ErrConflict")
	}
}
