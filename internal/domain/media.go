package domain

import (
	"fmt"
	"strings"
)

const (
	MediaImage = "image"
	MediaVideo = "video"
)

// LocalMediaPrefix is the URL prefix under which resolved assets are served.
const LocalMediaPrefix = "/media/"

// Media is an attachment exclusively owned by one Record.
type Media struct {
	// ID is the 1-based position within the owning record.
	ID        int    `json:"id"`
	TweetID   string `json:"tweet_id"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Original  string `json:"original"`

	// Declared is the exporter's media type (photo, video, animated_gif).
	// Asset names are derived from it.
	Declared string `json:"declared_type,omitempty"`

	// FileName is nil until the asset has been resolved into the media directory.
	FileName *string `json:"file_name"`
}

// Resolved reports whether the asset has a local file.
func (m *Media) Resolved() bool {
	return m.FileName != nil && *m.FileName != ""
}

// MarkResolved points the media at its local asset.
func (m *Media) MarkResolved(fileName string) {
	local := LocalMediaURL(fileName)
	m.URL = local
	m.Original = local
	if m.Type == MediaImage {
		m.Thumbnail = local
	}
	m.FileName = &fileName
}

// RemoteSource returns the best remote URL to fetch the asset from.
func (m *Media) RemoteSource() string {
	for _, u := range []string{m.Original, m.URL} {
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			return u
		}
	}
	return ""
}

// DeclaredType returns the type used in the asset name. Documents written
// before the declared type was kept fall back on the stored class.
func (m *Media) DeclaredType() string {
	if m.Declared != "" {
		return m.Declared
	}
	if m.Type == MediaVideo {
		return "video"
	}
	return "photo"
}

// CanonicalMediaType normalizes a declared type for asset naming. Lookup
// services report animated gifs as "gif" while exporters write "animated_gif".
func CanonicalMediaType(declared string) string {
	declared = strings.TrimSpace(declared)
	switch strings.ToLower(declared) {
	case "":
		return "photo"
	case "gif":
		return "animated_gif"
	default:
		return declared
	}
}

// ClassifyMedia maps a declared media type onto image or video.
// Animated gifs are delivered as mp4 and are treated as video.
func ClassifyMedia(declared string) string {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "video", "gif", "animated_gif":
		return MediaVideo
	default:
		return MediaImage
	}
}

// MediaFileName derives the deterministic asset name
// {handle}_{recordID}_{declaredType}_{index}{ext}.
//
// The declared type is used verbatim so names match the entries produced by
// the bookmark exporter inside media archives.
func MediaFileName(handle, recordID, declaredType string, index int) string {
	return fmt.Sprintf("%s_%s_%s_%d%s", handle, recordID, declaredType, index, mediaExt(declaredType))
}

func mediaExt(declaredType string) string {
	switch strings.ToLower(declaredType) {
	case "video", "gif", "animated_gif":
		return ".mp4"
	case "photo", "image":
		return ".jpg"
	default:
		return ""
	}
}

// IsSafeFileName rejects names that could escape the media directory.
func IsSafeFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// LocalMediaURL is the handle used for a resolved asset.
func LocalMediaURL(fileName string) string {
	return LocalMediaPrefix + fileName
}
