package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
)

// Alternate keys accepted for each field, in order of preference. Exports
// from different tools disagree on naming.
var (
	idKeys       = []string{"id", "id_str", "rest_id", "tweet_id"}
	textKeys     = []string{"full_text", "text", "fullText"}
	handleKeys   = []string{"screen_name", "screenName", "user.screen_name", "author.screen_name", "username"}
	nameKeys     = []string{"name", "user.name", "author.name"}
	avatarKeys   = []string{"profile_image_url", "profile_image_url_https", "profileImageUrl", "user.profile_image_url_https", "user.profile_image_url", "author.avatar_url"}
	urlKeys      = []string{"url", "tweet_url", "link"}
	createdKeys  = []string{"created_at", "createdAt", "created_timestamp", "timestamp"}
	favoriteKeys = []string{"favorite_count", "favoriteCount", "likes", "like_count"}
	retweetKeys  = []string{"retweet_count", "retweetCount", "retweets"}
	replyKeys    = []string{"reply_count", "replyCount", "replies"}
	viewsKeys    = []string{"views_count", "viewsCount", "views", "view_count"}
	bookmarkKeys = []string{"bookmark_count", "bookmarkCount", "bookmarks"}
	quoteKeys    = []string{"quote_count", "quoteCount", "quotes"}
)

// first returns the first present, non-null value among keys.
func first(obj gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func firstString(obj gjson.Result, keys []string) string {
	return strings.TrimSpace(first(obj, keys).String())
}

// firstCount accepts numbers and numeric strings.
func firstCount(obj gjson.Result, keys []string) int64 {
	return first(obj, keys).Int()
}

// normalizeTimestamp renders numbers (epoch seconds or milliseconds) and
// parseable strings as ISO-8601 UTC. Unparseable strings are kept verbatim.
func normalizeTimestamp(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		n := v.Int()
		if n <= 0 {
			return ""
		}
		if n > 1e12 {
			return domain.FormatTimestamp(time.UnixMilli(n))
		}
		return domain.FormatTimestamp(time.Unix(n, 0))
	case gjson.String:
		raw := strings.TrimSpace(v.Str)
		if raw == "" {
			return ""
		}
		if t, ok := domain.ParseTimestamp(raw); ok {
			return domain.FormatTimestamp(t)
		}
		return raw
	default:
		return ""
	}
}

// normalizeEntry builds a record from one export-shaped object.
// Media are classified but not resolved.
func normalizeEntry(obj gjson.Result) (*Entry, error) {
	if !obj.IsObject() {
		return nil, domain.Validationf("entry is not an object")
	}

	id := firstString(obj, idKeys)
	text := first(obj, textKeys).String()
	if id == "" || strings.TrimSpace(text) == "" {
		return nil, domain.Validationf("entry %q lacks id or text", id)
	}

	handle := firstString(obj, handleKeys)
	rec := &domain.Record{
		ID:              id,
		CreatedAt:       normalizeTimestamp(first(obj, createdKeys)),
		FullText:        text,
		ScreenName:      handle,
		Name:            firstString(obj, nameKeys),
		ProfileImageURL: firstString(obj, avatarKeys),
		URL:             firstString(obj, urlKeys),
		FavoriteCount:   firstCount(obj, favoriteKeys),
		RetweetCount:    firstCount(obj, retweetKeys),
		ReplyCount:      firstCount(obj, replyKeys),
		ViewsCount:      firstCount(obj, viewsKeys),
		BookmarkCount:   firstCount(obj, bookmarkKeys),
		QuoteCount:      firstCount(obj, quoteKeys),
		Archived:        obj.Get("archived").Bool(),
	}
	if rec.URL == "" && handle != "" {
		rec.URL = statusURL(handle, id)
	}

	rec.Media = normalizeMedia(obj.Get("media"), id)
	rec.Normalize()

	return &Entry{Record: rec, Tags: normalizeTags(obj.Get("tags"))}, nil
}

func normalizeMedia(list gjson.Result, recordID string) []*domain.Media {
	out := []*domain.Media{}
	if !list.IsArray() {
		return out
	}

	list.ForEach(func(_, m gjson.Result) bool {
		// exported documents carry the classified type next to the declared one
		declared := domain.CanonicalMediaType(firstString(m, []string{"declared_type", "type"}))
		url := firstString(m, []string{"url", "media_url_https", "original", "video_url"})
		original := firstString(m, []string{"original", "video_url", "url", "media_url_https"})
		thumb := firstString(m, []string{"thumbnail", "thumbnail_url", "preview_image_url", "media_url_https", "url"})

		media := &domain.Media{
			ID:        len(out) + 1,
			TweetID:   recordID,
			Type:      domain.ClassifyMedia(declared),
			URL:       url,
			Thumbnail: thumb,
			Original:  original,
			Declared:  declared,
		}
		// Re-imported records may already point at a local asset.
		if name := strings.TrimSpace(m.Get("file_name").String()); name != "" && strings.HasPrefix(url, domain.LocalMediaPrefix) {
			media.FileName = &name
		}
		out = append(out, media)
		return true
	})
	return out
}

// normalizeTags accepts ["name", ...] and [{"name": ..., "completed": ...}, ...].
func normalizeTags(list gjson.Result) []TagSpec {
	var out []TagSpec
	list.ForEach(func(_, t gjson.Result) bool {
		var spec TagSpec
		switch {
		case t.Type == gjson.String:
			spec.Name = t.Str
		case t.IsObject():
			spec.Name = t.Get("name").String()
			spec.Completed = t.Get("completed").Bool()
		}
		if spec.Name = strings.TrimSpace(spec.Name); spec.Name != "" {
			out = append(out, spec)
		}
		return true
	})
	return out
}

func statusURL(handle, id string) string {
	return fmt.Sprintf("https://x.com/%s/status/%s", handle, id)
}
