package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/lookup"
)

// Single normalizes one captured item. A payload carrying an id and text is
// taken as is; a payload carrying only a status url is enriched through the
// lookup client. Media are not downloaded here: callers check for duplicates
// first and then call FetchRemote.
func (im *Importer) Single(ctx context.Context, raw []byte) (*Entry, error) {
	if !gjson.ValidBytes(raw) {
		return nil, domain.Validationf("payload is not valid JSON")
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return nil, domain.Validationf("payload must be a JSON object")
	}

	hasID := firstString(obj, idKeys) != ""
	hasText := strings.TrimSpace(first(obj, textKeys).String()) != ""
	link := firstString(obj, urlKeys)

	var (
		e   *Entry
		err error
	)
	switch {
	case hasID && hasText:
		e, err = normalizeEntry(obj)
		if err != nil {
			return nil, err
		}
		if e.Record.CreatedAt == "" {
			e.Record.CreatedAt = domain.FormatTimestamp(im.now())
		}
	case link != "":
		e, err = im.enrich(ctx, link)
		if err != nil {
			return nil, err
		}
		e.Tags = append(e.Tags, normalizeTags(obj.Get("tags"))...)
	default:
		return nil, domain.Validationf("payload needs id and full_text, or a status url")
	}

	im.withHashtags(e)
	return e, nil
}

// enrich builds a record from a status permalink.
func (im *Importer) enrich(ctx context.Context, link string) (*Entry, error) {
	handle, id, err := lookup.ParseStatusURL(link)
	if err != nil {
		return nil, err
	}
	if im.lookup == nil {
		return nil, fmt.Errorf("%w: no lookup client configured", domain.ErrEnrichmentUnavailable)
	}

	st, err := im.lookup.Lookup(ctx, handle, id)
	if err != nil {
		im.log.Warn("status lookup failed",
			logger.String("record_id", id),
			logger.String("handle", handle),
			logger.Error(err))
		return nil, err
	}

	return &Entry{Record: recordFromStatus(st, handle, id, im.now)}, nil
}

func recordFromStatus(st *lookup.Status, handle, id string, now func() time.Time) *domain.Record {
	if st.ScreenName != "" {
		handle = st.ScreenName
	}
	if st.ID != "" {
		id = st.ID
	}

	rec := &domain.Record{
		ID:              id,
		CreatedAt:       st.CreatedAt,
		FullText:        st.Text,
		ScreenName:      handle,
		Name:            st.Name,
		ProfileImageURL: st.AvatarURL,
		URL:             st.URL,
		FavoriteCount:   st.Likes,
		RetweetCount:    st.Retweets,
		ReplyCount:      st.Replies,
		ViewsCount:      st.Views,
		BookmarkCount:   st.Bookmarks,
		QuoteCount:      st.Quotes,
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = domain.FormatTimestamp(now())
	}
	if rec.URL == "" {
		rec.URL = statusURL(handle, id)
	}

	for i, m := range st.Media {
		thumb := m.Thumbnail
		if thumb == "" {
			thumb = m.URL
		}
		rec.Media = append(rec.Media, &domain.Media{
			ID:        i + 1,
			TweetID:   id,
			Type:      domain.ClassifyMedia(m.Type),
			URL:       m.URL,
			Thumbnail: thumb,
			Original:  m.URL,
			Declared:  domain.CanonicalMediaType(m.Type),
		})
	}
	rec.Normalize()
	return rec
}
