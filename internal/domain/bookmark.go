package domain

// Record is one archived bookmark: a captured post with its author,
// engagement counters, media and tag bindings.
//
// The JSON shape is the persisted document format and must stay stable.
type Record struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the externally supplied status id. Unique within the store.
	ID string `json:"id"`

	// CreatedAt is the ISO-8601 creation time as it was stored.
	// Kept as a string so malformed historical values survive a round trip.
	CreatedAt string `json:"created_at"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	FullText        string `json:"full_text"`
	ScreenName      string `json:"screen_name"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
	URL             string `json:"url"`

	// ─────────────────────────────
	// Engagement (never negative)
	// ─────────────────────────────

	FavoriteCount int64 `json:"favorite_count"`
	RetweetCount  int64 `json:"retweet_count"`
	ReplyCount    int64 `json:"reply_count"`
	ViewsCount    int64 `json:"views_count"`
	BookmarkCount int64 `json:"bookmark_count,omitempty"`
	QuoteCount    int64 `json:"quote_count,omitempty"`

	// ─────────────────────────────
	// Owned collections
	// ─────────────────────────────

	Media []*Media   `json:"media"`
	Tags  []*Binding `json:"tags"`

	// Archived hides the record from the default listing.
	Archived bool `json:"archived"`
}

// HasTag reports whether the record carries a binding to tag id.
func (r *Record) HasTag(id int) bool {
	for _, b := range r.Tags {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Normalize fills nil collections and clamps counters so the record
// serializes the same way regardless of where it came from.
func (r *Record) Normalize() {
	if r.Media == nil {
		r.Media = []*Media{}
	}
	if r.Tags == nil {
		r.Tags = []*Binding{}
	}
	r.FavoriteCount = nonNegative(r.FavoriteCount)
	r.RetweetCount = nonNegative(r.RetweetCount)
	r.ReplyCount = nonNegative(r.ReplyCount)
	r.ViewsCount = nonNegative(r.ViewsCount)
	r.BookmarkCount = nonNegative(r.BookmarkCount)
	r.QuoteCount = nonNegative(r.QuoteCount)
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
