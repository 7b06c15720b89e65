// Package lookup fetches status metadata from an fxtwitter compatible API.
package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/utils"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 5 * time.Second

// MediaItem is an attachment as reported by the lookup API.
type MediaItem struct {
	Type      string // photo, video, gif
	URL       string
	Thumbnail string
}

// Status is the subset of a lookup response needed to build a record.
type Status struct {
	ID         string
	Text       string
	CreatedAt  string // ISO-8601 UTC, empty when unknown
	URL        string
	ScreenName string
	Name       string
	AvatarURL  string

	Likes     int64
	Retweets  int64
	Replies   int64
	Views     int64
	Bookmarks int64
	Quotes    int64

	Media []MediaItem
}

// Cache stores raw lookup payloads. Implemented by the redis store.
type Cache interface {
	GetCachedLookup(ctx context.Context, statusID string) ([]byte, error)
	CacheLookup(ctx context.Context, statusID string, payload []byte, ttl time.Duration) error
}

// Client performs lookups against baseURL.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	cache   Cache
	ttl     time.Duration
	log     logger.Logger
}

func New(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
		log:     log.With(logger.String("component", "lookup")),
	}
}

// WithCache enables caching of successful responses for ttl.
func (c *Client) WithCache(cache Cache, ttl time.Duration) *Client {
	c.cache = cache
	c.ttl = ttl
	return c
}

// Lookup fetches status id posted by handle. Every failure, timeouts
// included, wraps domain.ErrEnrichmentUnavailable.
func (c *Client) Lookup(ctx context.Context, handle, id string) (*Status, error) {
	if c.cache != nil {
		payload, err := c.cache.GetCachedLookup(ctx, id)
		if err != nil {
			c.log.Warn("lookup cache read failed", logger.String("status_id", id), logger.Error(err))
		} else if payload != nil {
			if st, err := Parse(payload); err == nil {
				c.log.Debug("lookup cache hit", logger.String("status_id", id))
				return st, nil
			}
		}
	}

	payload, err := c.fetch(ctx, handle, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEnrichmentUnavailable, err)
	}

	st, err := Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEnrichmentUnavailable, err)
	}

	if c.cache != nil {
		if err := c.cache.CacheLookup(ctx, id, payload, c.ttl); err != nil {
			c.log.Warn("lookup cache write failed", logger.String("status_id", id), logger.Error(err))
		}
	}
	return st, nil
}

func (c *Client) fetch(ctx context.Context, handle, id string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if handle == "" {
		handle = "i"
	}
	endpoint := fmt.Sprintf("%s/%s/status/%s", c.baseURL, url.PathEscape(handle), url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", id, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup %s: unexpected status %d", id, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: read body: %w", id, err)
	}
	return payload, nil
}

// Parse decodes a lookup response body.
func Parse(payload []byte) (*Status, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("lookup response is not valid JSON")
	}
	root := gjson.ParseBytes(payload)

	if code := root.Get("code"); code.Exists() && code.Int() != http.StatusOK {
		return nil, fmt.Errorf("lookup failed with code %d: %s", code.Int(), root.Get("message").String())
	}

	tweet := root.Get("tweet")
	if !tweet.Exists() {
		return nil, fmt.Errorf("lookup response has no tweet")
	}

	st := &Status{
		ID:         tweet.Get("id").String(),
		Text:       tweet.Get("text").String(),
		URL:        tweet.Get("url").String(),
		ScreenName: tweet.Get("author.screen_name").String(),
		Name:       tweet.Get("author.name").String(),
		AvatarURL:  tweet.Get("author.avatar_url").String(),
		Likes:      tweet.Get("likes").Int(),
		Retweets:   tweet.Get("retweets").Int(),
		Replies:    tweet.Get("replies").Int(),
		Views:      tweet.Get("views").Int(),
		Bookmarks:  tweet.Get("bookmarks").Int(),
		Quotes:     tweet.Get("quotes").Int(),
	}

	if ts := tweet.Get("created_timestamp").Int(); ts > 0 {
		st.CreatedAt = domain.FormatTimestamp(time.Unix(ts, 0))
	} else if raw := tweet.Get("created_at").String(); raw != "" {
		if t, err := time.Parse("Mon Jan 02 15:04:05 -0700 2006", raw); err == nil {
			st.CreatedAt = domain.FormatTimestamp(t)
		}
	}

	tweet.Get("media.all").ForEach(func(_, m gjson.Result) bool {
		st.Media = append(st.Media, MediaItem{
			Type:      m.Get("type").String(),
			URL:       m.Get("url").String(),
			Thumbnail: m.Get("thumbnail_url").String(),
		})
		return true
	})

	if st.ID == "" || st.Text == "" {
		return nil, fmt.Errorf("lookup response lacks id or text")
	}
	return st, nil
}

// ParseStatusURL extracts the author handle and numeric status id from a
// status permalink such as https://x.com/alice/status/123?s=20.
func ParseStatusURL(raw string) (handle, id string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", domain.Validationf("invalid status url %q", raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p != "status" && p != "statuses" {
			continue
		}
		if i+1 >= len(parts) || !isNumeric(parts[i+1]) {
			break
		}
		if i > 0 {
			handle = parts[i-1]
		}
		return handle, parts[i+1], nil
	}
	return "", "", domain.Validationf("no status id in url %q", raw)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
