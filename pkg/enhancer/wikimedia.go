package enhancer

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/antonholmquist/jason"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/agentstation/stonemap/internal/transport"
	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/normalize"
	"github.com/agentstation/stonemap/pkg/sites"
)

const (
	// WikimediaName is the enhancer name used in errors and metrics.
	WikimediaName = "wikimedia"

	// DefaultWikimediaEndpoint is the MediaWiki action API queried for pages.
	DefaultWikimediaEndpoint = "https://en.wikipedia.org/w/api.php"

	defaultThumbSize = 800
)

// Page is what a MediaWiki page lookup yields.
type Page struct {
	Title   string
	URL     string
	Image   string
	Extract string
}

// missingPage marks a negative cache entry.
var missingPage = &Page{}

// WikimediaEnhancer fills image, summary and reference links from the
// Wikipedia page of a site.
type WikimediaEnhancer struct {
	client    *transport.Client
	endpoint  string
	thumbSize int
	priority  int
	cache     *cache.Cache
}

// WikimediaOption configures a WikimediaEnhancer.
type WikimediaOption func(*WikimediaEnhancer)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) WikimediaOption {
	return func(w *WikimediaEnhancer) {
		if endpoint != "" {
			w.endpoint = endpoint
		}
	}
}

// WithClient replaces the HTTP client.
func WithClient(c *transport.Client) WikimediaOption {
	return func(w *WikimediaEnhancer) {
		if c != nil {
			w.client = c
		}
	}
}

// WithCache sets the lookup memo expiry and janitor interval. A cleanup
// interval of zero disables the background janitor.
func WithCache(ttl, cleanup time.Duration) WikimediaOption {
	return func(w *WikimediaEnhancer) { w.cache = cache.New(ttl, cleanup) }
}

// WithThumbSize sets the requested thumbnail width in pixels.
func WithThumbSize(px int) WikimediaOption {
	return func(w *WikimediaEnhancer) {
		if px > 0 {
			w.thumbSize = px
		}
	}
}

// WithPriority sets the enhancer priority.
func WithPriority(p int) WikimediaOption {
	return func(w *WikimediaEnhancer) { w.priority = p }
}

// NewWikimediaEnhancer creates the enhancer.
func NewWikimediaEnhancer(opts ...WikimediaOption) *WikimediaEnhancer {
	w := &WikimediaEnhancer{
		client:    transport.New(WikimediaName),
		endpoint:  DefaultWikimediaEndpoint,
		thumbSize: defaultThumbSize,
		priority:  100,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.cache == nil {
		w.cache = cache.New(constants.CacheTTL, constants.CacheCleanupInterval)
	}
	return w
}

// Name returns the enhancer name.
func (w *WikimediaEnhancer) Name() string { return WikimediaName }

// Priority returns the enhancer priority.
func (w *WikimediaEnhancer) Priority() int { return w.priority }

// CanEnhance reports whether the record lacks an image or a summary.
func (w *WikimediaEnhancer) CanEnhance(rec sites.SourceRecord) bool {
	if pageTitle(rec) == "" {
		return false
	}
	return rec.ImageURL == "" || rec.RawSummary == ""
}

// Enhance looks up the record's page and fills empty fields from it.
func (w *WikimediaEnhancer) Enhance(ctx context.Context, rec sites.SourceRecord) (sites.SourceRecord, error) {
	title := pageTitle(rec)
	page, err := w.Lookup(ctx, title)
	if err != nil {
		if errors.IsNotFound(err) {
			return rec, nil
		}
		return rec, err
	}

	if rec.ImageURL == "" {
		rec.ImageURL = page.Image
	}
	if rec.RawSummary == "" {
		rec.RawSummary = page.Extract
	}
	if rec.ReferenceURL == "" {
		rec.ReferenceURL = page.URL
	}
	return rec, nil
}

// Lookup returns the page for title, memoized by name key. Missing pages are
// cached as misses and reported as *errors.NotFoundError.
func (w *WikimediaEnhancer) Lookup(ctx context.Context, title string) (*Page, error) {
	key := cacheKey(title)
	if cached, ok := w.cache.Get(key); ok {
		page := cached.(*Page)
		if page == missingPage {
			return nil, errors.NewNotFoundError("page", title)
		}
		return page, nil
	}

	page, err := w.fetch(ctx, title)
	switch {
	case errors.IsNotFound(err):
		w.cache.Set(key, missingPage, cache.DefaultExpiration)
		return nil, err
	case err != nil:
		return nil, err
	}
	w.cache.Set(key, page, cache.DefaultExpiration)
	return page, nil
}

// CacheLen returns the number of memoized lookups, misses included.
func (w *WikimediaEnhancer) CacheLen() int {
	return w.cache.ItemCount()
}

func (w *WikimediaEnhancer) fetch(ctx context.Context, title string) (*Page, error) {
	reqID := uuid.NewString()
	logger := logging.FromContext(ctx).With().
		Str("enhancer", WikimediaName).
		Str("title", title).
		Str("request_id", reqID).
		Logger()

	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"pageimages|extracts|info"},
		"piprop":        {"thumbnail"},
		"pithumbsize":   {strconv.Itoa(w.thumbSize)},
		"exintro":       {"1"},
		"inprop":        {"url"},
		"redirects":     {"1"},
		"titles":        {title},
	}
	reqURL := w.endpoint + "?" + params.Encode()

	logger.Debug().Str("url", reqURL).Msg("Querying page")
	body, err := w.client.GetBody(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	page, err := parsePage(body, title)
	if err != nil {
		logger.Debug().Err(err).Msg("Page lookup failed")
		return nil, err
	}
	logger.Debug().
		Bool("has_image", page.Image != "").
		Bool("has_extract", page.Extract != "").
		Msg("Page found")
	return page, nil
}

// parsePage reads a formatversion=2 query response.
func parsePage(body []byte, title string) (*Page, error) {
	resp, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return nil, errors.WrapParse("json", WikimediaName, err)
	}

	if apiErr, err := resp.GetObject("error"); err == nil {
		code, _ := apiErr.GetString("code")
		info, _ := apiErr.GetString("info")
		return nil, errors.NewAPIError(WikimediaName, 0, code+": "+info)
	}

	pages, err := resp.GetObjectArray("query", "pages")
	if err != nil || len(pages) == 0 {
		return nil, errors.NewNotFoundError("page", title)
	}
	p := pages[0]
	if missing, err := p.GetBoolean("missing"); err == nil && missing {
		return nil, errors.NewNotFoundError("page", title)
	}
	if invalid, err := p.GetBoolean("invalid"); err == nil && invalid {
		return nil, errors.NewNotFoundError("page", title)
	}

	page := &Page{Title: title}
	if t, err := p.GetString("title"); err == nil {
		page.Title = t
	}
	page.URL, _ = p.GetString("fullurl")
	page.Image, _ = p.GetString("thumbnail", "source")
	if extract, err := p.GetString("extract"); err == nil {
		page.Extract = normalize.Summary(extract)
	}
	return page, nil
}

// pageTitle prefers the title of a Wikipedia reference link over the name.
func pageTitle(rec sites.SourceRecord) string {
	if t := titleFromURL(rec.ReferenceURL); t != "" {
		return t
	}
	return strings.TrimSpace(rec.RawName)
}

func titleFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(u.Hostname(), "wikipedia.org") {
		return ""
	}
	rest, ok := strings.CutPrefix(u.Path, "/wiki/")
	if !ok || rest == "" {
		return ""
	}
	return strings.ReplaceAll(rest, "_", " ")
}

func cacheKey(title string) string {
	if key := normalize.Key(title); key != "" {
		return key
	}
	return strings.ToLower(title)
}
