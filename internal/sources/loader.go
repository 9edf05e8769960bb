package sources

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/agentstation/stonemap/internal/transport"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/sites"
)

// Loader reads batches from local paths and http(s) URLs.
type Loader struct {
	client *transport.Client
	format Format
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithClient sets the HTTP client used for URLs.
func WithClient(c *transport.Client) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithFormat forces a document format instead of detecting it.
func WithFormat(f Format) LoaderOption {
	return func(l *Loader) { l.format = f }
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client: transport.New("batch"),
		format: FormatAuto,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// BatchName derives a batch name from a path or URL.
func BatchName(location string) string {
	if IsRemote(location) {
		if u, err := url.Parse(location); err == nil {
			if base := path.Base(u.Path); base != "/" && base != "." {
				return base
			}
			return u.Host
		}
	}
	return filepath.Base(location)
}

// Load reads and decodes one batch. Decode problems are returned as
// *errors.BatchError; read problems as IO or API errors.
func (l *Loader) Load(ctx context.Context, location string) (sites.Batch, error) {
	name := BatchName(location)
	data, err := l.read(ctx, location)
	if err != nil {
		return sites.Batch{}, err
	}

	format := l.format
	if format == FormatAuto || format == "" {
		format = DetectFormat(data)
	}
	logging.FromContext(ctx).Debug().
		Str("batch", name).
		Str("format", string(format)).
		Int("bytes", len(data)).
		Msg("Loaded batch")

	return Decode(data, format, name)
}

// LoadAll loads every location in order. Malformed batches are returned
// separately so the run can report them and continue; any other failure
// stops loading.
func (l *Loader) LoadAll(ctx context.Context, locations []string) ([]sites.Batch, []error, error) {
	batches := make([]sites.Batch, 0, len(locations))
	var malformed []error
	for _, loc := range locations {
		b, err := l.Load(ctx, loc)
		switch {
		case errors.IsMalformedBatch(err):
			logging.FromContext(ctx).Warn().Err(err).Str("batch", BatchName(loc)).Msg("Skipping malformed batch")
			malformed = append(malformed, err)
		case err != nil:
			return nil, nil, err
		default:
			batches = append(batches, b)
		}
	}
	return batches, malformed, nil
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, error) {
	if IsRemote(location) {
		return l.client.GetBody(ctx, location)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("batch", location)
		}
		return nil, errors.WrapIO("read", location, err)
	}
	return data, nil
}
