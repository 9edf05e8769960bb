// Package slug assigns stable, URL-safe canonical ids. A Registry holds the
// ids in use for one catalog; collisions get a numeric suffix.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/normalize"
)

var apostrophes = strings.NewReplacer("'", "", "’", "", "ʼ", "", "`", "")

// Base returns the slug of a name without collision handling: folded,
// lowercased, apostrophes dropped, other non-alphanumeric runs turned into a
// single hyphen, trimmed and truncated to constants.MaxSlugLength.
func Base(name string) string {
	folded := normalize.Fold(apostrophes.Replace(name))

	var b strings.Builder
	hyphen := false
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	s := truncate(b.String(), constants.MaxSlugLength)
	if s == "" {
		return constants.FallbackSlug
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	return strings.Trim(s, "-")
}

// Registry tracks used slugs. It is not safe for concurrent use.
type Registry struct {
	used        map[string]struct{}
	maxAttempts int
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxAttempts bounds the number of suffixes tried by Assign.
func WithMaxAttempts(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		used:        make(map[string]struct{}),
		maxAttempts: constants.MaxSlugAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reserve marks an existing slug as used. It returns false if it already was.
func (r *Registry) Reserve(slug string) bool {
	if _, ok := r.used[slug]; ok {
		return false
	}
	r.used[slug] = struct{}{}
	return true
}

// InUse reports whether slug is taken.
func (r *Registry) InUse(slug string) bool {
	_, ok := r.used[slug]
	return ok
}

// Len returns the number of used slugs.
func (r *Registry) Len() int {
	return len(r.used)
}

// Assign returns a free slug for name and marks it used: the base slug, or
// base-1, base-2 and so on. It fails with a SlugError once the attempt
// budget is spent.
func (r *Registry) Assign(name string) (string, error) {
	base := Base(name)
	if r.Reserve(base) {
		return base, nil
	}
	for i := 1; i <= r.maxAttempts; i++ {
		suffix := "-" + strconv.Itoa(i)
		candidate := truncate(base, constants.MaxSlugLength-len(suffix)) + suffix
		if r.Reserve(candidate) {
			return candidate, nil
		}
	}
	return "", errors.NewSlugError(base, r.maxAttempts)
}
