// Package patterns provides named text matchers and ordered sets of them.
// The validity filter uses sets to detect spam and to recognise
// archaeological vocabulary; every match reports the name of the rule
// that fired so rejections can be explained.
package patterns

import (
	"fmt"
	"regexp"
	"strings"
)

// Type represents the kind of rule behind a Matcher.
type Type int

const (
	// Regex uses a regular expression.
	Regex Type = iota
	// Func uses a predicate for rules RE2 cannot express.
	Func
)

// Matcher is a single named rule.
type Matcher interface {
	// Name identifies the rule in rejection reports
	Name() string
	// Match checks if the input matches the rule
	Match(input string) bool
	// Pattern returns the source pattern or a description
	Pattern() string
	// Type returns the rule type
	Type() Type
}

// Options configures regex compilation.
type Options struct {
	// CaseInsensitive makes matching case-insensitive
	CaseInsensitive bool
	// Anchored adds ^ and $ to the pattern if not present
	Anchored bool
}

type regexMatcher struct {
	name     string
	pattern  string
	compiled *regexp.Regexp
}

// NewRegex compiles a named regex rule.
func NewRegex(name, pattern string, opts ...Options) (Matcher, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	expr := pattern
	if o.Anchored {
		if !strings.HasPrefix(expr, "^") {
			expr = "^" + expr
		}
		if !strings.HasSuffix(expr, "$") {
			expr += "$"
		}
	}
	if o.CaseInsensitive && !strings.HasPrefix(expr, "(?i)") {
		expr = "(?i)" + expr
	}

	compiled, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", name, err)
	}
	return &regexMatcher{name: name, pattern: pattern, compiled: compiled}, nil
}

// MustRegex is like NewRegex but panics on error. Use for built-in rules.
func MustRegex(name, pattern string, opts ...Options) Matcher {
	m, err := NewRegex(name, pattern, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// NewWords builds a case-insensitive rule matching any of the given words or
// phrases on word boundaries. A trailing "*" matches any word suffix.
func NewWords(name string, words ...string) (Matcher, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("pattern %s: no words", name)
	}
	alts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(w, "*"); ok {
			alts = append(alts, regexp.QuoteMeta(prefix)+`\w*`)
			continue
		}
		alts = append(alts, regexp.QuoteMeta(w))
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("pattern %s: no words", name)
	}
	return NewRegex(name, `\b(?:`+strings.Join(alts, "|")+`)\b`, Options{CaseInsensitive: true})
}

// MustWords is like NewWords but panics on error.
func MustWords(name string, words ...string) Matcher {
	m, err := NewWords(name, words...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *regexMatcher) Name() string            { return m.name }
func (m *regexMatcher) Match(input string) bool { return m.compiled.MatchString(input) }
func (m *regexMatcher) Pattern() string         { return m.pattern }
func (m *regexMatcher) Type() Type              { return Regex }

type funcMatcher struct {
	name string
	desc string
	fn   func(string) bool
}

// NewFunc wraps a predicate as a named rule.
func NewFunc(name, description string, fn func(string) bool) Matcher {
	return &funcMatcher{name: name, desc: description, fn: fn}
}

func (m *funcMatcher) Name() string            { return m.name }
func (m *funcMatcher) Match(input string) bool { return m.fn(input) }
func (m *funcMatcher) Pattern() string         { return m.desc }
func (m *funcMatcher) Type() Type              { return Func }

// Set is an ordered list of rules. A Set is immutable after construction
// and safe for concurrent use.
type Set struct {
	matchers []Matcher
}

// NewSet creates a set; nil matchers are skipped.
func NewSet(matchers ...Matcher) *Set {
	s := &Set{}
	for _, m := range matchers {
		if m != nil {
			s.matchers = append(s.matchers, m)
		}
	}
	return s
}

// With returns a new set with extra rules appended.
func (s *Set) With(matchers ...Matcher) *Set {
	return NewSet(append(append([]Matcher{}, s.matchers...), matchers...)...)
}

// First returns the first rule matching input.
func (s *Set) First(input string) (Matcher, bool) {
	for _, m := range s.matchers {
		if m.Match(input) {
			return m, true
		}
	}
	return nil, false
}

// Any reports whether any rule matches input.
func (s *Set) Any(input string) bool {
	_, ok := s.First(input)
	return ok
}

// Names returns the rule names in order.
func (s *Set) Names() []string {
	names := make([]string, len(s.matchers))
	for i, m := range s.matchers {
		names[i] = m.Name()
	}
	return names
}

// Len returns the number of rules.
func (s *Set) Len() int {
	return len(s.matchers)
}
