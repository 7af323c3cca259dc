package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPrefixes are the services silenced when no noise is configured:
// the content-scanner and policy daemons that share the maillog with postfix.
var DefaultPrefixes = []string{"clamsmtpd", "postlicyd"}

// Options captures the noise configuration.
type Options struct {
	// Prefixes name services or process kinds whose lines are skipped.
	Prefixes []string
	// Patterns are regular expressions matched at the start of the text.
	Patterns []string
}

// Filter is an immutable noise set. It satisfies parser.Noise and is safe
// for concurrent use.
type Filter struct {
	prefixes []string
	patterns []*regexp.Regexp
}

// New creates a new Filter from the provided options.
func New(opts Options) (*Filter, error) {
	patterns, err := compilePatterns(opts.Patterns)
	if err != nil {
		return nil, fmt.Errorf("compile noise pattern: %w", err)
	}

	prefixes := make([]string, 0, len(opts.Prefixes))
	seen := make(map[string]struct{}, len(opts.Prefixes))
	for _, p := range opts.Prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		prefixes = append(prefixes, p)
	}

	return &Filter{prefixes: prefixes, patterns: patterns}, nil
}

// Ignores returns true if text starts with a configured noise prefix or
// matches a noise pattern.
func (f *Filter) Ignores(text string) bool {
	if f == nil {
		return false
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return matchAny(f.patterns, text)
}

// Prefixes returns a copy of the configured prefixes.
func (f *Filter) Prefixes() []string {
	return append([]string(nil), f.prefixes...)
}

// Len reports how many prefixes and patterns are active.
func (f *Filter) Len() int {
	return len(f.prefixes) + len(f.patterns)
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(`^(?:` + pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
