// Package filter selects textures by name using gitignore-style glob rules.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"

	"github.com/bsduhaime/waddle/internal/wad"
)

// ErrInvalidPattern is returned when a match or exclude rule does not compile.
var ErrInvalidPattern = errors.New("invalid name pattern")

// Filter holds compiled name rules. A nil Filter, or one built without rules,
// selects every name.
type Filter struct {
	matcher *pathrules.Matcher
}

// New compiles match and exclude patterns. Names are compared case-insensitively.
// With at least one match pattern only matching names are selected; exclude
// patterns are applied after match patterns and win over them.
func New(match, exclude []string) (*Filter, error) {
	rules := make([]pathrules.Rule, 0, len(match)+len(exclude))
	rules = appendRules(rules, pathrules.Rule{Action: pathrules.ActionInclude}, match)
	includes := len(rules)
	rules = appendRules(rules, pathrules.Rule{Action: pathrules.ActionExclude}, exclude)

	if len(rules) == 0 {
		return &Filter{}, nil
	}

	def := pathrules.ActionInclude
	if includes > 0 {
		def = pathrules.ActionExclude
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   def,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidPattern, err)
	}

	return &Filter{matcher: matcher}, nil
}

// appendRules adds one rule per pattern with the action of tmpl, dropping
// blank patterns.
func appendRules(rules []pathrules.Rule, tmpl pathrules.Rule, patterns []string) []pathrules.Rule {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tmpl.Pattern = p
		rules = append(rules, tmpl)
	}
	return rules
}

// Match reports whether a texture name is selected.
func (f *Filter) Match(name string) bool {
	if f == nil || f.matcher == nil {
		return true
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	return f.matcher.Included(name, false)
}

// Select returns the indices of archive entries whose names are selected, in
// directory order.
func (f *Filter) Select(a *wad.Archive) []int {
	out := make([]int, 0, a.Len())
	for i, e := range a.Entries() {
		if f.Match(e.Name.String()) {
			out = append(out, i)
		}
	}
	return out
}
