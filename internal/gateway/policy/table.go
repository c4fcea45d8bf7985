package policy

import (
	"fmt"
	"strings"

	"github.com/phrazzld/edge-gateway/internal/config"
)

// Table is the immutable set of route policy rules, built once at startup
// and shared read-only across all requests.
type Table struct {
	rules []Rule
}

// NewTable validates the given rules and builds a Table. It fails fast on an
// unknown pattern shape or a RequireAllAuthorities rule with no authorities,
// because a silently empty authority list would turn a restriction into an
// allow-everyone rule.
func NewTable(rules []Rule) (*Table, error) {
	for i, rule := range rules {
		if !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("rule %d: pattern %q must start with /", i, rule.Pattern)
		}
		if rule.Policy.Kind == RequireAllAuthorities && len(rule.Policy.Authorities) == 0 {
			return nil, fmt.Errorf("rule %d (%s): all_authorities requires a non-empty authority list",
				i, rule.Pattern)
		}
	}
	return &Table{rules: rules}, nil
}

// FromConfig converts configured policy routes into a Table.
func FromConfig(cfg config.PolicyConfig) (*Table, error) {
	rules := make([]Rule, 0, len(cfg.Routes))
	for i, route := range cfg.Routes {
		kind, err := KindFromString(route.Require)
		if err != nil {
			return nil, fmt.Errorf("policy route %d (%s): %w", i, route.Path, err)
		}
		rules = append(rules, Rule{
			Pattern: route.Path,
			Method:  route.Method,
			Policy:  Policy{Kind: kind, Authorities: route.Authorities},
		})
	}
	return NewTable(rules)
}

// Match selects the rule governing the given method and path. The
// most-specific (longest) matching pattern wins; ties are broken by
// registration order. The second return value is false when no rule matches,
// which callers must treat as deny.
func (t *Table) Match(method, path string) (Rule, bool) {
	var (
		best     Rule
		bestLen  = -1
		hasMatch bool
	)

	for _, rule := range t.rules {
		if !methodMatches(rule.Method, method) {
			continue
		}
		specificity, ok := patternMatch(rule.Pattern, path)
		if !ok {
			continue
		}
		// Strictly-greater keeps the earliest-registered rule on ties.
		if specificity > bestLen {
			best = rule
			bestLen = specificity
			hasMatch = true
		}
	}

	return best, hasMatch
}

func methodMatches(ruleMethod, method string) bool {
	return ruleMethod == "" || ruleMethod == "*" || strings.EqualFold(ruleMethod, method)
}

// patternMatch reports whether the pattern matches the path, returning the
// pattern's specificity (the length of its literal part) on success.
func patternMatch(pattern, path string) (int, bool) {
	if prefix, ok := wildcardPrefix(pattern); ok {
		trimmed := strings.TrimSuffix(prefix, "/")
		if path == trimmed || strings.HasPrefix(path, prefix) {
			return len(prefix), true
		}
		return 0, false
	}

	if pattern == path {
		// Exact matches always beat prefix matches of the same literal
		// length.
		return len(pattern) + 1, true
	}
	return 0, false
}

// wildcardPrefix returns the literal prefix of a "/*" or "/**" pattern.
func wildcardPrefix(pattern string) (string, bool) {
	switch {
	case strings.HasSuffix(pattern, "/**"):
		return pattern[:len(pattern)-2], true
	case strings.HasSuffix(pattern, "/*"):
		return pattern[:len(pattern)-1], true
	default:
		return "", false
	}
}
