// Package brand maps email addresses and subjects to the business brand they
// belong to. Detection is a pure function over an injected pattern table so it
// can be tested without storage or network.
package brand

import (
	"fmt"
	"regexp"
	"strings"
)

const Unknown = "unknown"

// DefaultBrand is used for outbound mail when no brand is attached to the
// source record.
const DefaultBrand = "containersuper"

type rule struct {
	brand string
	expr  *regexp.Regexp
}

// Table is an ordered set of compiled brand patterns. First match wins.
type Table struct {
	rules []rule
}

// NewTable compiles a brand -> patterns map. Iteration order over the input
// map is not defined, so callers that care about precedence should not rely
// on overlapping patterns.
func NewTable(patterns map[string][]string) (*Table, error) {
	t := &Table{}
	for brand, exprs := range patterns {
		for _, expr := range exprs {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, fmt.Errorf("brand %s: bad pattern %q: %w", brand, expr, err)
			}
			t.rules = append(t.rules, rule{brand: brand, expr: re})
		}
	}
	return t, nil
}

// Detect returns the brand for an email based on its addresses and subject,
// or Unknown when no pattern matches.
func (t *Table) Detect(from, to, subject string) string {
	haystack := strings.ToLower(from + " " + to + " " + subject)
	for _, r := range t.rules {
		if r.expr.MatchString(haystack) {
			return r.brand
		}
	}
	return Unknown
}

// DefaultPatterns covers the trading brands operated by the business. Kept as
// data, not behavior, so deployments can override it from configuration.
func DefaultPatterns() map[string][]string {
	return map[string][]string{
		"containersuper": {`@containersuper\.(com|de)`, `container\s*super`},
		"boxdepot":       {`@boxdepot\.(com|eu)`, `box\s*depot`},
		"tradecube":      {`@tradecube\.(io|com)`, `trade\s*cube`},
	}
}
