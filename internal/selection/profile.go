package selection

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
)

// Comparison operators accepted in profiles.
var operators = map[string]func(a, b int64) bool{
	">":  func(a, b int64) bool { return a > b },
	">=": func(a, b int64) bool { return a >= b },
	"=":  func(a, b int64) bool { return a == b },
	"==": func(a, b int64) bool { return a == b },
	"!=": func(a, b int64) bool { return a != b },
	"<>": func(a, b int64) bool { return a != b },
	"<":  func(a, b int64) bool { return a < b },
	"<=": func(a, b int64) bool { return a <= b },
}

var comparisonPattern = regexp.MustCompile(`\b(seeders|size)\s*([<>=!]+)\s*([0-9][0-9.]*(?:\s*[kmgtpe]i?b?\b|\s*b\b)?)`)

// SyntaxError reports an unusable comparison in a profile.
type SyntaxError struct {
	Subprofile string
	Token      string
	Reason     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("profile %q: %s: %s", e.Subprofile, e.Token, e.Reason)
}

// Comparison is a parsed "field OP value" token.
type Comparison struct {
	Field    string
	Operator string
	Value    int64
}

func (c Comparison) match(v int64) bool {
	return operators[c.Operator](v, c.Value)
}

// Subprofile is one comma-separated alternative of a profile.
type Subprofile struct {
	Text        string
	Filters     []string
	Comparisons []Comparison
	Sort        string
}

// Profile is a parsed selection profile.
type Profile struct {
	Subprofiles []Subprofile
}

// FilterNames lists the recognized boolean filter words.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for _, f := range filters {
		names = append(names, f.name)
	}
	return names
}

// SortNames lists the recognized sort phrases.
func SortNames() []string {
	names := make([]string, 0, len(sorts))
	for _, s := range sorts {
		names = append(names, s.name)
	}
	return names
}

// ParseProfile case-folds s and parses each comma-separated sub-profile.
// Unknown words are ignored.
func ParseProfile(s string) (Profile, error) {
	var profile Profile
	for _, raw := range strings.Split(cases.Fold().String(s), ",") {
		text := strings.TrimSpace(raw)
		sub := Subprofile{Text: text}
		words := strings.Fields(text)
		for _, f := range filters {
			if slices.Contains(words, f.name) {
				sub.Filters = append(sub.Filters, f.name)
			}
		}
		for _, m := range comparisonPattern.FindAllStringSubmatch(text, -1) {
			if _, ok := operators[m[2]]; !ok {
				return Profile{}, &SyntaxError{Subprofile: text, Token: m[0], Reason: fmt.Sprintf("unknown operator %q", m[2])}
			}
			value, err := parseValue(m[1], m[3])
			if err != nil {
				return Profile{}, &SyntaxError{Subprofile: text, Token: m[0], Reason: err.Error()}
			}
			sub.Comparisons = append(sub.Comparisons, Comparison{Field: m[1], Operator: m[2], Value: value})
		}
		sub.Sort = findSort(text)
		profile.Subprofiles = append(profile.Subprofiles, sub)
	}
	return profile, nil
}

// findSort returns the sort phrase that appears first in text, or "".
func findSort(text string) string {
	best, at := "", -1
	for _, s := range sorts {
		if idx := strings.Index(text, s.name); idx >= 0 && (at < 0 || idx < at) {
			best, at = s.name, idx
		}
	}
	return best
}

func parseValue(field, raw string) (int64, error) {
	if field == "size" {
		return ParseSize(raw)
	}
	var n int64
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return n, nil
}

// ParseSize converts a human size to bytes. Unit prefixes are binary
// (1K and 1KB are both 1024); a bare number is bytes.
func ParseSize(s string) (int64, error) {
	v := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if v == "" {
		return 0, fmt.Errorf("empty size")
	}
	unit := strings.TrimLeft(v, "0123456789.")
	number := strings.TrimSuffix(v, unit)
	switch {
	case unit == "" || unit == "b":
	case strings.HasSuffix(unit, "ib"):
	case strings.HasSuffix(unit, "i"):
		unit += "b"
	case strings.HasSuffix(unit, "b"):
		unit = strings.TrimSuffix(unit, "b") + "ib"
	default:
		unit += "ib"
	}
	n, err := humanize.ParseBytes(number + unit)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}
