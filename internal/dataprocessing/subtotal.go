package dataprocessing

import (
	"fmt"
	"regexp"
	"strings"
)

// SubtotalMode selects how report-generated subtotal labels are recognized.
//
// The two stock report variants disagree: one marks subtotals with the
// literal, case-sensitive prefix "Total_of", the other with "Total of" in
// any letter case. ModeRegex is the default.
type SubtotalMode string

const (
	// ModePrefix matches labels starting with the literal "Total_of".
	ModePrefix SubtotalMode = "prefix"
	// ModeRegex matches labels starting with "Total of", ignoring case.
	ModeRegex SubtotalMode = "regex"
	// ModeAny matches either form.
	ModeAny SubtotalMode = "any"
)

const (
	subtotalPrefix  = "Total_of"
	subtotalPattern = `(?i)^Total of`
)

var subtotalRegexp = regexp.MustCompile(subtotalPattern)

// SubtotalPolicy decides whether a Bale No. is a subtotal row label.
type SubtotalPolicy struct {
	Mode SubtotalMode
}

// DefaultSubtotalPolicy returns the case-insensitive "Total of" policy.
func DefaultSubtotalPolicy() SubtotalPolicy {
	return SubtotalPolicy{Mode: ModeRegex}
}

// ParseSubtotalMode validates a configured mode name.
func ParseSubtotalMode(s string) (SubtotalMode, error) {
	switch m := SubtotalMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePrefix, ModeRegex, ModeAny:
		return m, nil
	case "":
		return ModeRegex, nil
	default:
		return "", fmt.Errorf("unknown subtotal mode %q", s)
	}
}

// IsSubtotal reports whether label is a subtotal row label.
func (p SubtotalPolicy) IsSubtotal(label string) bool {
	switch p.Mode {
	case ModePrefix:
		return strings.HasPrefix(label, subtotalPrefix)
	case ModeAny:
		return strings.HasPrefix(label, subtotalPrefix) || subtotalRegexp.MatchString(label)
	default:
		return subtotalRegexp.MatchString(label)
	}
}

// IsSalesSubtotal reports whether a sales Date cell labels a subtotal row.
// The sales report always uses the case-sensitive "Total of" prefix.
func IsSalesSubtotal(date string) bool {
	return strings.HasPrefix(date, "Total of")
}
