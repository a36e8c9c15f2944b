package harden

import (
	"strings"
)

type PatchMode string

const (
	// PatchReplace rewrites the matched line to an exact value.
	PatchReplace PatchMode = "replace"
	// PatchTokens appends the tokens the matched line does not contain yet.
	PatchTokens PatchMode = "tokens"
)

// Patch describes an idempotent edit of one configuration line.
type Patch struct {
	Path   string    `yaml:"path" validate:"required"`
	Match  LineMatch `yaml:"match"`
	Mode   PatchMode `yaml:"mode" validate:"required,oneof=replace tokens"`
	Line   string    `yaml:"line,omitempty"`
	Tokens []string  `yaml:"tokens,omitempty"`
}

// MissingTokens returns the tokens that are not a substring of line, in the
// order they were given.
func MissingTokens(line string, tokens []string) []string {
	var missing []string
	for _, tok := range tokens {
		if !strings.Contains(line, tok) {
			missing = append(missing, tok)
		}
	}
	return missing
}

// NewLine computes the desired content of current under p. changed is false
// when current is already compliant.
func NewLine(current string, p Patch) (string, bool) {
	switch p.Mode {
	case PatchTokens:
		missing := MissingTokens(current, p.Tokens)
		if len(missing) == 0 {
			return current, false
		}
		return current + " " + strings.Join(missing, " "), true
	default:
		if current == p.Line {
			return current, false
		}
		return p.Line, true
	}
}

const sedDelimiter = "|"

// SubstitutionExpr builds a sed expression that replaces the whole line equal
// to current with replacement.
func SubstitutionExpr(current, replacement string) string {
	return "s" + sedDelimiter + "^" + escapeBRE(current) + "$" +
		sedDelimiter + escapeReplacement(replacement) + sedDelimiter
}

func escapeBRE(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '.', '[', ']', '*', '^', '$', '|':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func escapeReplacement(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '&', '|':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
