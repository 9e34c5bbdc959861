// Package display derives the render attributes of classified sessions:
// cleaned titles, weekend color bands and countdown breakdowns. Everything
// here is a pure transform; sessions are never mutated.
package display

import (
	"regexp"
	"strings"
	"unicode"

	"gridclock/internal/model"
)

// TitleOptions parameterizes title cleanup.
type TitleOptions struct {
	// YearToken is the season year stripped from titles (e.g. "2025").
	YearToken string
	// OnlyF1 is true when F2 and F3 are disabled; the "F1: " prefix is
	// redundant then and gets stripped too.
	OnlyF1 bool
	// Series is the session's originating series.
	Series model.Series
}

var (
	leadingNonWord = regexp.MustCompile(`^[^\p{L}\p{N}]+`)
	grandPrix      = regexp.MustCompile(`(?i)grand\s+prix`)
	openParenPad   = regexp.MustCompile(`\(\s+`)
	closeParenPad  = regexp.MustCompile(`\s+\)`)
	tightParen     = regexp.MustCompile(`(\S)\(`)
	multiSpace     = regexp.MustCompile(`\s{2,}`)
)

// CleanTitle derives the display title from a raw feed summary. The result
// is deterministic for a given summary and options.
func CleanTitle(summary string, opts TitleOptions) string {
	s := summary

	if opts.YearToken != "" {
		s = strings.ReplaceAll(s, opts.YearToken, "")
	}
	s = strings.ReplaceAll(s, "FORMULA 1", "")
	if opts.OnlyF1 {
		s = strings.ReplaceAll(s, "F1: ", "")
	}

	s = leadingNonWord.ReplaceAllString(s, "")
	s = replaceOutsideParens(s)

	// Parenthetical punctuation: one space before "(", none inside.
	s = tightParen.ReplaceAllString(s, "$1 (")
	s = openParenPad.ReplaceAllString(s, "(")
	s = closeParenPad.ReplaceAllString(s, ")")

	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if opts.Series != model.SeriesF1 {
		s = ensureGPSuffix(s)
	}

	return titleCase(s)
}

// replaceOutsideParens rewrites "Grand Prix" to "Race" in the portions of s
// that are not inside parentheses. Parenthetical text (e.g. a circuit name)
// keeps the original wording.
func replaceOutsideParens(s string) string {
	var b strings.Builder
	depth := 0
	seg := strings.Builder{}

	flush := func() {
		if depth == 0 {
			b.WriteString(grandPrix.ReplaceAllString(seg.String(), "Race"))
		} else {
			b.WriteString(seg.String())
		}
		seg.Reset()
	}

	for _, r := range s {
		switch r {
		case '(':
			flush()
			depth++
			seg.WriteRune(r)
		case ')':
			seg.WriteRune(r)
			flush()
			if depth > 0 {
				depth--
			}
			continue
		default:
			seg.WriteRune(r)
			continue
		}
	}
	flush()
	return b.String()
}

// ensureGPSuffix makes a trailing parenthetical end in "GP)" for non-F1
// titles, e.g. "(Bahrain)" becomes "(Bahrain GP)".
func ensureGPSuffix(s string) string {
	if !strings.HasSuffix(s, ")") {
		return s
	}
	inner := strings.TrimSuffix(s, ")")
	if strings.HasSuffix(strings.ToLower(inner), "gp") {
		return s
	}
	return inner + " GP)"
}

// titleCase lowercases the string and uppercases the first character of
// every word run (letters, digits and underscore count as word characters).
func titleCase(s string) string {
	out := []rune(strings.ToLower(s))
	prevWord := false
	for i, r := range out {
		isWord := r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
		if isWord && !prevWord {
			out[i] = unicode.ToUpper(r)
		}
		prevWord = isWord
	}
	return string(out)
}
