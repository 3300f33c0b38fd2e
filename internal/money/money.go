// Package money finds and normalizes currency amounts in OCR text.
//
// A token is a run of digit groups joined by single separators. The last
// separator followed by exactly two digits is the decimal separator; every
// earlier separator is grouping and must delimit groups of three digits.
// Runs that cannot be read that way are discarded rather than guessed.
package money

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// maxIntegerDigits bounds the integer part; longer runs are card or
// reference numbers, not amounts.
const maxIntegerDigits = 9

// Options tune how separators are read.
type Options struct {
	// SpaceDecimal lets a space act as the decimal separator ("12 50").
	// Only safe right after a label, where OCR often drops the point.
	SpaceDecimal bool
}

// Token is one amount found in a string.
type Token struct {
	Value decimal.Decimal
	Text  string
	Start int // byte offset of the first digit
	End   int // byte offset just past the last digit
}

type group struct {
	start, end int
}

type run struct {
	groups []group
	seps   []rune // seps[i] sits between groups[i] and groups[i+1]
}

// Scan returns every amount in s, ordered by position.
func Scan(s string, opts Options) []Token {
	var tokens []Token
	for _, r := range splitRuns(s) {
		tokens = append(tokens, r.tokens(s, opts)...)
	}
	return tokens
}

// Largest returns the greatest token value in tokens.
func Largest(tokens []Token) (Token, bool) {
	if len(tokens) == 0 {
		return Token{}, false
	}
	best := tokens[0]
	for _, t := range tokens[1:] {
		if t.Value.GreaterThan(best.Value) {
			best = t
		}
	}
	return best, true
}

// ParseAmount reads a user-supplied amount such as "19,99", "19.99" or "20".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "€"), "EUR")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	if isDigits(s) {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
		}
		return d.Round(2), nil
	}
	tokens := Scan(s, Options{SpaceDecimal: true})
	if len(tokens) != 1 || tokens[0].Start != 0 || tokens[0].End != len(s) {
		return decimal.Zero, fmt.Errorf("ambiguous amount %q", s)
	}
	return tokens[0].Value, nil
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func splitRuns(s string) []run {
	var runs []run
	i := 0
	for i < len(s) {
		if !isDigit(s[i]) {
			i++
			continue
		}
		var r run
		for {
			start := i
			for i < len(s) && isDigit(s[i]) {
				i++
			}
			r.groups = append(r.groups, group{start: start, end: i})
			if i >= len(s) {
				break
			}
			sep, size := utf8.DecodeRuneInString(s[i:])
			if !isSeparator(sep) || i+size >= len(s) || !isDigit(s[i+size]) {
				break
			}
			r.seps = append(r.seps, sep)
			i += size
		}
		runs = append(runs, r)
	}
	return runs
}

// tokens reads amounts from the right end of the run towards the left.
func (r run) tokens(s string, opts Options) []Token {
	var out []Token
	k := len(r.groups) - 1
	for k >= 1 {
		frac := r.groups[k]
		if frac.end-frac.start != 2 || !isDecimalSep(r.seps[k-1], opts) {
			break
		}
		j := k - 1
		for j >= 1 && r.groups[j].len() == 3 && isGroupSep(r.seps[j-1]) && r.groups[j-1].len() <= 3 {
			j--
		}
		var digits strings.Builder
		for g := j; g < k; g++ {
			digits.WriteString(s[r.groups[g].start:r.groups[g].end])
		}
		if digits.Len() <= maxIntegerDigits {
			value, err := decimal.NewFromString(digits.String() + "." + s[frac.start:frac.end])
			if err == nil {
				out = append(out, Token{
					Value: value,
					Text:  s[r.groups[j].start:frac.end],
					Start: r.groups[j].start,
					End:   frac.end,
				})
			}
		}
		if j >= 1 && !isSpace(r.seps[j-1]) {
			// "06.12.34.56.78": amounts glued by punctuation are not amounts.
			return nil
		}
		k = j - 1
	}
	for a, b := 0, len(out)-1; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out
}

func (g group) len() int { return g.end - g.start }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\u00a0' || r == '\u202f'
}

func isSeparator(r rune) bool {
	return r == '.' || r == ',' || r == '\'' || isSpace(r)
}

func isDecimalSep(r rune, opts Options) bool {
	return r == '.' || r == ',' || (opts.SpaceDecimal && isSpace(r))
}

func isGroupSep(r rune) bool {
	return r == '.' || r == ',' || r == '\'' || isSpace(r)
}
