package detect

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/patterns"
)

var (
	numericDate = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{2}|\d{4})\b`)
	wordDate    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(janv|f[ée]vr|mars|avr|mai|juin|juil|ao[uû]t|sept|oct|nov|d[ée]c)[a-zéû]*\.?\s*(\d{2}|\d{4})\b`)
)

var frenchMonths = map[string]time.Month{
	"janv": time.January, "fevr": time.February, "mars": time.March, "avr": time.April,
	"mai": time.May, "juin": time.June, "juil": time.July, "aout": time.August,
	"sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// DetectDate returns the first day-first date in lines. It never falls back
// to the current date.
func DetectDate(lines []string) (time.Time, bool) {
	for _, line := range lines {
		for _, m := range numericDate.FindAllStringSubmatch(line, -1) {
			month, _ := strconv.Atoi(m[2])
			if d, ok := buildDate(m[1], time.Month(month), m[3]); ok {
				return d, true
			}
		}
		for _, m := range wordDate.FindAllStringSubmatch(line, -1) {
			month, ok := frenchMonths[foldAccents(strings.ToLower(m[2]))]
			if !ok {
				continue
			}
			if d, ok := buildDate(m[1], month, m[3]); ok {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

func buildDate(dayText string, month time.Month, yearText string) (time.Time, bool) {
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return time.Time{}, false
	}
	if len(yearText) == 2 {
		year += 2000
	}
	if month < time.January || month > time.December {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

func foldAccents(s string) string {
	return strings.NewReplacer("é", "e", "è", "e", "û", "u").Replace(s)
}

// DetectMerchant returns the first known merchant, in catalogue order, that
// appears in the text.
func DetectMerchant(lines []string, merchants []string) string {
	text := strings.ToUpper(strings.Join(lines, "\n"))
	for _, m := range merchants {
		if m != "" && strings.Contains(text, strings.ToUpper(m)) {
			return m
		}
	}
	return ""
}

// KeyLines returns the lines matched by any enabled amount or payment pattern.
func KeyLines(lines []string, snap *patterns.Snapshot) []string {
	var all []patterns.Compiled
	for _, cat := range model.Categories {
		all = append(all, snap.PatternsFor(cat)...)
	}
	var out []string
	for _, line := range lines {
		for _, p := range all {
			if p.Regexp.MatchString(line) {
				out = append(out, line)
				break
			}
		}
	}
	return out
}
