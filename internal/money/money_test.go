package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func values(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = Format(t.Value)
	}
	return out
}

func TestScan_Locales(t *testing.T) {
	anchored := Options{SpaceDecimal: true}
	tests := []struct {
		input string
		opts  Options
		want  []string
	}{
		{"12.50", Options{}, []string{"12.50"}},
		{"12,50", Options{}, []string{"12.50"}},
		{"12 50", anchored, []string{"12.50"}},
		{"12 50", Options{}, nil},
		{"1.234,56", Options{}, []string{"1234.56"}},
		{"1,234.56", Options{}, []string{"1234.56"}},
		{"1 234,56", Options{}, []string{"1234.56"}},
		{"1\u00a0234,56", Options{}, []string{"1234.56"}},
		{"1 234 567.89", Options{}, []string{"1234567.89"}},
		{"1234,56", Options{}, []string{"1234.56"}},
	}
	for _, tt := range tests {
		got := Scan(tt.input, tt.opts)
		if tt.want == nil {
			assert.Empty(t, got, "Scan(%q)", tt.input)
			continue
		}
		assert.Equal(t, tt.want, values(got), "Scan(%q)", tt.input)
	}
}

func TestScan_DiscardsAmbiguous(t *testing.T) {
	inputs := []string{
		"1.234",      // three trailing digits: grouping or decimal?
		"12.5",       // one trailing digit
		"12.05.2024", // date
		"12/05/2024",
		"14:32",
		"06.12.34.56.78", // phone number
		"42",
		"4970123412341234.00", // card number sized
	}
	for _, input := range inputs {
		assert.Empty(t, Scan(input, Options{SpaceDecimal: true}), "Scan(%q)", input)
	}
}

func TestScan_SplitsAdjacentAmounts(t *testing.T) {
	got := Scan("12.00 58.30", Options{})
	assert.Equal(t, []string{"12.00", "58.30"}, values(got))

	got = Scan("CB: 45.00 TOTAL: 45.00", Options{})
	assert.Equal(t, []string{"45.00", "45.00"}, values(got))
}

func TestScan_DropsLeadingQuantity(t *testing.T) {
	got := Scan("3 25.80", Options{SpaceDecimal: true})
	require.Len(t, got, 1)
	assert.True(t, got[0].Value.Equal(dec("25.80")))
	assert.Equal(t, "25.80", got[0].Text)
	assert.Equal(t, 2, got[0].Start)
	assert.Equal(t, 7, got[0].End)
}

func TestScan_Offsets(t *testing.T) {
	s := "TOTAL TTC 25,80 EUR"
	got := Scan(s, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "25,80", s[got[0].Start:got[0].End])
}

func TestLargest(t *testing.T) {
	tok, ok := Largest(Scan("12.00 99.99 58.30", Options{}))
	require.True(t, ok)
	assert.Equal(t, "99.99", Format(tok.Value))

	_, ok = Largest(nil)
	assert.False(t, ok)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"19.99", "19.99"},
		{"19,99", "19.99"},
		{" 19,99 € ", "19.99"},
		{"20", "20.00"},
		{"1 234,50", "1234.50"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		require.NoError(t, err, "input: %q", tt.input)
		assert.Equal(t, tt.want, Format(got))
	}
}

func TestParseAmount_Errors(t *testing.T) {
	for _, input := range []string{"", "abc", "12.5", "12.00 13.00"} {
		_, err := ParseAmount(input)
		assert.Error(t, err, "expected error for %q", input)
	}
}

func TestCleanDigits(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1O5", "105"},
		{"2I5", "215"},
		{"TOTAL 1O.50", "TOTAL 10.50"},
		{"O5,20", "05,20"},
		{"MONTANT", "MONTANT"},
		{"TOTAL TTC", "TOTAL TTC"},
		{"2l", "21"},
	}
	for _, tt := range tests {
		got := CleanDigits(tt.input)
		assert.Equal(t, tt.want, got)
		assert.Len(t, got, len(tt.input))
	}
}
