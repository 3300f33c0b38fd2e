package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPatternID(t *testing.T) {
	tests := []struct {
		category string
		seq      int
		want     string
	}{
		{"amount", 1, "amount-001"},
		{"payment", 12, "payment-012"},
		{"amount", 123, "amount-123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPatternID(tt.category, tt.seq))
	}
}

func TestFormatLearnedID(t *testing.T) {
	assert.Equal(t, "amount-learned-001", FormatLearnedID("amount", 1))
	assert.Equal(t, "payment-learned-042", FormatLearnedID("payment", 42))
}

func TestParsePatternID(t *testing.T) {
	tests := []struct {
		input       string
		wantCat     string
		wantSeq     int
		wantLearned bool
	}{
		{"amount-001", "amount", 1, false},
		{"payment-099", "payment", 99, false},
		{"amount-learned-007", "amount", 7, true},
	}
	for _, tt := range tests {
		cat, seq, learned, err := ParsePatternID(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantCat, cat)
		assert.Equal(t, tt.wantSeq, seq)
		assert.Equal(t, tt.wantLearned, learned)
	}
}

func TestParsePatternID_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"amount",
		"amount-xyz",
		"-001",
		"amount-other-001",
	}
	for _, input := range badInputs {
		_, _, _, err := ParsePatternID(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestNextSeq(t *testing.T) {
	ids := []string{"amount-001", "amount-004", "payment-009", "amount-learned-002", "custom"}
	assert.Equal(t, 5, NextSeq(ids, "amount", false))
	assert.Equal(t, 3, NextSeq(ids, "amount", true))
	assert.Equal(t, 10, NextSeq(ids, "payment", false))
	assert.Equal(t, 1, NextSeq(nil, "amount", false))
}
