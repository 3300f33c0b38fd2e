package patterns

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/receipts/internal/model"
)

// FormatVersion is written to every catalogue file.
const FormatVersion = 1

// DefaultPriority applies to entries that do not set one.
const DefaultPriority = 50

// catalogueFile is the persisted form shared by the curated and learned files.
type catalogueFile struct {
	Version         int         `yaml:"version"`
	AmountPatterns  []fileEntry `yaml:"amount_patterns"`
	PaymentPatterns []fileEntry `yaml:"payment_patterns"`
	KnownMerchants  []string    `yaml:"known_merchants,omitempty"`
}

// fileEntry is one pattern. A bare string is accepted as shorthand for
// {pattern: <string>}.
type fileEntry struct {
	ID          string     `yaml:"id,omitempty"`
	Pattern     string     `yaml:"pattern"`
	Priority    *int       `yaml:"priority,omitempty"`
	Enabled     *bool      `yaml:"enabled,omitempty"`
	Description string     `yaml:"description,omitempty"`
	LearnedFrom string     `yaml:"learned_from,omitempty"`
	LearnedAt   *time.Time `yaml:"learned_at,omitempty"`
}

func (e *fileEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*e = fileEntry{Pattern: node.Value}
		return nil
	}
	type plain fileEntry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = fileEntry(p)
	return nil
}

func (f *catalogueFile) entries(cat model.Category) []fileEntry {
	if cat == model.CategoryPayment {
		return f.PaymentPatterns
	}
	return f.AmountPatterns
}

func (f *catalogueFile) appendEntry(cat model.Category, e fileEntry) {
	if cat == model.CategoryPayment {
		f.PaymentPatterns = append(f.PaymentPatterns, e)
		return
	}
	f.AmountPatterns = append(f.AmountPatterns, e)
}

func decodeFile(data []byte) (*catalogueFile, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing pattern catalogue: %w", err)
	}
	if f.Version > FormatVersion {
		return nil, fmt.Errorf("unsupported catalogue version %d", f.Version)
	}
	return &f, nil
}

func toEntry(p model.Pattern) fileEntry {
	priority := p.Priority
	enabled := p.Enabled
	e := fileEntry{
		ID:          p.ID,
		Pattern:     p.Expression,
		Priority:    &priority,
		Enabled:     &enabled,
		Description: p.Description,
		LearnedFrom: p.LearnedFrom,
	}
	if !p.LearnedAt.IsZero() {
		at := p.LearnedAt.UTC()
		e.LearnedAt = &at
	}
	return e
}
