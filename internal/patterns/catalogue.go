// Package patterns is the pattern store: a catalogue of compiled amount and
// payment expressions with their metadata and outcome counters.
package patterns

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/receipts/internal/id"
	"github.com/cleared-dev/receipts/internal/model"
)

type entry struct {
	pattern model.Pattern
	re      *regexp.Regexp
	key     Key
}

// rejectedEntry is a file entry that failed to load. It is written back
// unchanged on save so a typo never silently loses a pattern.
type rejectedEntry struct {
	category model.Category
	source   model.Source
	raw      fileEntry
}

// Catalogue holds every pattern of a project. Reads may run concurrently;
// writes are serialized.
type Catalogue struct {
	mu        sync.RWMutex
	entries   []*entry // declaration order
	byID      map[string]*entry
	byKey     map[Key]*entry
	merchants []string
	warnings  []*ConfigurationError
	rejected  []rejectedEntry
	snap      *Snapshot
	reserved  []string // explicit IDs of the file being loaded
	now       func() time.Time
}

// New returns an empty catalogue.
func New() *Catalogue {
	return &Catalogue{
		byID:  make(map[string]*entry),
		byKey: make(map[Key]*entry),
		now:   time.Now,
	}
}

// Parse builds a catalogue from curated YAML. Entries whose expression does
// not compile are skipped and reported by Warnings.
func Parse(data []byte) (*Catalogue, error) {
	c := New()
	if err := c.load(data, model.SourceCurated); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the curated catalogue at path and, when it exists, the learned
// pattern file at learnedPath.
func Load(path, learnedPath string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern catalogue: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if learnedPath == "" {
		return c, nil
	}
	learned, err := os.ReadFile(learnedPath)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading learned patterns: %w", err)
	}
	if err := c.LoadLearned(learned); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadLearned merges a learned pattern file. Its entries default to disabled.
func (c *Catalogue) LoadLearned(data []byte) error {
	return c.load(data, model.SourceLearned)
}

func (c *Catalogue) load(data []byte, src model.Source) error {
	f, err := decodeFile(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if src == model.SourceCurated {
		for _, m := range f.KnownMerchants {
			if m = strings.TrimSpace(m); m != "" {
				c.merchants = append(c.merchants, m)
			}
		}
	}
	// Explicit IDs win over generated ones wherever they appear in the file.
	for _, cat := range model.Categories {
		for _, fe := range f.entries(cat) {
			if fe.ID != "" {
				c.reserved = append(c.reserved, fe.ID)
			}
		}
	}
	defer func() { c.reserved = nil }()

	for _, cat := range model.Categories {
		for i, fe := range f.entries(cat) {
			if err := c.insert(cat, fe, src); err != nil {
				cfgErr := &ConfigurationError{Category: cat, Index: i, Expression: fe.Pattern, Err: err}
				slog.Warn("skipping pattern",
					"category", cat, "index", i, "pattern", fe.Pattern, "source", src, "error", err)
				c.warnings = append(c.warnings, cfgErr)
				c.rejected = append(c.rejected, rejectedEntry{category: cat, source: src, raw: fe})
			}
		}
	}
	c.snap = nil
	return nil
}

// insert adds a decoded entry. Callers hold the write lock.
func (c *Catalogue) insert(cat model.Category, fe fileEntry, src model.Source) error {
	re, err := compile(fe.Pattern)
	if err != nil {
		return err
	}
	key := KeyOf(cat, fe.Pattern)
	if existing, ok := c.byKey[key]; ok {
		return &DuplicatePatternError{Expression: fe.Pattern, ExistingID: existing.pattern.ID}
	}

	pid := fe.ID
	if pid == "" {
		pid = c.nextID(cat, src)
	} else if _, taken := c.byID[pid]; taken {
		return fmt.Errorf("duplicate pattern id %s", pid)
	}

	p := model.Pattern{
		ID:          pid,
		Expression:  fe.Pattern,
		Category:    cat,
		Priority:    DefaultPriority,
		Enabled:     src == model.SourceCurated,
		Description: fe.Description,
		Source:      src,
		LearnedFrom: fe.LearnedFrom,
	}
	if fe.Priority != nil {
		p.Priority = *fe.Priority
	}
	if fe.Enabled != nil {
		p.Enabled = *fe.Enabled
	}
	if fe.LearnedAt != nil {
		p.LearnedAt = *fe.LearnedAt
	}

	e := &entry{pattern: p, re: re, key: key}
	c.entries = append(c.entries, e)
	c.byID[pid] = e
	c.byKey[key] = e
	return nil
}

func (c *Catalogue) nextID(cat model.Category, src model.Source) string {
	ids := make([]string, 0, len(c.entries)+len(c.reserved))
	ids = append(ids, c.reserved...)
	for _, e := range c.entries {
		ids = append(ids, e.pattern.ID)
	}
	learned := src == model.SourceLearned
	seq := id.NextSeq(ids, string(cat), learned)
	if learned {
		return id.FormatLearnedID(string(cat), seq)
	}
	return id.FormatPatternID(string(cat), seq)
}

func compile(expr string) (*regexp.Regexp, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("empty expression")
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("compiling expression: %w", err)
	}
	return re, nil
}

// Warnings returns the entries skipped while loading.
func (c *Catalogue) Warnings() []*ConfigurationError {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.warnings)
}

// PatternsFor returns the enabled patterns of a category, highest priority
// first, declaration order among equal priorities.
func (c *Catalogue) PatternsFor(cat model.Category) []model.Pattern {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Pattern
	for _, e := range c.ordered(cat) {
		out = append(out, e.pattern)
	}
	return out
}

// ordered returns enabled entries of cat sorted for evaluation. Callers hold a lock.
func (c *Catalogue) ordered(cat model.Category) []*entry {
	var out []*entry
	for _, e := range c.entries {
		if e.pattern.Category == cat && e.pattern.Enabled {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b *entry) int {
		return b.pattern.Priority - a.pattern.Priority
	})
	return out
}

// Pattern returns a pattern by ID.
func (c *Catalogue) Pattern(pid string) (model.Pattern, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[pid]
	if !ok {
		return model.Pattern{}, false
	}
	return e.pattern, true
}

// All returns every loaded pattern, enabled or not, in declaration order.
func (c *Catalogue) All() []model.Pattern {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Pattern, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.pattern)
	}
	return out
}

// Pending returns learned patterns still awaiting approval.
func (c *Catalogue) Pending() []model.Pattern {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Pattern
	for _, e := range c.entries {
		if e.pattern.Source == model.SourceLearned && !e.pattern.Enabled {
			out = append(out, e.pattern)
		}
	}
	return out
}

// Merchants returns the known merchant names.
func (c *Catalogue) Merchants() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.merchants)
}

// RecordOutcome increments the success or failure counter of a pattern.
func (c *Catalogue) RecordOutcome(pid string, succeeded bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byID[pid]
	if !ok {
		return fmt.Errorf("recording outcome for %s: %w", pid, ErrPatternNotFound)
	}
	if succeeded {
		e.pattern.Counters.Success++
	} else {
		e.pattern.Counters.Failure++
	}
	return nil
}

// ResetCounters zeroes every pattern's counters.
func (c *Catalogue) ResetCounters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.pattern.Counters = model.Counters{}
	}
}

// SetEnabled enables or disables a pattern. Disabling is the only way to
// retire a pattern; nothing is ever removed.
func (c *Catalogue) SetEnabled(pid string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byID[pid]
	if !ok {
		return fmt.Errorf("updating %s: %w", pid, ErrPatternNotFound)
	}
	e.pattern.Enabled = enabled
	c.snap = nil
	return nil
}

// Approve enables a learned pattern after review.
func (c *Catalogue) Approve(pid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byID[pid]
	if !ok {
		return fmt.Errorf("approving %s: %w", pid, ErrPatternNotFound)
	}
	if e.pattern.Source != model.SourceLearned {
		return fmt.Errorf("approving %s: not a learned pattern", pid)
	}
	e.pattern.Enabled = true
	c.snap = nil
	return nil
}

// Proposal describes a pattern suggested by the learner.
type Proposal struct {
	Expression  string
	Category    model.Category
	Description string
	LearnedFrom string
	Approved    bool // enable immediately instead of waiting for review
}

// AddLearned inserts a learned pattern below every curated pattern of its
// category. It is disabled unless the proposal is pre-approved.
func (c *Catalogue) AddLearned(p Proposal) (string, error) {
	if !p.Category.Valid() {
		return "", fmt.Errorf("adding learned pattern: unknown category %q", p.Category)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	priority := c.learnedPriority(p.Category)
	enabled := p.Approved
	at := c.now().UTC().Truncate(time.Second)
	fe := fileEntry{
		Pattern:     p.Expression,
		Priority:    &priority,
		Enabled:     &enabled,
		Description: p.Description,
		LearnedFrom: p.LearnedFrom,
		LearnedAt:   &at,
	}
	if err := c.insert(p.Category, fe, model.SourceLearned); err != nil {
		return "", fmt.Errorf("adding learned pattern: %w", err)
	}
	c.snap = nil

	added := c.entries[len(c.entries)-1].pattern
	slog.Info("learned pattern added",
		"id", added.ID, "category", added.Category, "pattern", added.Expression,
		"priority", added.Priority, "enabled", added.Enabled)
	return added.ID, nil
}

// learnedPriority returns one below the lowest curated priority of cat.
func (c *Catalogue) learnedPriority(cat model.Category) int {
	lowest, found := 0, false
	for _, e := range c.entries {
		if e.pattern.Category != cat || e.pattern.Source != model.SourceCurated {
			continue
		}
		if !found || e.pattern.Priority < lowest {
			lowest, found = e.pattern.Priority, true
		}
	}
	if !found {
		return DefaultPriority - 1
	}
	return lowest - 1
}

// Add inserts a curated pattern, enabled.
func (c *Catalogue) Add(expression string, cat model.Category, priority int, description string) (string, error) {
	if !cat.Valid() {
		return "", fmt.Errorf("adding pattern: unknown category %q", cat)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	enabled := true
	fe := fileEntry{Pattern: expression, Priority: &priority, Enabled: &enabled, Description: description}
	if err := c.insert(cat, fe, model.SourceCurated); err != nil {
		return "", fmt.Errorf("adding pattern: %w", err)
	}
	c.snap = nil
	return c.entries[len(c.entries)-1].pattern.ID, nil
}

// AddMerchant appends a known merchant name. It reports false when the name
// is blank or already listed, ignoring case.
func (c *Catalogue) AddMerchant(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.merchants {
		if strings.EqualFold(m, name) {
			return false
		}
	}
	c.merchants = append(c.merchants, name)
	c.snap = nil
	return true
}

// Marshal renders the patterns of one source in the persisted YAML form.
func (c *Catalogue) Marshal(src model.Source) ([]byte, error) {
	c.mu.RLock()
	f := catalogueFile{Version: FormatVersion}
	if src == model.SourceCurated {
		f.KnownMerchants = slices.Clone(c.merchants)
	}
	for _, e := range c.entries {
		if e.pattern.Source == src {
			f.appendEntry(e.pattern.Category, toEntry(e.pattern))
		}
	}
	for _, r := range c.rejected {
		if r.source == src {
			f.appendEntry(r.category, r.raw)
		}
	}
	c.mu.RUnlock()

	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s patterns: %w", src, err)
	}
	return data, nil
}

// Save writes the curated patterns and merchants to path.
func (c *Catalogue) Save(path string) error {
	return c.write(path, model.SourceCurated)
}

// SaveLearned writes the learned patterns to path.
func (c *Catalogue) SaveLearned(path string) error {
	return c.write(path, model.SourceLearned)
}

func (c *Catalogue) write(path string, src model.Source) error {
	data, err := c.Marshal(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating pattern dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s patterns: %w", src, err)
	}
	return nil
}

// Stats summarizes the catalogue.
type Stats struct {
	Total     int
	Enabled   map[model.Category]int
	Learned   int
	Pending   int
	Merchants int
	Rejected  int
}

// Stats counts patterns by state.
func (c *Catalogue) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{
		Total:     len(c.entries),
		Enabled:   make(map[model.Category]int),
		Merchants: len(c.merchants),
		Rejected:  len(c.rejected),
	}
	for _, e := range c.entries {
		if e.pattern.Enabled {
			s.Enabled[e.pattern.Category]++
		}
		if e.pattern.Source == model.SourceLearned {
			s.Learned++
			if !e.pattern.Enabled {
				s.Pending++
			}
		}
	}
	return s
}
