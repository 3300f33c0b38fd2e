// Package statsdb persists pattern counters and run totals between runs.
package statsdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/patterns"
)

const (
	countersBucket = "counters" // one nested bucket per category
	totalsBucket   = "totals"
	totalsKey      = "all"
)

type counterRecord struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// Totals are cumulative parse statistics across runs.
type Totals struct {
	Parses    int64     `json:"parses"`
	Detected  int64     `json:"detected"`
	Reliable  int64     `json:"reliable"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DetectionRate returns Detected/Parses, or 0 with no parses.
func (t Totals) DetectionRate() float64 {
	if t.Parses == 0 {
		return 0
	}
	return float64(t.Detected) / float64(t.Parses)
}

// Store is a bbolt-backed counter store.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating stats dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening stats db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		counters, err := tx.CreateBucketIfNotExists([]byte(countersBucket))
		if err != nil {
			return err
		}
		for _, cat := range model.Categories {
			if _, err := counters.CreateBucketIfNotExists([]byte(cat)); err != nil {
				return err
			}
		}
		_, err = tx.CreateBucketIfNotExists([]byte(totalsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadCounters returns every stored counter keyed by pattern content.
func (s *Store) LoadCounters() (map[patterns.Key]model.Counters, error) {
	out := make(map[patterns.Key]model.Counters)
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(countersBucket))
		for _, cat := range model.Categories {
			b := root.Bucket([]byte(cat))
			if b == nil {
				continue
			}
			err := b.ForEach(func(k, v []byte) error {
				var rec counterRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					return fmt.Errorf("unmarshaling counters for %q: %w", k, err)
				}
				out[patterns.Key{Category: cat, Expression: string(k)}] = model.Counters{
					Success: rec.Success,
					Failure: rec.Failure,
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading counters: %w", err)
	}
	return out, nil
}

// SaveCounters stores counts, replacing earlier values for the same keys.
func (s *Store) SaveCounters(counts map[patterns.Key]model.Counters) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(countersBucket))
		for k, c := range counts {
			b, err := root.CreateBucketIfNotExists([]byte(k.Category))
			if err != nil {
				return err
			}
			data, err := json.Marshal(counterRecord{Success: c.Success, Failure: c.Failure})
			if err != nil {
				return fmt.Errorf("marshaling counters: %w", err)
			}
			if err := b.Put([]byte(k.Expression), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving counters: %w", err)
	}
	return nil
}

// ResetCounters deletes every stored counter. Totals are kept.
func (s *Store) ResetCounters() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(countersBucket)); err != nil {
			return err
		}
		root, err := tx.CreateBucket([]byte(countersBucket))
		if err != nil {
			return err
		}
		for _, cat := range model.Categories {
			if _, err := root.CreateBucket([]byte(cat)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("resetting counters: %w", err)
	}
	return nil
}

// AddTotals adds one run's statistics to the cumulative totals.
func (s *Store) AddTotals(parses, detected, reliable int64) (Totals, error) {
	var t Totals
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(totalsBucket))
		if data := b.Get([]byte(totalsKey)); data != nil {
			if err := json.Unmarshal(data, &t); err != nil {
				return fmt.Errorf("unmarshaling totals: %w", err)
			}
		}
		t.Parses += parses
		t.Detected += detected
		t.Reliable += reliable
		t.UpdatedAt = s.now().UTC()
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshaling totals: %w", err)
		}
		return b.Put([]byte(totalsKey), data)
	})
	if err != nil {
		return Totals{}, fmt.Errorf("saving totals: %w", err)
	}
	return t, nil
}

// Totals returns the cumulative totals.
func (s *Store) Totals() (Totals, error) {
	var t Totals
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(totalsBucket)).Get([]byte(totalsKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return Totals{}, fmt.Errorf("reading totals: %w", err)
	}
	return t, nil
}
