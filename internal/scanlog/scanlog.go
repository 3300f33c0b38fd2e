// Package scanlog keeps the CSV history of parses and corrections.
package scanlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
)

// Actions recorded in the log.
const (
	ActionParse   = "parse"
	ActionCorrect = "correct"
)

// Entry is one row in the scan log.
type Entry struct {
	Timestamp  time.Time
	Source     string
	Action     string
	Amount     string // two decimals, empty when not found
	Method     string // e.g. "A+B" or "NONE"
	Confidence float64
	Level      string
	Reliable   bool
	Candidates []string
	Patterns   []string
}

// Header is the CSV header for scan-log.csv.
const Header = "timestamp,source,action,amount,method,confidence,level,reliable,candidates,patterns"

const (
	numFields     = 10
	logDir        = "logs"
	logFile       = "logs/scan-log.csv"
	listSep       = ";"
	colTimestamp  = 0
	colSource     = 1
	colAction     = 2
	colAmount     = 3
	colMethod     = 4
	colConfidence = 5
	colLevel      = 6
	colReliable   = 7
	colCandidates = 8
	colPatterns   = 9
)

// FromResult builds a parse entry from a result.
func FromResult(ts time.Time, source string, res model.ParseResult) Entry {
	e := Entry{
		Timestamp:  ts,
		Source:     source,
		Action:     ActionParse,
		Method:     res.MethodTag(),
		Confidence: res.Confidence,
		Level:      string(res.Level),
		Reliable:   res.Reliable,
		Patterns:   res.WinningPatterns(),
	}
	if res.Found {
		e.Amount = money.Format(res.Amount)
	}
	for _, c := range res.Candidates {
		e.Candidates = append(e.Candidates, string(c.Method)+"="+money.Format(c.Value))
	}
	return e
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colSource] = e.Source
	row[colAction] = e.Action
	row[colAmount] = e.Amount
	row[colMethod] = e.Method
	row[colConfidence] = strconv.FormatFloat(e.Confidence, 'f', 2, 64)
	row[colLevel] = e.Level
	row[colReliable] = strconv.FormatBool(e.Reliable)
	row[colCandidates] = strings.Join(e.Candidates, listSep)
	row[colPatterns] = strings.Join(e.Patterns, listSep)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	conf, err := strconv.ParseFloat(record[colConfidence], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing confidence %q: %w", record[colConfidence], err)
	}
	reliable, err := strconv.ParseBool(record[colReliable])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing reliable %q: %w", record[colReliable], err)
	}

	return Entry{
		Timestamp:  ts,
		Source:     record[colSource],
		Action:     record[colAction],
		Amount:     record[colAmount],
		Method:     record[colMethod],
		Confidence: conf,
		Level:      record[colLevel],
		Reliable:   reliable,
		Candidates: splitList(record[colCandidates]),
		Patterns:   splitList(record[colPatterns]),
	}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}

// Append writes entries to <root>/logs/scan-log.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening scan log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <root>/logs/scan-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening scan log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading scan log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
