// Package history persists analysis results as an append-only CSV log.
// The backing file is the export format: rows are never rewritten, and the
// download surface serves the file bytes verbatim.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// TimeLayout is the fixed textual representation of record timestamps.
const TimeLayout = "2006-01-02 15:04:05 UTC"

var header = []string{"timestamp", "transcript", "summary", "sentiment"}

// ErrStorage wraps any failure to open or write the backing file.
var ErrStorage = errors.New("history: storage failure")

// ErrNoHistory is returned by ExportTo when no record has ever been written.
var ErrNoHistory = errors.New("history: no records yet")

// Record is one persisted analysis outcome.
type Record struct {
	Timestamp  time.Time `json:"-"`
	Transcript string    `json:"transcript"`
	Summary    string    `json:"summary"`
	Sentiment  string    `json:"sentiment"`
}

// TimestampString returns the timestamp in the fixed log format.
func (r Record) TimestampString() string {
	return r.Timestamp.UTC().Format(TimeLayout)
}

// Store is an append-only CSV log of analysis records. A single writer lock
// serializes appends so concurrent rows are never interleaved.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open creates a Store backed by the CSV file at path. The file is not
// touched until the first append; a missing file is a valid empty store.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Append writes one record to the backing file, creating it with a header
// row on first use. The row is flushed and synced before Append returns.
func (s *Store) Append(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The header is owed whenever the file has no content yet, not just when
	// it is missing: a pre-existing zero-byte file must get one too, or the
	// first appended row would later be mistaken for the header.
	fi, statErr := os.Stat(s.path)
	needHeader := os.IsNotExist(statErr) || (statErr == nil && fi.Size() == 0)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrStorage, s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("%w: writing header: %v", ErrStorage, err)
		}
	}
	if err := w.Write([]string{r.TimestampString(), r.Transcript, r.Summary, r.Sentiment}); err != nil {
		return fmt.Errorf("%w: writing row: %v", ErrStorage, err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flushing row: %v", ErrStorage, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %v", ErrStorage, s.path, err)
	}
	return nil
}

// ReadAll returns every stored record in file order. A missing backing file
// yields an empty slice, not an error.
func (s *Store) ReadAll() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("%w: opening %s: %v", ErrStorage, s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	// Skip the header row.
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("%w: reading header: %v", ErrStorage, err)
	}

	var records []Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading row: %v", ErrStorage, err)
		}

		ts, err := time.Parse(TimeLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: parsing timestamp %q: %v", ErrStorage, row[0], err)
		}
		records = append(records, Record{
			Timestamp:  ts,
			Transcript: row[1],
			Summary:    row[2],
			Sentiment:  row[3],
		})
	}

	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// ExportTo copies the backing file verbatim to w, header included.
func (s *Store) ExportTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNoHistory
		}
		return 0, fmt.Errorf("%w: opening %s: %v", ErrStorage, s.path, err)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("%w: copying %s: %v", ErrStorage, s.path, err)
	}
	return n, nil
}
