package csvlog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/Taylor-eOS/light-intensity-sensor/internal/domain"
	"github.com/Taylor-eOS/light-intensity-sensor/internal/ports"
)

// ErrHeaderMismatch is returned when an existing log file was written with a
// different column schema than the sink is configured for.
var ErrHeaderMismatch = errors.New("csvlog: existing file header does not match schema")

var baseHeader = []string{"timestamp", "iso_timestamp", "lux_value"}
var statsHeader = []string{"min_lux", "max_lux", "median_lux", "std_lux", "sample_count"}

// Sink appends one CSV row per window to a flat log file. The first line is
// always the header. Reopening an existing log resumes appending after the
// header is validated; rows are never rewritten.
type Sink struct {
	mu           sync.Mutex
	path         string
	includeStats bool
	file         *os.File
	w            *csv.Writer
	existingRows int
}

func New(path string, includeStats bool) *Sink {
	return &Sink{path: path, includeStats: includeStats}
}

func (s *Sink) Name() string { return "csvlog" }

// ExistingRows reports how many data rows the log already held when Init
// resumed it. Zero for a fresh file.
func (s *Sink) ExistingRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existingRows
}

// Init opens the log file and guarantees the header row exists. Called once
// before the first window.
func (s *Sink) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.checkExisting()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	s.file = f
	s.w = csv.NewWriter(f)

	if !existing {
		if err := s.w.Write(s.header()); err != nil {
			return err
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Append writes one record row and flushes it so a write failure is
// observable before the next window begins.
func (s *Sink) Append(rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return fmt.Errorf("csvlog: sink not initialized")
	}

	row := []string{
		strconv.FormatInt(rec.At.Unix(), 10),
		rec.At.UTC().Format(time.RFC3339),
		strconv.Itoa(rec.Representative),
	}
	if s.includeStats {
		row = append(row,
			strconv.Itoa(rec.Min),
			strconv.Itoa(rec.Max),
			strconv.Itoa(rec.Median),
			strconv.Itoa(rec.Spread),
			strconv.Itoa(rec.SampleCount),
		)
	}

	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	s.w.Flush()
	err := s.w.Error()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	s.w = nil
	return err
}

// checkExisting reports whether a non-empty log is already on disk, and
// rejects it when its header does not match the configured schema.
func (s *Sink) checkExisting() (bool, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("csvlog: read existing header: %w", err)
	}

	want := s.header()
	if len(head) != len(want) {
		return false, fmt.Errorf("%w: got %d columns, want %d", ErrHeaderMismatch, len(head), len(want))
	}
	for i := range want {
		if head[i] != want[i] {
			return false, fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i, head[i], want[i])
		}
	}

	r.FieldsPerRecord = len(want)
	rows := 0
	for {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return false, fmt.Errorf("csvlog: scan existing rows: %w", err)
		}
		rows++
	}
	s.existingRows = rows
	return true, nil
}

func (s *Sink) header() []string {
	h := append([]string(nil), baseHeader...)
	if s.includeStats {
		h = append(h, statsHeader...)
	}
	return h
}

var _ ports.RecordSink = (*Sink)(nil)
