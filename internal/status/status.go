package status

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// State is the processing state of a single input file.
type State string

const (
	StateNew       State = "new"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// TimestampFormat matches the timestamps written by the legacy pipeline so
// old and new status logs can be mixed.
const TimestampFormat = "2006-01-02 15:04:05.000000"

const header = "Date\tFilename\tStatus"

// ErrStateRegression is returned by Record when a transition would move a
// file backwards (e.g. completed -> running).
var ErrStateRegression = errors.New("status regression")

// ParseState returns the State for s and whether it is a known state.
func ParseState(s string) (State, bool) {
	switch st := State(strings.TrimSpace(s)); st {
	case StateNew, StateRunning, StateCompleted:
		return st, true
	default:
		return "", false
	}
}

func (s State) rank() int {
	switch s {
	case StateNew:
		return 0
	case StateRunning:
		return 1
	case StateCompleted:
		return 2
	default:
		return -1
	}
}

// FileRecord is the effective state of one input file after replaying the log.
type FileRecord struct {
	Name      string
	State     State
	UpdatedAt time.Time
}

// Store is an append-only status log. Each line is
// "timestamp<TAB>filename<TAB>status"; the last line for a name wins.
//
// Store does no locking. Callers must make sure only one goroutine (and one
// process) appends to a given log.
type Store struct {
	path    string
	now     func() time.Time
	latest  map[string]State
	skipped int
}

// Open returns a Store backed by the log at path. The file is created on the
// first Record call if it does not exist.
func Open(path string) *Store {
	return &Store{
		path:   path,
		now:    time.Now,
		latest: make(map[string]State),
	}
}

// Path returns the location of the status log.
func (s *Store) Path() string { return s.path }

// Skipped returns how many malformed lines the last read ignored.
func (s *Store) Skipped() int { return s.skipped }

// Load replays the log and returns the latest state per file name.
func (s *Store) Load() (map[string]State, error) {
	recs, err := s.Records()
	if err != nil {
		return nil, err
	}
	out := make(map[string]State, len(recs))
	for name, rec := range recs {
		out[name] = rec.State
	}
	return out, nil
}

// Records replays the log and returns the latest record per file name.
// A missing log is an empty store. Lines with the wrong number of fields or
// an unknown state (including the header line) are skipped.
func (s *Store) Records() (map[string]FileRecord, error) {
	recs := make(map[string]FileRecord)
	s.skipped = 0

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.latest = make(map[string]State)
			return recs, nil
		}
		return nil, fmt.Errorf("open status log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		rec, ok := parseLine(line)
		if !ok {
			if line != header {
				s.skipped++
			}
			continue
		}
		recs[rec.Name] = rec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read status log: %w", err)
	}

	s.latest = make(map[string]State, len(recs))
	for name, rec := range recs {
		s.latest[name] = rec.State
	}
	return recs, nil
}

func parseLine(line string) (FileRecord, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return FileRecord{}, false
	}
	name := strings.TrimSpace(fields[1])
	if name == "" {
		return FileRecord{}, false
	}
	st, ok := ParseState(fields[2])
	if !ok {
		return FileRecord{}, false
	}
	// An unparsable timestamp does not invalidate the record; it only makes
	// the record ineligible for stale detection.
	ts, _ := dateparse.ParseLocal(strings.TrimSpace(fields[0]))
	return FileRecord{Name: name, State: st, UpdatedAt: ts}, true
}

// Record appends a new state for name. Transitions that move backwards
// relative to the last known state return ErrStateRegression and write
// nothing. Recording the current state again is allowed.
func (s *Store) Record(name string, st State) error {
	if st.rank() < 0 {
		return fmt.Errorf("record %s: unknown state %q", name, st)
	}
	if prev, ok := s.latest[name]; ok && st.rank() < prev.rank() {
		return fmt.Errorf("%w: %s %s -> %s", ErrStateRegression, name, prev, st)
	}
	return s.append(name, st)
}

// Reset appends a "new" record for name regardless of its current state.
// It is the only way to make a completed or stuck file eligible again.
func (s *Store) Reset(name string) error {
	return s.append(name, StateNew)
}

func (s *Store) append(name string, st State) error {
	if strings.ContainsAny(name, "\t\n") {
		return fmt.Errorf("record %q: file name contains tab or newline", name)
	}

	_, statErr := os.Stat(s.path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open status log for append: %w", err)
	}

	var b strings.Builder
	if fresh {
		b.WriteString(header)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s\t%s\t%s\n", s.now().Format(TimestampFormat), name, st)

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("append status log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close status log: %w", err)
	}

	s.latest[name] = st
	return nil
}
