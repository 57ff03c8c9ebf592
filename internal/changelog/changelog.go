// Package changelog keeps an append-only record of every content
// mutation attempted during a session, for audit and review handoff.
package changelog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// displayLimit caps old/new values in exports so a session file stays
// readable even when whole body fields were rewritten.
const displayLimit = 100

// Record is one attempted mutation. Failed attempts are recorded with
// Success false and the error text, never dropped.
type Record struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Backend        string    `json:"backend"`
	Operation      string    `json:"operation"`
	Target         string    `json:"target"`
	Field          string    `json:"field,omitempty"`
	OldValue       string    `json:"old_value,omitempty"`
	NewValue       string    `json:"new_value,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	RevisionID     int64     `json:"revision_id,omitempty"`
	ReviewURL      string    `json:"review_url,omitempty"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
}

// Log is an in-memory, append-only change log for a single session.
// Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	session string
	records []Record
}

// New creates a log with a timestamp-derived session id.
func New() *Log {
	return NewWithSession(time.Now().Format("20060102_150405"))
}

// NewWithSession creates a log with an explicit session id.
func NewWithSession(session string) *Log {
	return &Log{session: session}
}

// SessionID returns the session identifier records are grouped under.
func (l *Log) SessionID() string {
	return l.session
}

// Append stores a record, assigning its id and timestamp, and returns
// the stored copy. Existing records are never modified.
func (l *Log) Append(r Record) Record {
	r.ID = uuid.New().String()
	r.Timestamp = time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
	return r
}

// Records returns a copy of all records in append order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Successful returns the records whose mutation was applied.
func (l *Log) Successful() []Record {
	return l.filter(true)
}

// Failed returns the records whose mutation was rejected or errored.
func (l *Log) Failed() []Record {
	return l.filter(false)
}

func (l *Log) filter(success bool) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Record
	for _, r := range l.records {
		if r.Success == success {
			out = append(out, r)
		}
	}
	return out
}

// Len reports the number of records appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Export is the serializable form of a session log. Counts are
// precomputed so consumers do not have to re-derive them.
type Export struct {
	SessionID  string   `json:"session_id"`
	Total      int      `json:"total_changes"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Records    []Record `json:"changes"`
}

// Export snapshots the log with long field values truncated for display.
func (l *Log) Export() Export {
	records := l.Records()
	e := Export{
		SessionID: l.session,
		Total:     len(records),
		Records:   make([]Record, len(records)),
	}
	for i, r := range records {
		r.OldValue = truncate(r.OldValue, displayLimit)
		r.NewValue = truncate(r.NewValue, displayLimit)
		e.Records[i] = r
		if r.Success {
			e.Successful++
		} else {
			e.Failed++
		}
	}
	return e
}

// JSON renders the export as indented JSON.
func (l *Log) JSON() ([]byte, error) {
	return json.MarshalIndent(l.Export(), "", "  ")
}

// Save writes the JSON export to path.
func (l *Log) Save(path string) error {
	data, err := l.JSON()
	if err != nil {
		return fmt.Errorf("encode changelog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write changelog: %w", err)
	}
	return nil
}

// Load reads a previously saved export, e.g. to re-render a summary.
func Load(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read changelog: %w", err)
	}
	var e Export
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse changelog %s: %w", path, err)
	}
	return &e, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
