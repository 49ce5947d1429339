// Package history keeps the append-only command log and derives coarse
// time-of-day usage patterns from it.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PatternWindow is how many of the most recent entries pattern learning inspects.
const PatternWindow = 20

// PatternThreshold is the log length that must be exceeded before patterns are learned.
const PatternThreshold = 10

// Entry is one executed command.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Devices   []string  `json:"devices"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
}

// Sink persists entries outside the process. Failures never reject the entry.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// Log is the in-memory, append-only command history. Entries are kept in
// completion order, which under concurrent commands is not submission order.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	sink    Sink
	now     func() time.Time
}

// NewLog creates an empty history log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// SetSink attaches a persistence sink.
func (l *Log) SetSink(s Sink) {
	l.mu.Lock()
	l.sink = s
	l.mu.Unlock()
}

// SetClock overrides the timestamp source.
func (l *Log) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// Record appends a new entry and returns it.
func (l *Log) Record(ctx context.Context, command string, devices []string, action string, success bool) Entry {
	l.mu.Lock()
	e := Entry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Command:   command,
		Devices:   append([]string{}, devices...),
		Action:    action,
		Success:   success,
	}
	l.entries = append(l.entries, e)
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		if err := sink.Append(ctx, e); err != nil {
			log.Warn().Err(err).Str("entry", e.ID).Msg("failed to persist history entry")
		}
	}
	return e
}

// Restore prepends entries loaded from a sink, so that patterns survive a
// restart. Restored entries are not written back to the sink.
func (l *Log) Restore(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(append([]Entry(nil), entries...), l.entries...)
}

// Entries returns a copy of every entry in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Recent returns the last n entries, oldest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	return append([]Entry(nil), l.entries[len(l.entries)-n:]...)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Patterns buckets the commands of entries by local hour of day.
func Patterns(entries []Entry) map[int][]string {
	out := make(map[int][]string)
	for _, e := range entries {
		h := e.Timestamp.Hour()
		out[h] = append(out[h], e.Command)
	}
	return out
}

// Learn returns the hour-of-day patterns over the last PatternWindow entries,
// or nil while the log holds PatternThreshold entries or fewer.
func (l *Log) Learn() map[int][]string {
	if l.Len() <= PatternThreshold {
		return nil
	}
	return Patterns(l.Recent(PatternWindow))
}
