package state

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind tags a conversation entry. The set is fixed; presentation
// dispatches over it exhaustively instead of comparing strings.
type Kind int

const (
	KindUser Kind = iota
	KindAgent
	KindInternal
	KindDream
	KindContemplation
	KindObservation
	KindQuestion
	KindError
)

// String returns the canonical lowercase tag for the kind.
func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAgent:
		return "agent"
	case KindInternal:
		return "internal"
	case KindDream:
		return "dream"
	case KindContemplation:
		return "contemplation"
	case KindObservation:
		return "observation"
	case KindQuestion:
		return "question"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// KindForPushType maps a push-channel message type onto an entry kind.
// The backend's "autonomous" thoughts, and any type introduced after
// this host was built, render as agent entries.
func KindForPushType(msgType string) Kind {
	switch msgType {
	case "dream":
		return KindDream
	case "question":
		return KindQuestion
	case "contemplation":
		return KindContemplation
	case "observation":
		return KindObservation
	case "internal":
		return KindInternal
	default:
		return KindAgent
	}
}

// Entry is a single conversation log record.
type Entry struct {
	ID        string
	Kind      Kind
	Text      string
	Timestamp time.Time
	Mood      string
	Trigger   string
	ToolUsed  string
	Success   bool
	Leaked    bool
}

// NewEntry creates an entry with a fresh ID and arrival timestamp.
func NewEntry(kind Kind, text string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// Log is the append-only conversation log, ordered by arrival.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	onAppend func(Entry)
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// OnAppend registers a single listener invoked after every append.
func (l *Log) OnAppend(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onAppend = fn
}

// Append adds an entry to the end of the log.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	fn := l.onAppend
	l.mu.Unlock()

	if fn != nil {
		fn(e)
	}
}

// Entries returns a copy of the log in arrival order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
