package watch

import (
	"sync"
	"time"
)

// Operation is one completed daemon action, kept for the status surface
// and broadcast to reload subscribers.
type Operation struct {
	// Seq is a monotonically increasing sequence number assigned when
	// the operation is recorded.
	Seq uint64 `json:"seq"`

	// Pack is the pack the operation touched. Empty for failures that
	// span packs.
	Pack string `json:"pack"`

	// Event names the action, currently always "compile".
	Event string `json:"event"`

	// Documents is how many documents the compile wrote.
	Documents int `json:"documents"`

	// Skipped is how many source files were left out as invalid.
	Skipped int `json:"skipped,omitempty"`

	// Err holds the failure message when the operation did not succeed.
	Err string `json:"error,omitempty"`

	// At is when the operation started.
	At time.Time `json:"at"`

	// Duration is how long it ran.
	Duration time.Duration `json:"duration"`
}

// Log is a fixed-capacity ring of recent operations. Appends past the
// capacity overwrite the oldest entries.
type Log struct {
	mu   sync.RWMutex
	ops  []Operation
	next int
	size int
	seq  uint64
}

// NewLog creates a log holding at most capacity operations. A capacity
// of zero or less falls back to 256.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 256
	}
	return &Log{ops: make([]Operation, capacity)}
}

// Append records an operation, assigning its sequence number, and
// returns the recorded value.
func (l *Log) Append(op Operation) Operation {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	op.Seq = l.seq
	l.ops[l.next] = op
	l.next = (l.next + 1) % len(l.ops)
	if l.size < len(l.ops) {
		l.size++
	}
	return op
}

// Recent returns up to n operations, newest first. A non-positive n
// returns everything retained.
func (l *Log) Recent(n int) []Operation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > l.size {
		n = l.size
	}
	out := make([]Operation, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.next - i + len(l.ops)) % len(l.ops)
		out = append(out, l.ops[idx])
	}
	return out
}

// Len returns how many operations the log currently retains.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}
