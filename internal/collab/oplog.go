package collab

import "github.com/easelhq/easel-api/internal/models"

// DefaultOperationLogCap bounds the per-session operation log. Operations
// older than the window are unavailable for conflict replay.
const DefaultOperationLogCap = 50

type operationLog struct {
	cap     int
	entries []models.OperationLogEntry
}

func newOperationLog(cap int) *operationLog {
	if cap <= 0 {
		cap = DefaultOperationLogCap
	}
	return &operationLog{cap: cap}
}

func (l *operationLog) append(e models.OperationLogEntry) {
	l.entries = append(l.entries, e)
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
}

// entriesAfter returns the accepted operations with sequence in (after, head],
// i.e. everything a client holding sequence `after` has missed. Entries
// evicted from the window are simply absent.
func (l *operationLog) entriesAfter(after int64) []models.OperationLogEntry {
	var out []models.OperationLogEntry
	for _, e := range l.entries {
		if e.Sequence > after {
			out = append(out, e)
		}
	}
	return out
}

func (l *operationLog) snapshot() []models.OperationLogEntry {
	out := make([]models.OperationLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *operationLog) restore(entries []models.OperationLogEntry) {
	if len(entries) > l.cap {
		entries = entries[len(entries)-l.cap:]
	}
	l.entries = append(l.entries[:0], entries...)
}

func (l *operationLog) len() int {
	return len(l.entries)
}
