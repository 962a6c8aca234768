package page

import (
	"sync"
	"time"
)

// Activity is one recorded content event shown on the admin dashboard.
type Activity struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	PageID uint      `json:"pageId"`
	Title  string    `json:"title"`
}

// activityLog is a fixed-capacity ring buffer of recent content events. Old
// entries are evicted as new ones arrive, so the log never grows past its
// capacity.
type activityLog struct {
	mu      sync.Mutex
	entries []Activity
	next    int
	filled  bool
	now     func() time.Time
}

func newActivityLog(capacity int) *activityLog {
	if capacity <= 0 {
		capacity = 64
	}
	return &activityLog{
		entries: make([]Activity, capacity),
		now:     time.Now,
	}
}

func (l *activityLog) record(action string, pageID uint, title string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = Activity{
		At:     l.now(),
		Action: action,
		PageID: pageID,
		Title:  title,
	}
	l.next++
	if l.next == len(l.entries) {
		l.next = 0
		l.filled = true
	}
}

// recent returns up to limit entries, newest first.
func (l *activityLog) recent(limit int) []Activity {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.next
	if l.filled {
		size = len(l.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]Activity, 0, limit)
	for i := 0; i < limit; i++ {
		index := l.next - 1 - i
		if index < 0 {
			index += len(l.entries)
		}
		out = append(out, l.entries[index])
	}
	return out
}
