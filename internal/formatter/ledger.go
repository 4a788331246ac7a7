package formatter

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultRetention is how long a mention stays visible to Recent.
const DefaultRetention = 7 * 24 * time.Hour

type Mention struct {
	Handle      string    `json:"username"`
	MentionedAt time.Time `json:"mentioned_at"`
}

// MentionLedger remembers when each handle was last mentioned.
//
// Reserve atomically picks up to max handles, in order, that were not
// mentioned within cooldown and marks them as mentioned at now. Two
// concurrent callers never receive the same handle.
type MentionLedger interface {
	Reserve(ctx context.Context, handles []string, max int, cooldown time.Duration, now time.Time) ([]string, error)
	Recent(ctx context.Context, since time.Time) ([]Mention, error)
}

// MemoryLedger is a bounded in-process MentionLedger. An entry is kept
// until both its cooldown and the retention window have passed. When the
// ledger is full it drops the oldest entry whose cooldown is over, and
// only falls back to the oldest entry overall when every handle is
// still cooling down.
type MemoryLedger struct {
	mu         sync.Mutex
	entries    map[string]mention
	maxEntries int
	retention  time.Duration
}

type mention struct {
	at       time.Time
	cooldown time.Duration
}

func (m mention) coolingAt(now time.Time) bool {
	return now.Sub(m.at) < m.cooldown
}

func NewMemoryLedger(maxEntries int, retention time.Duration) *MemoryLedger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryLedger{
		entries:    make(map[string]mention),
		maxEntries: maxEntries,
		retention:  retention,
	}
}

func (l *MemoryLedger) Reserve(_ context.Context, handles []string, max int, cooldown time.Duration, now time.Time) ([]string, error) {
	if max <= 0 || len(handles) == 0 {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictExpired(now)

	reserved := make([]string, 0, max)
	for _, h := range handles {
		if len(reserved) == max {
			break
		}
		if last, ok := l.entries[h]; ok && now.Sub(last.at) < cooldown {
			continue
		}
		l.entries[h] = mention{at: now, cooldown: cooldown}
		reserved = append(reserved, h)
	}

	for l.maxEntries > 0 && len(l.entries) > l.maxEntries {
		l.evictOldest(now)
	}

	return reserved, nil
}

func (l *MemoryLedger) Recent(_ context.Context, since time.Time) ([]Mention, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Mention, 0, len(l.entries))
	for h, m := range l.entries {
		if m.at.After(since) {
			out = append(out, Mention{Handle: h, MentionedAt: m.at})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MentionedAt.After(out[j].MentionedAt)
	})
	return out, nil
}

func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// caller holds l.mu
func (l *MemoryLedger) evictExpired(now time.Time) {
	for h, m := range l.entries {
		if now.Sub(m.at) > l.retention && !m.coolingAt(now) {
			delete(l.entries, h)
		}
	}
}

// caller holds l.mu
func (l *MemoryLedger) evictOldest(now time.Time) {
	var (
		oldest  string
		at      time.Time
		cooling = true
		first   = true
	)
	for h, m := range l.entries {
		c := m.coolingAt(now)
		switch {
		case first, cooling && !c, c == cooling && m.at.Before(at):
			oldest, at, cooling, first = h, m.at, c, false
		}
	}
	delete(l.entries, oldest)
}
