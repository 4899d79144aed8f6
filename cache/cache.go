// Package cache holds the in-memory ledger of one collection run: which
// candidate slots were already scheduled and which records were accepted.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/use-agent/rerascrape/models"
)

// Ledger is safe for concurrent use; the status server reads it while the
// collection loop writes.
type Ledger struct {
	mu      sync.RWMutex
	seen    map[string]struct{}
	ids     map[string]struct{}
	records []models.ProjectRecord
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		seen: make(map[string]struct{}),
		ids:  make(map[string]struct{}),
	}
}

// Key identifies a candidate slot by listing strategy and position.
func Key(strategy string, index int) string {
	h := sha256.New()
	h.Write([]byte(strategy))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(index)))
	return hex.EncodeToString(h.Sum(nil))
}

// MarkSeen records key and reports whether it was new.
func (l *Ledger) MarkSeen(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[key]; ok {
		return false
	}
	l.seen[key] = struct{}{}
	return true
}

// Seen reports whether key was marked.
func (l *Ledger) Seen(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[key]
	return ok
}

// Add appends rec unless a record with the same regulatory ID was already
// accepted. Records whose ID is a sentinel are never treated as duplicates.
// Returns whether rec was appended.
func (l *Ledger) Add(rec models.ProjectRecord) bool {
	id := strings.TrimSpace(rec.RegulatoryID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !models.IsSentinel(id) {
		if _, ok := l.ids[id]; ok {
			return false
		}
		l.ids[id] = struct{}{}
	}
	l.records = append(l.records, rec)
	return true
}

// Records returns a copy of the accepted records in acceptance order.
func (l *Ledger) Records() []models.ProjectRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.ProjectRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of accepted records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
