package course

import (
	"errors"
	"sync"
	"time"
)

var ErrSheetNotFound = errors.New("sheet not found")

const (
	DefaultMaxSheets = 10000
	DefaultIdleTTL   = 24 * time.Hour
)

type storedSheet struct {
	sheet    *Sheet
	lastUsed time.Time
}

// Store keeps sheets in memory for the lifetime of the process. Sheets
// untouched for longer than the idle TTL are dropped, and when the store is
// full the least recently used sheet makes room for a new one.
type Store struct {
	mu        sync.Mutex
	sheets    map[string]*storedSheet
	maxSheets int
	idleTTL   time.Duration
	now       func() time.Time
}

func NewStore() *Store {
	return NewStoreWithLimits(DefaultMaxSheets, DefaultIdleTTL)
}

// NewStoreWithLimits caps the store at maxSheets and expires sheets idle for
// idleTTL. A non-positive value disables that limit.
func NewStoreWithLimits(maxSheets int, idleTTL time.Duration) *Store {
	return &Store{
		sheets:    make(map[string]*storedSheet),
		maxSheets: maxSheets,
		idleTTL:   idleTTL,
		now:       time.Now,
	}
}

func (st *Store) Create() *Sheet {
	sheet := NewSheet()

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.expire(now)
	if st.maxSheets > 0 && len(st.sheets) >= st.maxSheets {
		st.evictOldest()
	}
	st.sheets[sheet.ID] = &storedSheet{sheet: sheet, lastUsed: now}
	return sheet
}

// Get returns the sheet and marks it as used.
func (st *Store) Get(id string) (*Sheet, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	stored, ok := st.sheets[id]
	if !ok {
		return nil, ErrSheetNotFound
	}
	now := st.now()
	if st.idle(stored, now) {
		delete(st.sheets, id)
		return nil, ErrSheetNotFound
	}
	stored.lastUsed = now
	return stored.sheet, nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sheets[id]; !ok {
		return ErrSheetNotFound
	}
	delete(st.sheets, id)
	return nil
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sheets)
}

// Sweep drops every idle sheet and reports how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.expire(st.now())
}

func (st *Store) idle(s *storedSheet, now time.Time) bool {
	return st.idleTTL > 0 && now.Sub(s.lastUsed) > st.idleTTL
}

func (st *Store) expire(now time.Time) int {
	removed := 0
	for id, s := range st.sheets {
		if st.idle(s, now) {
			delete(st.sheets, id)
			removed++
		}
	}
	return removed
}

func (st *Store) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, s := range st.sheets {
		if oldestID == "" || s.lastUsed.Before(oldest) {
			oldestID, oldest = id, s.lastUsed
		}
	}
	if oldestID != "" {
		delete(st.sheets, oldestID)
	}
}
