package feed

import (
	"encoding/json"
	"sync"
	"time"
)

type mirrorRecord struct {
	at      time.Time
	payload json.RawMessage
}

type recordKey struct {
	table string
	id    uint
}

// Mirror is a session's in-memory view of the fed tables, kept consistent by
// applying change events. Events are deduplicated by event id (a session's own
// write echoed back must not double-apply) and ordered per record by
// last-write-wins on the event timestamp. Deletes leave a tombstone timestamp
// behind so a pre-delete update arriving late cannot resurrect the record.
type Mirror struct {
	mu     sync.RWMutex
	tables map[string]map[uint]mirrorRecord

	seen    map[string]struct{}
	seenSeq []string // insertion order, for bounded eviction
	seenOff int      // evicted prefix of seenSeq, compacted when it grows
	seenCap int

	tombs   map[recordKey]time.Time
	tombSeq []recordKey
	tombOff int
	tombCap int
}

func NewMirror() *Mirror {
	return &Mirror{
		tables:  make(map[string]map[uint]mirrorRecord),
		seen:    make(map[string]struct{}),
		seenCap: 1024,
		tombs:   make(map[recordKey]time.Time),
		tombCap: 1024,
	}
}

// Apply folds one event into the mirror. It reports whether the event changed
// state; duplicates and stale updates are dropped.
func (m *Mirror) Apply(ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.seen[ev.ID]; dup {
		return false
	}
	m.remember(ev.ID)

	table, ok := m.tables[ev.Table]
	if !ok {
		table = make(map[uint]mirrorRecord)
		m.tables[ev.Table] = table
	}
	key := recordKey{table: ev.Table, id: ev.RecordID}

	switch ev.Action {
	case ActionDelete:
		cur, exists := table[ev.RecordID]
		if exists && ev.At.Before(cur.at) {
			return false
		}
		m.tombstone(key, ev.At)
		if !exists {
			return false
		}
		delete(table, ev.RecordID)
		return true

	case ActionInsert, ActionUpdate:
		// A pre-delete update arriving after the delete must stay dead; only
		// a write newer than the tombstone brings the record back.
		if ts, dead := m.tombs[key]; dead && ev.At.Before(ts) {
			return false
		}
		// An insert for a record the session already holds (typically the echo
		// of its own write arriving with a fresh event id) must not duplicate;
		// last-write-wins by timestamp decides whether it replaces.
		if cur, exists := table[ev.RecordID]; exists && ev.At.Before(cur.at) {
			return false
		}
		table[ev.RecordID] = mirrorRecord{at: ev.At, payload: ev.Payload}
		return true
	}

	return false
}

// Get returns the mirrored payload of one record, if present.
func (m *Mirror) Get(table string, id uint) (json.RawMessage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tables[table][id]
	if !ok {
		return nil, false
	}
	return rec.payload, true
}

// Len returns the number of mirrored records in a table.
func (m *Mirror) Len(table string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table])
}

func (m *Mirror) remember(id string) {
	m.seen[id] = struct{}{}
	m.seenSeq = append(m.seenSeq, id)
	if len(m.seenSeq)-m.seenOff > m.seenCap {
		delete(m.seen, m.seenSeq[m.seenOff])
		m.seenSeq[m.seenOff] = ""
		m.seenOff++
	}
	// Copy the live tail into a fresh slice now and then so the evicted
	// prefix does not pin the backing array for the session's lifetime.
	if m.seenOff > m.seenCap {
		m.seenSeq = append([]string(nil), m.seenSeq[m.seenOff:]...)
		m.seenOff = 0
	}
}

func (m *Mirror) tombstone(key recordKey, at time.Time) {
	if cur, ok := m.tombs[key]; ok {
		if at.After(cur) {
			m.tombs[key] = at
		}
		return
	}
	m.tombs[key] = at
	m.tombSeq = append(m.tombSeq, key)
	if len(m.tombSeq)-m.tombOff > m.tombCap {
		delete(m.tombs, m.tombSeq[m.tombOff])
		m.tombSeq[m.tombOff] = recordKey{}
		m.tombOff++
	}
	if m.tombOff > m.tombCap {
		m.tombSeq = append([]recordKey(nil), m.tombSeq[m.tombOff:]...)
		m.tombOff = 0
	}
}
