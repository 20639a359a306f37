package feed

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(id, table, action string, recordID uint, at time.Time, payload string) Event {
	return Event{
		ID:       id,
		Table:    table,
		Action:   action,
		RecordID: recordID,
		OwnerID:  1,
		At:       at,
		Payload:  json.RawMessage(payload),
	}
}

func TestMirrorDedupesByEventID(t *testing.T) {
	m := NewMirror()
	now := time.Now()

	ev := event("ev-1", TableCustomers, ActionInsert, 10, now, `{"name":"A"}`)
	assert.True(t, m.Apply(ev))
	// The same event delivered again (echo via the broadcast channel) is a no-op.
	assert.False(t, m.Apply(ev))
	assert.Equal(t, 1, m.Len(TableCustomers))
}

func TestMirrorInsertForHeldRecordDoesNotDuplicate(t *testing.T) {
	m := NewMirror()
	now := time.Now()

	assert.True(t, m.Apply(event("ev-1", TableInvoices, ActionInsert, 7, now, `{"v":1}`)))
	// A second insert event for a record the session already holds replaces it
	// instead of duplicating.
	assert.True(t, m.Apply(event("ev-2", TableInvoices, ActionInsert, 7, now.Add(time.Second), `{"v":2}`)))
	assert.Equal(t, 1, m.Len(TableInvoices))

	payload, ok := m.Get(TableInvoices, 7)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(payload))
}

func TestMirrorLastWriteWins(t *testing.T) {
	m := NewMirror()
	now := time.Now()

	assert.True(t, m.Apply(event("ev-2", TableStock, ActionUpdate, 3, now.Add(time.Minute), `{"sales":9}`)))
	// An older update arriving late is discarded.
	assert.False(t, m.Apply(event("ev-1", TableStock, ActionUpdate, 3, now, `{"sales":4}`)))

	payload, ok := m.Get(TableStock, 3)
	require.True(t, ok)
	assert.JSONEq(t, `{"sales":9}`, string(payload))
}

func TestMirrorDelete(t *testing.T) {
	m := NewMirror()
	now := time.Now()

	assert.True(t, m.Apply(event("ev-1", TableExpenses, ActionInsert, 5, now, `{"amount":100}`)))
	assert.True(t, m.Apply(event("ev-2", TableExpenses, ActionDelete, 5, now.Add(time.Second), "null")))
	assert.Equal(t, 0, m.Len(TableExpenses))

	// Deleting something the mirror never held changes nothing.
	assert.False(t, m.Apply(event("ev-3", TableExpenses, ActionDelete, 99, now, "null")))
}

func TestMirrorDeleteBlocksStalePreDeleteUpdate(t *testing.T) {
	m := NewMirror()
	now := time.Now()

	assert.True(t, m.Apply(event("ev-1", TableCustomers, ActionInsert, 10, now, `{"v":1}`)))
	assert.True(t, m.Apply(event("ev-3", TableCustomers, ActionDelete, 10, now.Add(2*time.Second), "null")))

	// An update issued before the delete but delivered after it must not
	// resurrect the record.
	assert.False(t, m.Apply(event("ev-2", TableCustomers, ActionUpdate, 10, now.Add(time.Second), `{"v":2}`)))
	assert.Equal(t, 0, m.Len(TableCustomers))
	_, ok := m.Get(TableCustomers, 10)
	assert.False(t, ok)

	// A stale insert is blocked the same way.
	assert.False(t, m.Apply(event("ev-4", TableCustomers, ActionInsert, 10, now.Add(time.Second), `{"v":1}`)))
	assert.Equal(t, 0, m.Len(TableCustomers))
}

func TestMirrorRecordRecreatedAfterDelete(t *testing.T) {
	m := NewMirror()
	now := time.Now()

	assert.True(t, m.Apply(event("ev-1", TableInvoices, ActionInsert, 4, now, `{"v":1}`)))
	assert.True(t, m.Apply(event("ev-2", TableInvoices, ActionDelete, 4, now.Add(time.Second), "null")))

	// A write newer than the tombstone is a genuine re-creation.
	assert.True(t, m.Apply(event("ev-3", TableInvoices, ActionInsert, 4, now.Add(2*time.Second), `{"v":2}`)))
	payload, ok := m.Get(TableInvoices, 4)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(payload))
}

func TestMirrorStaleDeleteDropped(t *testing.T) {
	m := NewMirror()
	now := time.Now()

	assert.True(t, m.Apply(event("ev-2", TableStock, ActionUpdate, 8, now.Add(time.Minute), `{"sales":9}`)))
	// A delete issued before the update it lost to does not remove the record.
	assert.False(t, m.Apply(event("ev-1", TableStock, ActionDelete, 8, now, "null")))
	assert.Equal(t, 1, m.Len(TableStock))
}

func TestMirrorSeenEvictionKeepsDedupingRecentEvents(t *testing.T) {
	m := NewMirror()
	now := time.Now()

	// Push well past the dedupe window so eviction and compaction both run.
	for i := 0; i < 3000; i++ {
		m.Apply(event(fmt.Sprintf("ev-%d", i), TableCustomers, ActionUpdate, 1, now.Add(time.Duration(i)*time.Millisecond), `{}`))
	}

	// A recent event id is still deduplicated after eviction churn.
	assert.False(t, m.Apply(event("ev-2999", TableCustomers, ActionUpdate, 1, now.Add(4*time.Second), `{}`)))
	assert.Equal(t, 1, m.Len(TableCustomers))
}

func TestMirrorTablesAreIndependent(t *testing.T) {
	m := NewMirror()
	now := time.Now()

	assert.True(t, m.Apply(event("ev-1", TableCustomers, ActionInsert, 1, now, `{}`)))
	assert.True(t, m.Apply(event("ev-2", TableInvoices, ActionInsert, 1, now, `{}`)))
	assert.Equal(t, 1, m.Len(TableCustomers))
	assert.Equal(t, 1, m.Len(TableInvoices))
}
