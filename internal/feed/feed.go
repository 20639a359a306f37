// Package feed is the realtime change channel: every mutation of a fed table
// is recorded and pushed to live sessions so their in-memory mirrors stay
// consistent. Transport is redis pub/sub when configured, with an in-process
// broadcast fallback for single-instance deployments.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"billmate-backend/internal/logger"
	"billmate-backend/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Actions carried by change events.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Fed table names.
const (
	TableCustomers  = "customers"
	TableQuotations = "quotations"
	TableInvoices   = "invoices"
	TableStock      = "stock_register"
	TableExpenses   = "expense_register"
)

const channelPrefix = "billmate.changes."

// Event is one change notification. Payload holds the full record for inserts
// and updates, and is null for deletes.
type Event struct {
	ID       string          `json:"id"`
	Table    string          `json:"table"`
	Action   string          `json:"action"`
	RecordID uint            `json:"record_id"`
	OwnerID  uint            `json:"owner_id"`
	At       time.Time       `json:"at"`
	Payload  json.RawMessage `json:"payload"`
}

// Publisher fans change events out to redis and to in-process subscribers, and
// records each event durably so late subscribers can catch up.
type Publisher struct {
	db  *gorm.DB
	rdb *redis.Client

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewPublisher(db *gorm.DB, rdb *redis.Client) *Publisher {
	return &Publisher{
		db:   db,
		rdb:  rdb,
		subs: make(map[chan Event]struct{}),
	}
}

// NewRedisClient builds the feed's redis client, or nil when no address is
// configured.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Publish records and broadcasts one mutation. The durable write shares the
// caller's transaction handle when one is passed, so the event row commits or
// rolls back with the mutation itself.
func (p *Publisher) Publish(ctx context.Context, tx *gorm.DB, table, action string, ownerID, recordID uint, record interface{}) error {
	payload := json.RawMessage("null")
	if record != nil {
		b, err := json.Marshal(record)
		if err != nil {
			return err
		}
		payload = b
	}

	ev := Event{
		ID:       uuid.NewString(),
		Table:    table,
		Action:   action,
		RecordID: recordID,
		OwnerID:  ownerID,
		At:       time.Now().UTC(),
		Payload:  payload,
	}

	if tx == nil {
		tx = p.db
	}
	row := models.ChangeEvent{
		EventID:  ev.ID,
		OwnerID:  ev.OwnerID,
		Table:    ev.Table,
		Action:   ev.Action,
		RecordID: ev.RecordID,
		Payload:  string(payload),
		At:       ev.At,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	p.broadcast(ev)

	if p.rdb != nil {
		raw, _ := json.Marshal(ev)
		if err := p.rdb.Publish(ctx, channelPrefix+table, raw).Err(); err != nil {
			// Broadcast failure must not fail the business write; the durable
			// row already carries the event for catch-up reads.
			logger.Log.Warn().Err(err).Str("table", table).Msg("redis publish failed")
		}
	}

	return nil
}

// Subscribe registers an in-process listener. The returned cancel func must be
// called when the session goes away. Slow listeners drop events rather than
// block publishers; mirrors recover via catch-up reads.
func (p *Publisher) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

func (p *Publisher) broadcast(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs {
		select {
		case ch <- ev:
		default:
			logger.Log.Warn().Str("table", ev.Table).Msg("feed subscriber lagging, event dropped")
		}
	}
}

// Run consumes the redis channels and re-broadcasts remote events to local
// subscribers, so sessions on this instance see writes made by other
// instances. Blocks until ctx is done. No-op without redis.
func (p *Publisher) Run(ctx context.Context) {
	if p.rdb == nil {
		return
	}

	sub := p.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Log.Warn().Err(err).Msg("malformed feed event from redis")
				continue
			}
			p.broadcast(ev)
		}
	}
}

// RecentEvents returns an owner's most recent durable events, newest first,
// for catch-up after a reconnect.
func (p *Publisher) RecentEvents(ctx context.Context, ownerID uint, limit int) ([]models.ChangeEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.ChangeEvent
	err := p.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
