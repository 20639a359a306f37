package models

import "time"

// ChangeEvent is the durable record behind the change feed: every mutation of a
// fed table is written here before being broadcast, so late subscribers can
// catch up and the feed doubles as an audit trail.
type ChangeEvent struct {
	ID       uint   `gorm:"primaryKey"`
	EventID  string `gorm:"size:36;uniqueIndex;not null"`
	OwnerID  uint   `gorm:"index;not null"`
	Table    string `gorm:"size:30;column:table_name;index;not null"`
	Action   string `gorm:"size:10;not null"` // insert | update | delete
	RecordID uint   `gorm:"index;not null"`
	Payload  string `gorm:"type:jsonb;not null;default:'null'"`
	At       time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
