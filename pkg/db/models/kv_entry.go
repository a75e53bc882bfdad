package models

import "time"

// KVEntry is one durable key/value pair; the cart snapshot lives under a single key.
type KVEntry struct {
	Key       string    `gorm:"column:store_key;type:varchar(255);primaryKey"`
	Value     string    `gorm:"column:store_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
