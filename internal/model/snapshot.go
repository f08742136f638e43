package model

import "time"

// Snapshot is one serialized collection in the MySQL-backed store.
type Snapshot struct {
	Key       string    `gorm:"column:snapshot_key;primaryKey;size:64"`
	Value     []byte    `gorm:"type:longblob;not null"`
	UpdatedAt time.Time
}
