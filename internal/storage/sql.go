package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tuition/internal/model"
)

// SQLStore keeps snapshots in a GORM table, one row per key.
type SQLStore struct {
	db *gorm.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore returns a store backed by db. Call Migrate before use.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the snapshots table.
func (s *SQLStore) Migrate() error {
	if err := s.db.AutoMigrate(&model.Snapshot{}); err != nil {
		return fmt.Errorf("auto-migrate snapshots: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var snap model.Snapshot
	err := s.db.WithContext(ctx).Where("snapshot_key = ?", key).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}
	return snap.Value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	snap := model.Snapshot{Key: key, Value: value}
	if err := upsertSnapshot(s.db.WithContext(ctx), &snap).Error; err != nil {
		return fmt.Errorf("set snapshot %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("snapshot_key = ?", key).Delete(&model.Snapshot{}).Error; err != nil {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}
	return nil
}

// upsertSnapshot inserts snap or overwrites the existing row with the same key.
func upsertSnapshot(tx *gorm.DB, snap *model.Snapshot) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snapshot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(snap)
}
