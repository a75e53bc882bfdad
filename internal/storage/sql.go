package storage

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps values in the kv_entries table (sqlite or postgres).
type SQLStore struct {
	client *db.Client
	now    func() time.Time
}

func NewSQLStore(client *db.Client) *SQLStore {
	return &SQLStore{client: client, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := s.client.DB().WithContext(ctx).
		Where("store_key = ?", key).
		Take(&entry).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapBackend(err, "sql get")
	}
	return entry.Value, true, nil
}

// Set upserts the value, replacing any previous one.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	err := s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"store_value", "updated_at"}),
		}).
		Create(&entry).
		Error
	return wrapBackend(err, "sql set")
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	err := s.client.DB().WithContext(ctx).
		Where("store_key = ?", key).
		Delete(&models.KVEntry{}).
		Error
	return wrapBackend(err, "sql delete")
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return wrapBackend(s.client.Ping(ctx), "sql ping")
}

func (s *SQLStore) Close() error {
	return s.client.Close()
}
