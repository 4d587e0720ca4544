// Package localstore is the durable local storage shared by every store in
// the client: cart lines, the cross-tab sync slot, the listing cache and the
// persisted provider credential all live in one small sqlite file. It is the
// source of truth on startup and a best-effort mirror afterwards; concurrent
// writers follow last-write-wins, no merge.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Well-known keys. Callers must not invent ad hoc keys outside this set plus
// the listing-cache prefix.
const (
	KeyCart       = "cart"
	KeySync       = "sribalafashion_data_sync"
	KeyCredential = "session"

	listingCachePrefix = "listing_cache:"
)

// ListingCacheKey namespaces the per-category listing cache entries.
func ListingCacheKey(category string) string {
	if category == "" {
		return listingCachePrefix + "all"
	}
	return listingCachePrefix + category
}

// Entry is one persisted key/value pair.
type Entry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "entries" }

// Store wraps the sqlite-backed key/value table.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the store at path. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("localstore: empty path")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("localstore: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("localstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the value stored under key. The second return reports presence.
func (s *Store) Get(key string) (string, bool) {
	var e Entry
	err := s.db.First(&e, "key = ?", key).Error
	if err != nil {
		return "", false
	}
	return e.Value, true
}

// Set writes value under key, overwriting any previous value.
func (s *Store) Set(key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	res := s.db.Delete(&Entry{}, "key = ?", key)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return res.Error
	}
	return nil
}

// GetJSON unmarshals the value under key into v. Returns false when the key
// is absent or holds a payload that does not parse; a corrupt entry must
// never propagate as a fault.
func (s *Store) GetJSON(key string, v any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false
	}
	return true
}

// SetJSON marshals v and stores it under key.
func (s *Store) SetJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: marshal %s: %w", key, err)
	}
	return s.Set(key, string(b))
}

// UpdatedAt reports when key was last written, zero time when absent.
func (s *Store) UpdatedAt(key string) time.Time {
	var e Entry
	if err := s.db.First(&e, "key = ?", key).Error; err != nil {
		return time.Time{}
	}
	return e.UpdatedAt
}
