package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type kvRow struct {
	Name      string `gorm:"primaryKey"`
	Value     []byte `gorm:"not null"`
	Revision  int64  `gorm:"not null"`
	UpdatedAt time.Time
}

func (kvRow) TableName() string { return "kv_store" }

// SQLite keeps keys in an embedded single-file database.
type SQLite struct {
	db *gorm.DB
}

// NewSQLite opens (or creates) the database at path and migrates kv_store.
func NewSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&kvRow{}); err != nil {
		return nil, fmt.Errorf("storage: migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Get implements KV.
func (s *SQLite) Get(ctx context.Context, key string) (Record, error) {
	var row kvRow
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("storage: sqlite get %s: %w", key, err)
	}
	return Record{Value: row.Value, Revision: row.Revision, UpdatedAt: row.UpdatedAt}, nil
}

// Put implements KV.
func (s *SQLite) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	var next int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row kvRow
		err := tx.Where("name = ?", key).First(&row).Error
		exists := true
		if errors.Is(err, gorm.ErrRecordNotFound) {
			exists = false
		} else if err != nil {
			return err
		}
		if err := checkRevision(key, row.Revision, exists, expected); err != nil {
			return err
		}
		next = row.Revision + 1
		if !exists {
			return tx.Create(&kvRow{Name: key, Value: value, Revision: next}).Error
		}
		res := tx.Model(&kvRow{}).
			Where("name = ? AND revision = ?", key, row.Revision).
			Updates(map[string]any{"value": value, "revision": next, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s changed during write", ErrRevisionConflict, key)
		}
		return nil
	})
	if errors.Is(err, ErrRevisionConflict) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("storage: sqlite put %s: %w", key, err)
	}
	return next, nil
}

// Delete implements KV.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	res := s.db.WithContext(ctx).Where("name = ?", key).Delete(&kvRow{})
	if res.Error != nil {
		return fmt.Errorf("storage: sqlite delete %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Keys implements KV.
func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&kvRow{}).
		Where("substr(name, 1, ?) = ?", len(prefix), prefix).
		Order("name").
		Pluck("name", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("storage: sqlite keys: %w", err)
	}
	return keys, nil
}

// Close implements KV.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
