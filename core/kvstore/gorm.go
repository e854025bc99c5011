package kvstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "kv_entries"

// Entry is one row of the key/value table.
type Entry struct {
	Key       string    `gorm:"column:key;primaryKey;size:191"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// GormStore persists values in a database table.
type GormStore struct {
	db    *gorm.DB
	table string
	now   func() time.Time
}

// NewGormStore returns a store over table. It does not touch the schema;
// call Migrate to create the table.
func NewGormStore(db *gorm.DB, table string) *GormStore {
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	return &GormStore{db: db, table: table, now: time.Now}
}

// Table returns the backing table name.
func (s *GormStore) Table() string { return s.table }

// Migrate creates or updates the backing table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Table(s.table).AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.table, err)
	}
	return nil
}

func keyColumn() clause.Column { return clause.Column{Name: "key"} }

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var rows []Entry
	err := s.db.WithContext(ctx).
		Table(s.table).
		Where(clause.Eq{Column: keyColumn(), Value: key}).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: s.now()}
	err := s.db.WithContext(ctx).
		Table(s.table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{keyColumn()},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Remove(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Table(s.table).
		Where(clause.Eq{Column: keyColumn(), Value: key}).
		Delete(&Entry{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Table(s.table).
		Where(clause.Like{Column: keyColumn(), Value: prefix + "%"}).
		Order(clause.OrderByColumn{Column: keyColumn()}).
		Pluck("key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list keys with prefix %q: %w", prefix, err)
	}
	// LIKE treats "_" and "%" as wildcards.
	out := keys[:0]
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out, nil
}
