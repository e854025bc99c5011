package checks

import (
	"context"
	"testing"

	"module-loader/core/database"
	"module-loader/core/kvstore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func columns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
}

func TestCheckHistorySchema_NilDB(t *testing.T) {
	report, err := CheckHistorySchema(nil, "kv_entries")
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckHistorySchema_MySQL(t *testing.T) {
	t.Run("Matched", func(t *testing.T) {
		db, mock := setupMockDB(t)
		rows := columns().
			AddRow("key", "varchar(191)", "NO", "PRI", nil, "").
			AddRow("value", "text", "YES", "", nil, "").
			AddRow("updated_at", "datetime(3)", "YES", "", nil, "")
		mock.ExpectQuery("SHOW COLUMNS FROM `kv_entries`").WillReturnRows(rows)

		report, err := CheckHistorySchema(db, "")
		require.NoError(t, err)
		assert.True(t, report.Matched)
		assert.Equal(t, "ok", report.Status)
		assert.Equal(t, "kv_entries", report.Table)
	})

	t.Run("Missing column and type mismatch", func(t *testing.T) {
		db, mock := setupMockDB(t)
		rows := columns().
			AddRow("key", "varchar(191)", "NO", "", nil, "").
			AddRow("value", "varchar(255)", "YES", "", nil, "")
		mock.ExpectQuery("SHOW COLUMNS FROM `loader_kv`").WillReturnRows(rows)

		report, err := CheckHistorySchema(db, "loader_kv")
		require.NoError(t, err)
		assert.False(t, report.Matched)
		assert.Equal(t, "error", report.Status)
		assert.Equal(t, []string{"updated_at"}, report.MissingColumns)
		assert.Contains(t, report.TypeMismatches, "key: expected primary key")
		assert.Contains(t, report.TypeMismatches, "value: expected text, got varchar(255)")
	})

	t.Run("Inspection error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SHOW COLUMNS").WillReturnError(assert.AnError)

		report, err := CheckHistorySchema(db, "kv_entries")
		require.NoError(t, err)
		assert.False(t, report.Matched)
		assert.Len(t, report.Errors, 1)
	})
}

func TestCheckHistorySchema_SQLite(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	t.Run("Missing table", func(t *testing.T) {
		report, err := CheckHistorySchema(db, "kv_entries")
		require.NoError(t, err)
		assert.False(t, report.Matched)
		assert.NotEmpty(t, report.Errors)
	})

	t.Run("Migrated table", func(t *testing.T) {
		require.NoError(t, kvstore.NewGormStore(db, "kv_entries").Migrate(context.Background()))
		report, err := CheckHistorySchema(db, "kv_entries")
		require.NoError(t, err)
		assert.True(t, report.Matched, "%+v", report)
	})
}
