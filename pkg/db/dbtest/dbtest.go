// Package dbtest opens isolated in-memory SQLite databases migrated with the storefront models.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Open returns a fresh database per call so tests never share rows. Foreign keys
// are not enforced, so seeds may reference rows they never created.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
}

// OpenStrict is Open with foreign keys enforced the way the migrated schema does.
func OpenStrict(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()))
}

func open(t testing.TB, dsn string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}
