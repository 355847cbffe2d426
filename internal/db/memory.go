package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"inventory-tracker/config"
)

// OpenInMemory opens a migrated, private in-memory SQLite database. Each
// distinct name gets its own database, so parallel tests do not share rows.
func OpenInMemory(name string) (*gorm.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(name)
	cfg := &config.DatabaseConfig{LogLevel: "silent"}

	db, err := gorm.Open(
		mustDialector("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)),
		GormConfig(cfg),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// Shared-cache connections lock each other out, so keep a single one.
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func mustDialector(driver, dsn string) gorm.Dialector {
	d, err := Dialector(driver, dsn)
	if err != nil {
		panic(err)
	}
	return d
}
