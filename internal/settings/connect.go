package settings

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the settings database. driver selects the backend:
// "sqlite" treats dsn as a file path (or ":memory:"), "mysql" as a full DSN.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch driver {
	case "", "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("settings: open sqlite %s: %w", dsn, err)
		}
		return db, nil
	case "mysql":
		db, err := gorm.Open(mysql.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("settings: open mysql: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("settings: unknown driver %q", driver)
	}
}
