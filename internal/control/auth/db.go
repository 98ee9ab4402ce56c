package auth

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"bqm/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenDB connects to cfg's database with retry, matching the teacher's
// InitDB backoff loop, then migrates the Operator/RefreshToken tables.
func OpenDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSL)

	const maxRetries = 5
	const retryBaseDelay = 2 * time.Second

	var db *gorm.DB
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			var sqlDB *sql.DB
			sqlDB, err = db.DB()
			if err == nil {
				err = sqlDB.Ping()
			}
		}
		if err == nil {
			log.Printf("control: connected to database %q", cfg.DBName)
			if err := db.AutoMigrate(&Operator{}, &RefreshToken{}); err != nil {
				return nil, fmt.Errorf("auth: automigrate: %w", err)
			}
			return db, nil
		}

		delay := time.Duration(attempt+1) * retryBaseDelay
		log.Printf("control: database connection failed: %v, retrying in %s (%d/%d)", err, delay, attempt+1, maxRetries)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("control: failed to connect to database after %d attempts: %w", maxRetries, err)
}
