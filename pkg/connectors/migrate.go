package connectors

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/teachermoments/moments/migrations"
	"github.com/teachermoments/moments/pkg/commons"
)

// Migrate applies the embedded SQL migrations. On the sqlite development
// fallback plain SQL migrations do not apply; callers should use
// gorm AutoMigrate for that path instead.
func Migrate(db *gorm.DB, logger commons.Logger) error {
	if db.Dialector.Name() != "postgres" {
		return fmt.Errorf("sql migrations require postgres, got %s", db.Dialector.Name())
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for migration: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Infof("migrations applied: version=%d dirty=%v", version, dirty)
	return nil
}
