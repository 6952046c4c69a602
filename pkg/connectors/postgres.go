package connectors

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
)

// PostgresConnector hands out the shared gorm handle. All stores resolve
// their *gorm.DB through this so that a request-scoped transaction can be
// injected later without touching store code.
type PostgresConnector interface {
	DB(ctx context.Context) *gorm.DB
	Close() error
}

type postgresConnector struct {
	db     *gorm.DB
	logger commons.Logger
}

// NewPostgresConnector opens the Postgres connection. In development with no
// database host configured it falls back to an on-disk sqlite database so
// the app runs without local infrastructure.
func NewPostgresConnector(cfg *config.AppConfig, logger commons.Logger) (PostgresConnector, error) {
	var dialector gorm.Dialector
	if cfg.PostgresConfig.Host == "" && cfg.IsDevelopment() {
		logger.Warn("no postgres host configured, falling back to sqlite (development only)")
		dialector = sqlite.Open("moments.db")
	} else {
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.PostgresConfig.Host,
			cfg.PostgresConfig.Port,
			cfg.PostgresConfig.User,
			cfg.PostgresConfig.Password,
			cfg.PostgresConfig.Database,
			sslMode(cfg),
		)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger.Infof("database connected: %s", dialector.Name())
	return &postgresConnector{db: db, logger: logger}, nil
}

func sslMode(cfg *config.AppConfig) string {
	if cfg.PostgresConfig.SSLMode != "" {
		return cfg.PostgresConfig.SSLMode
	}
	if cfg.IsDevelopment() {
		return "disable"
	}
	return "require"
}

func (c *postgresConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

func (c *postgresConnector) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewPostgresConnectorFromDB wraps an existing gorm handle. Used by tests
// that drive gorm over go-sqlmock.
func NewPostgresConnectorFromDB(db *gorm.DB, logger commons.Logger) PostgresConnector {
	return &postgresConnector{db: db, logger: logger}
}
