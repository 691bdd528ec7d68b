package database

import (
	"embed"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stashbin/stashbin/internal/config"
	"github.com/stashbin/stashbin/internal/logging"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewDatabase opens the configured postgres database, retrying a few times so
// the server survives racing its database at startup.
func NewDatabase(cfg *config.DBConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	lvl, lvlErr := zapcore.ParseLevel(cfg.LogLevel)
	if lvlErr != nil {
		lvl = zapcore.WarnLevel
	}
	logger := NewLogger(time.Second, true, lvl)

	for i := 0; i <= 5; i++ {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DataSource,
			PreferSimpleProtocol: !cfg.PrepareStmt,
		}), &gorm.Config{
			Logger: logger,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		if err == nil {
			break
		}
		logging.DefaultLogger().Sugar().Warnf("failed to open database: %v", err)
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Pool.Enable {
		rawDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		rawDB.SetMaxOpenConns(cfg.Pool.MaxOpenConnections)
		rawDB.SetMaxIdleConns(cfg.Pool.MaxIdleConnections)
		rawDB.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	}

	return db, nil
}

func MigrateDB(db *gorm.DB) error {
	sqlDb, err := db.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDb, "migrations")
}
