package db

import (
	"fmt"
	"runtime"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/USA-RedDragon/germ-rpctest/internal/db/models"
	"github.com/glebarez/sqlite"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dialector(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite:
		return sqlite.Open(cfg.Database + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"), nil
	case config.DatabaseDriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s %s",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.ExtraParameters)
		return postgres.Open(dsn), nil
	case config.DatabaseDriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
		if cfg.ExtraParameters != "" {
			dsn += "&" + cfg.ExtraParameters
		}
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

func MakeDB(config *config.Config) (db *gorm.DB, err error) {
	dial, err := dialector(config.History.Database)
	if err != nil {
		return nil, err
	}
	db, err = gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return db, fmt.Errorf("failed to open database: %w", err)
	}
	if config.Tracing.Enabled {
		if err = db.Use(otelgorm.NewPlugin()); err != nil {
			return db, fmt.Errorf("failed to trace database: %w", err)
		}
	}

	err = db.AutoMigrate(
		&models.Run{},
		&models.CaseResult{})
	if err != nil {
		return db, fmt.Errorf("failed to migrate database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return db, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxIdleConns(runtime.GOMAXPROCS(0))
	const connsPerCPU = 10
	sqlDB.SetMaxOpenConns(runtime.GOMAXPROCS(0) * connsPerCPU)
	const maxIdleTime = 10 * time.Minute
	sqlDB.SetConnMaxIdleTime(maxIdleTime)

	return
}
