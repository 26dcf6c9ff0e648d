// Package database opens the gorm connection behind the persistent event ledger.
package database

import (
	"strings"
	"time"

	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Driver string

const (
	DriverSqlite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"

	DefaultDSN    = "events.db"
	slowThreshold = 500 * time.Millisecond
)

type DatabaseConfigJson struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type DatabaseConfig struct {
	Driver Driver
	DSN    string
}

func (dcj DatabaseConfigJson) ConvertToDomain() DatabaseConfig {
	driver := Driver(strings.ToLower(dcj.Driver))
	if driver == "" {
		driver = DriverSqlite
	}
	dsn := dcj.DSN
	if dsn == "" && driver == DriverSqlite {
		dsn = DefaultDSN
	}
	return DatabaseConfig{Driver: driver, DSN: dsn}
}

func dialector(cfg DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSqlite:
		return sqlite.Open(cfg.DSN), nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("postgres needs a dsn")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Connect opens the database and routes gorm's warnings through l.
func Connect(cfg DatabaseConfig, l *logger.Logger) (*gorm.DB, error) {
	l = logger.OrDefault(l).WithComponent("database")

	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	l.Infof("Establishing connection to %s database", cfg.Driver)

	db, err := gorm.Open(d, &gorm.Config{
		Logger: gormlogger.New(printer{l}, gormlogger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Driver)
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type printer struct {
	l *logger.Logger
}

func (p printer) Printf(format string, v ...any) {
	p.l.Warnf(format, v...)
}
