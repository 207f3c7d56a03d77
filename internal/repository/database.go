package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

// IsPostgresURL reports whether the database URL points at Postgres rather
// than a SQLite file.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// SQLLogger routes gorm's warnings through logrus. Missing rows are an
// expected answer for lookups and lock checks, so they are not logged.
func SQLLogger(logger *logrus.Logger) gormlogger.Interface {
	return gormlogger.New(logger, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Open connects to Postgres when the URL says so, SQLite otherwise.
func Open(databaseURL string) (*gorm.DB, error) {
	sqlLogger := SQLLogger(logrus.StandardLogger())
	if IsPostgresURL(databaseURL) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{Logger: sqlLogger})
	}

	db, err := gorm.Open(sqlite.Open(databaseURL), &gorm.Config{
		Logger:                                   sqlLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One writer at a time; this also keeps ":memory:" databases on a single connection.
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logrus.Infof("Warning: Failed to enable foreign keys: %v", err)
	}
	return db, nil
}

// Migrate creates or updates every table of the record store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Employee{},
		&models.Project{},
		&models.Allocation{},
		&models.Absence{},
		&models.TeamEvent{},
		&models.EditLock{},
	)
}

// changePublisher announces successful writes on the feed. A failed publish
// does not undo the write; subscribers catch up on their next refresh.
type changePublisher struct {
	feed   realtime.Feed
	table  string
	logger *logrus.Logger
}

func (p changePublisher) publish(ctx context.Context, op realtime.Op, rowID uint, columns map[string]string) {
	if p.feed == nil {
		return
	}
	change := realtime.Change{
		Table:   p.table,
		Op:      op,
		RowID:   rowID,
		Columns: columns,
		At:      time.Now().UTC(),
	}
	if err := p.feed.Publish(ctx, change); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"table": p.table,
			"op":    op,
			"id":    rowID,
		}).Warn("Failed to publish change")
	}
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
