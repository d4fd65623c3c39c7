package repo

import (
	"errors"
	"fmt"
	"strings"

	"QAChecklist/internal/model"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// DefaultSQLitePath: файл БД сервера, если DSN не задан.
const DefaultSQLitePath = "qa_server.db"

// ErrUnsupportedDSN: DSN не похож ни на postgres, ни на путь SQLite.
var ErrUnsupportedDSN = errors.New("unsupported database dsn")

// isPostgresDSN: URL-форма postgres:// или key=value с host=.
func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// InitDB открывает БД сервера и применяет миграции.
// Postgres-DSN открывается драйвером pgx, всё остальное считается путём к файлу SQLite.
func InitDB(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = DefaultSQLitePath
	}
	if strings.Contains(dsn, "://") && !isPostgresDSN(dsn) && !strings.HasPrefix(dsn, "file:") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}

	var dial gorm.Dialector
	if isPostgresDSN(dsn) {
		dial = postgres.Open(dsn)
	} else {
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}

	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт таблицы серверных моделей.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Submission{}, &model.SheetRow{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
