// 文件路径: internal/migrations/runner.go
// 模块说明: 基于 goose 的内嵌 SQL 迁移，serve、tui 与测试启动时都会执行 Up。
package migrations

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/pressly/goose/v3"
)

const dir = "sqlite"

var setupOnce sync.Once
var setupErr error

func setup() error {
	setupOnce.Do(func() {
		goose.SetBaseFS(SQLite)
		goose.SetLogger(goose.NopLogger())
		setupErr = goose.SetDialect("sqlite3")
	})
	return setupErr
}

// Up migrates the SQLite schema to the latest version.
func Up(db *sql.DB) error {
	if err := setup(); err != nil {
		return fmt.Errorf("migrations setup: %w", err)
	}
	return goose.Up(db, dir)
}

// Down rolls back a single migration.
func Down(db *sql.DB) error {
	if err := setup(); err != nil {
		return fmt.Errorf("migrations setup: %w", err)
	}
	return goose.Down(db, dir)
}

// Status prints migration status.
func Status(db *sql.DB) error {
	if err := setup(); err != nil {
		return fmt.Errorf("migrations setup: %w", err)
	}
	goose.SetLogger(log.New(os.Stdout, "", 0))
	defer goose.SetLogger(goose.NopLogger())
	return goose.Status(db, dir)
}

// Version returns the current schema version.
func Version(db *sql.DB) (int64, error) {
	if err := setup(); err != nil {
		return 0, fmt.Errorf("migrations setup: %w", err)
	}
	return goose.GetDBVersion(db)
}
