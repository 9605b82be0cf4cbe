// 文件路径: internal/bootstrap/database.go
// 模块说明: 打开 SQLite 数据库并设置 WAL、外键与忙等待，可选地执行迁移。
package bootstrap

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/creamcroissant/shopboard/internal/config"
	"github.com/creamcroissant/shopboard/internal/migrations"
)

// OpenDatabase opens the configured database and applies pending migrations when migrate is true.
func OpenDatabase(cfg config.DBConfig, migrate bool) (*sql.DB, error) {
	if cfg.Driver != "" && cfg.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver %q / 不支持的数据库驱动", cfg.Driver)
	}
	db, err := OpenSQLite(cfg.Path)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := migrations.Up(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

// OpenSQLite ensures the parent directory exists, then opens a SQLite connection with sane pragmas.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLite 路径不能为空 / SQLite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite 只允许单写者
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}
