// 文件路径: internal/repository/sqlite/setting.go
// 模块说明: settings 键值表，保存运营开关、通知邮箱与自动生成的 JWT 签名密钥。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type settingRepo struct {
	db *sql.DB
}

const settingColumns = `key, value, category, updated_at`

func (r *settingRepo) Get(ctx context.Context, key string) (*repository.Setting, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+settingColumns+` FROM settings WHERE key = ?`, key)
	s, err := scanSetting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return s, err
}

func (r *settingRepo) Upsert(ctx context.Context, setting *repository.Setting) error {
	const stmt = `INSERT INTO settings(key, value, category, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, category = excluded.category, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, stmt, setting.Key, setting.Value, setting.Category, setting.UpdatedAt)
	return err
}

// CreateIfAbsent 仅在键不存在或值为空白时写入，并发启动时只有一个写入者生效。
func (r *settingRepo) CreateIfAbsent(ctx context.Context, setting *repository.Setting) (bool, error) {
	const stmt = `INSERT INTO settings(key, value, category, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, category = excluded.category, updated_at = excluded.updated_at
		WHERE TRIM(settings.value) = ''`
	res, err := r.db.ExecContext(ctx, stmt, setting.Key, strings.TrimSpace(setting.Value), setting.Category, setting.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *settingRepo) List(ctx context.Context, category string) ([]repository.Setting, error) {
	query := `SELECT ` + settingColumns + ` FROM settings`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY key`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []repository.Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func scanSetting(row scanner) (*repository.Setting, error) {
	var s repository.Setting
	if err := row.Scan(&s.Key, &s.Value, &s.Category, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
