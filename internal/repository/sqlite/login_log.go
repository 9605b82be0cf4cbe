// 文件路径: internal/repository/sqlite/login_log.go
// 模块说明: 登录尝试日志，供审计与排查撞库。
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// loginLogRepo persists login attempts into SQLite for auditing.
type loginLogRepo struct {
	db *sql.DB
}

func (r *loginLogRepo) Create(ctx context.Context, entry *repository.LoginLog) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("login log repository not configured / 登录日志仓储未配置")
	}
	if entry == nil || strings.TrimSpace(entry.Email) == "" {
		return fmt.Errorf("login log email is required / 登录日志邮箱不能为空")
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}
	var userID any
	if entry.UserID != nil && *entry.UserID > 0 {
		userID = *entry.UserID
	}
	const stmt = `INSERT INTO login_logs(user_id, email, ip, user_agent, success, reason, created_at)
                  VALUES(?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, stmt,
		userID,
		entry.Email,
		nullableString(entry.IP),
		nullableString(entry.UserAgent),
		boolToInt(entry.Success),
		nullableString(entry.Reason),
		entry.CreatedAt,
	)
	return err
}
