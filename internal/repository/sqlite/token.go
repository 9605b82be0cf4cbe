// 文件路径: internal/repository/sqlite/token.go
// 模块说明: 刷新令牌 jti 的存储，支持轮换与按用户吊销。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// tokenRepo stores issued refresh token ids.
type tokenRepo struct {
	db *sql.DB
}

func (r *tokenRepo) Create(ctx context.Context, token *repository.RefreshToken) (*repository.RefreshToken, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("token repository not configured / token 仓储未配置")
	}
	if token == nil || token.UserID == 0 || strings.TrimSpace(token.JTI) == "" {
		return nil, fmt.Errorf("user id and jti are required / userID 和 jti 不能为空")
	}
	now := time.Now().Unix()
	if token.CreatedAt == 0 {
		token.CreatedAt = now
	}
	token.UpdatedAt = token.CreatedAt
	const stmt = `INSERT INTO tokens(user_id, jti, expires_at, ip, user_agent, revoked, created_at, updated_at)
                  VALUES(?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, stmt,
		token.UserID,
		token.JTI,
		token.ExpiresAt,
		nullableString(token.IP),
		nullableString(token.UserAgent),
		boolToInt(token.Revoked),
		token.CreatedAt,
		token.UpdatedAt,
	)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		token.ID = id
	}
	return token, nil
}

func (r *tokenRepo) FindByJTI(ctx context.Context, jti string) (*repository.RefreshToken, error) {
	trimmed := strings.TrimSpace(jti)
	if trimmed == "" {
		return nil, repository.ErrNotFound
	}
	const query = `SELECT id, user_id, jti, expires_at, ip, user_agent, revoked, created_at, updated_at
                   FROM tokens WHERE jti = ?`
	var (
		rec repository.RefreshToken
		ip  sql.NullString
		ua  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, trimmed).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.JTI,
		&rec.ExpiresAt,
		&ip,
		&ua,
		&rec.Revoked,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	rec.IP = ip.String
	rec.UserAgent = ua.String
	return &rec, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, jti string, at int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE tokens SET revoked = 1, updated_at = ? WHERE jti = ? AND revoked = 0`, at, jti)
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *tokenRepo) RevokeByUser(ctx context.Context, userID int64, at int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tokens SET revoked = 1, updated_at = ? WHERE user_id = ? AND revoked = 0`, at, userID)
	return err
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, before int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
