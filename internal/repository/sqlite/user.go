// 文件路径: internal/repository/sqlite/user.go
// 模块说明: users 表的 SQLite 实现。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// userRepo 负责 users 表的 SQLite 实现。
type userRepo struct {
	db *sql.DB
}

const userColumns = `id, email, password, name, phone, role, banned, last_login_at, created_at, updated_at`

func (r *userRepo) FindByID(ctx context.Context, id int64) (*repository.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email))
	return scanUser(row)
}

func (r *userRepo) Create(ctx context.Context, user *repository.User) (*repository.User, error) {
	const stmt = `INSERT INTO users(email, password, name, phone, role, banned, last_login_at, created_at, updated_at)
                  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().Unix()
	if user.CreatedAt == 0 {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = repository.RoleCustomer
	}
	res, err := r.db.ExecContext(ctx, stmt,
		user.Email,
		user.Password,
		user.Name,
		user.Phone,
		user.Role,
		boolToInt(user.Banned),
		user.LastLoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		user.ID = id
	}
	return user, nil
}

func (r *userRepo) Update(ctx context.Context, user *repository.User) error {
	const stmt = `UPDATE users SET email = ?, password = ?, name = ?, phone = ?, role = ?, banned = ?, updated_at = ?
                  WHERE id = ?`
	if user.UpdatedAt == 0 {
		user.UpdatedAt = time.Now().Unix()
	}
	res, err := r.db.ExecContext(ctx, stmt,
		user.Email,
		user.Password,
		user.Name,
		user.Phone,
		user.Role,
		boolToInt(user.Banned),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) TouchLogin(ctx context.Context, id int64, at int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at, id)
	return err
}

func (r *userRepo) HasAdmin(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, repository.RoleAdmin).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) Search(ctx context.Context, filter repository.UserSearchFilter) ([]*repository.User, error) {
	where, args := userFilterClause(filter)
	limit, offset := limitOffset(filter.Limit, filter.Offset)
	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*repository.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepo) CountFiltered(ctx context.Context, filter repository.UserSearchFilter) (int64, error) {
	where, args := userFilterClause(filter)
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&count)
	return count, err
}

func userFilterClause(filter repository.UserSearchFilter) (string, []any) {
	var conds []string
	var args []any
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + kw + "%"
		conds = append(conds, "(email LIKE ? OR name LIKE ? OR phone LIKE ?)")
		args = append(args, like, like, like)
	}
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.Banned != nil {
		conds = append(conds, "banned = ?")
		args = append(args, boolToInt(*filter.Banned))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanUser(row scanner) (*repository.User, error) {
	var u repository.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Password,
		&u.Name,
		&u.Phone,
		&u.Role,
		&u.Banned,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
