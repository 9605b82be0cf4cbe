// 文件路径: internal/repository/sqlite/address.go
// 模块说明: 收货地址仓储，默认地址的切换在事务内完成。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type addressRepo struct {
	db *sql.DB
}

const addressColumns = `id, user_id, full_name, phone, line1, line2, city, state, postal_code, country, is_default, created_at, updated_at`

func (r *addressRepo) ListByUser(ctx context.Context, userID int64) ([]*repository.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = ? ORDER BY is_default DESC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*repository.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *addressRepo) FindByID(ctx context.Context, userID, id int64) (*repository.Address, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = ? AND user_id = ?`, id, userID)
	return scanAddress(row)
}

func (r *addressRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

func (r *addressRepo) Save(ctx context.Context, address *repository.Address) error {
	now := time.Now().Unix()
	if address.UpdatedAt == 0 {
		address.UpdatedAt = now
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if address.IsDefault {
			if _, err := tx.ExecContext(ctx,
				`UPDATE addresses SET is_default = 0, updated_at = ? WHERE user_id = ? AND id != ? AND is_default = 1`,
				address.UpdatedAt, address.UserID, address.ID); err != nil {
				return err
			}
		}
		if address.ID == 0 {
			if address.CreatedAt == 0 {
				address.CreatedAt = address.UpdatedAt
			}
			res, err := tx.ExecContext(ctx, `INSERT INTO addresses(user_id, full_name, phone, line1, line2, city, state, postal_code, country, is_default, created_at, updated_at)
                VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				address.UserID,
				address.FullName,
				address.Phone,
				address.Line1,
				address.Line2,
				address.City,
				address.State,
				address.PostalCode,
				address.Country,
				boolToInt(address.IsDefault),
				address.CreatedAt,
				address.UpdatedAt,
			)
			if err != nil {
				return mapWriteError(err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			address.ID = id
			return nil
		}
		res, err := tx.ExecContext(ctx, `UPDATE addresses SET full_name = ?, phone = ?, line1 = ?, line2 = ?, city = ?, state = ?,
                postal_code = ?, country = ?, is_default = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			address.FullName,
			address.Phone,
			address.Line1,
			address.Line2,
			address.City,
			address.State,
			address.PostalCode,
			address.Country,
			boolToInt(address.IsDefault),
			address.UpdatedAt,
			address.ID,
			address.UserID,
		)
		if err != nil {
			return mapWriteError(err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

// Delete 删除地址；被删除的是默认地址时把最早的剩余地址设为默认。
func (r *addressRepo) Delete(ctx context.Context, userID, id int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var wasDefault bool
		err := tx.QueryRowContext(ctx, `SELECT is_default FROM addresses WHERE id = ? AND user_id = ?`, id, userID).Scan(&wasDefault)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM addresses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return err
		}
		if !wasDefault {
			return nil
		}
		_, err = tx.ExecContext(ctx, `UPDATE addresses SET is_default = 1, updated_at = ?
            WHERE id = (SELECT id FROM addresses WHERE user_id = ? ORDER BY id ASC LIMIT 1)`, time.Now().Unix(), userID)
		return err
	})
}

func scanAddress(row scanner) (*repository.Address, error) {
	var a repository.Address
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.FullName,
		&a.Phone,
		&a.Line1,
		&a.Line2,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Country,
		&a.IsDefault,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
