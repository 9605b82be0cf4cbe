// 文件路径: internal/repository/sqlite/cart.go
// 模块说明: 购物车仓储，(user_id, product_id) 唯一，写入采用 upsert。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type cartRepo struct {
	db *sql.DB
}

func (r *cartRepo) List(ctx context.Context, userID int64) ([]repository.CartItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, product_id, quantity, created_at, updated_at FROM cart_items WHERE user_id = ? ORDER BY created_at ASC, product_id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []repository.CartItem
	for rows.Next() {
		var item repository.CartItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *cartRepo) Get(ctx context.Context, userID, productID int64) (*repository.CartItem, error) {
	var item repository.CartItem
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, product_id, quantity, created_at, updated_at FROM cart_items WHERE user_id = ? AND product_id = ?`,
		userID, productID).Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepo) Set(ctx context.Context, item repository.CartItem) error {
	if item.UpdatedAt == 0 {
		item.UpdatedAt = time.Now().Unix()
	}
	if item.CreatedAt == 0 {
		item.CreatedAt = item.UpdatedAt
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO cart_items(user_id, product_id, quantity, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?)
        ON CONFLICT(user_id, product_id) DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`,
		item.UserID, item.ProductID, item.Quantity, item.CreatedAt, item.UpdatedAt)
	return mapWriteError(err)
}

func (r *cartRepo) Remove(ctx context.Context, userID, productID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *cartRepo) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}
