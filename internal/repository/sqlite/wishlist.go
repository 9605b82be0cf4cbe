// 文件路径: internal/repository/sqlite/wishlist.go
// 模块说明: 收藏夹仓储，重复收藏保持幂等。
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type wishlistRepo struct {
	db *sql.DB
}

func (r *wishlistRepo) List(ctx context.Context, userID int64) ([]repository.WishlistItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, product_id, created_at FROM wishlist_items WHERE user_id = ? ORDER BY created_at DESC, product_id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []repository.WishlistItem
	for rows.Next() {
		var item repository.WishlistItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *wishlistRepo) Add(ctx context.Context, item repository.WishlistItem) error {
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO wishlist_items(user_id, product_id, created_at) VALUES(?, ?, ?)`,
		item.UserID, item.ProductID, item.CreatedAt)
	return mapWriteError(err)
}

func (r *wishlistRepo) Remove(ctx context.Context, userID, productID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *wishlistRepo) Contains(ctx context.Context, userID, productID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wishlist_items WHERE user_id = ? AND product_id = ?`, userID, productID).Scan(&n)
	return n > 0, err
}
