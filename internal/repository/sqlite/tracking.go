// 文件路径: internal/repository/sqlite/tracking.go
// 模块说明: 物流单号仓储。
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type trackingRepo struct {
	db *sql.DB
}

func (r *trackingRepo) ListByOrder(ctx context.Context, orderID int64) ([]repository.Tracking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, carrier, tracking_number, url, created_at FROM trackings WHERE order_id = ? ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Tracking
	for rows.Next() {
		var t repository.Tracking
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Carrier, &t.TrackingNumber, &t.URL, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *trackingRepo) Create(ctx context.Context, tracking *repository.Tracking) (*repository.Tracking, error) {
	if err := insertTracking(ctx, r.db, tracking); err != nil {
		return nil, err
	}
	return tracking, nil
}

func insertTracking(ctx context.Context, db execer, tracking *repository.Tracking) error {
	if tracking.CreatedAt == 0 {
		tracking.CreatedAt = time.Now().Unix()
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO trackings(order_id, carrier, tracking_number, url, created_at) VALUES(?, ?, ?, ?, ?)`,
		tracking.OrderID, tracking.Carrier, tracking.TrackingNumber, tracking.URL, tracking.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		tracking.ID = id
	}
	return nil
}

func (r *trackingRepo) Delete(ctx context.Context, orderID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trackings WHERE id = ? AND order_id = ?`, id, orderID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
