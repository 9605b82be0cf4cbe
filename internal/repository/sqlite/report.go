// 文件路径: internal/repository/sqlite/report.go
// 模块说明: 看板统计查询。
package sqlite

import (
	"context"
	"database/sql"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type reportRepo struct {
	db *sql.DB
}

func (r *reportRepo) Revenue(ctx context.Context, statuses []repository.OrderStatus) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	marks, args := statusArgs(statuses)
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(paid_amount), 0) FROM orders WHERE status IN (`+marks+`)`, args...).Scan(&total)
	return total, err
}

func (r *reportRepo) OrderCounts(ctx context.Context) ([]repository.StatusCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[repository.OrderStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[repository.OrderStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]repository.StatusCount, 0, len(repository.AllOrderStatuses))
	for _, s := range repository.AllOrderStatuses {
		result = append(result, repository.StatusCount{Status: s, Count: counts[s]})
	}
	return result, nil
}

func (r *reportRepo) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, repository.RoleCustomer).Scan(&n)
	return n, err
}

func (r *reportRepo) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (r *reportRepo) TopProducts(ctx context.Context, statuses []repository.OrderStatus, limit int) ([]repository.TopProduct, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	limit, _ = limitOffset(limit, 0)
	marks, args := statusArgs(statuses)
	args = append(args, limit)
	rows, err := r.db.QueryContext(ctx, `SELECT oi.product_id, MAX(oi.product_name), SUM(oi.quantity), SUM(oi.line_total)
        FROM order_items oi JOIN orders o ON o.id = oi.order_id
        WHERE o.status IN (`+marks+`)
        GROUP BY oi.product_id
        ORDER BY SUM(oi.quantity) DESC, oi.product_id ASC
        LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.TopProduct
	for rows.Next() {
		var tp repository.TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.Name, &tp.Units, &tp.RevenueCents); err != nil {
			return nil, err
		}
		list = append(list, tp)
	}
	return list, rows.Err()
}

// DailySales 按 UTC 自然日汇总 since 之后的订单。
func (r *reportRepo) DailySales(ctx context.Context, statuses []repository.OrderStatus, since int64) ([]repository.DailySales, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	marks, args := statusArgs(statuses)
	args = append(args, since)
	rows, err := r.db.QueryContext(ctx, `SELECT strftime('%Y-%m-%d', created_at, 'unixepoch') AS day, COUNT(*), COALESCE(SUM(paid_amount), 0)
        FROM orders
        WHERE status IN (`+marks+`) AND created_at >= ?
        GROUP BY day
        ORDER BY day ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.DailySales
	for rows.Next() {
		var d repository.DailySales
		if err := rows.Scan(&d.Day, &d.Orders, &d.RevenueCents); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
