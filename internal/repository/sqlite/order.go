// 文件路径: internal/repository/sqlite/order.go
// 模块说明: 订单仓储。下单与状态流转都在单个事务内完成，库存扣减带 stock >= qty 守卫。
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type orderRepo struct {
	db *sql.DB
}

const orderColumns = `id, trade_no, user_id, status, subtotal, shipping_fee, total, paid_amount, currency, payment_provider,
       payment_intent_id, shipping_address, note, paid_at, shipped_at, delivered_at, cancelled_at, cancel_reason,
       created_at, updated_at`

func (r *orderRepo) Place(ctx context.Context, order *repository.Order, log repository.OrderStatusLog) (*repository.Order, error) {
	if order == nil || len(order.Items) == 0 {
		return nil, fmt.Errorf("place order: empty order")
	}
	if order.CreatedAt == 0 {
		order.CreatedAt = time.Now().Unix()
	}
	order.UpdatedAt = order.CreatedAt
	if order.Status == "" {
		order.Status = repository.OrderPending
	}
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, item := range order.Items {
			res, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - ?, sold = sold + ?, updated_at = ?
                WHERE id = ? AND stock >= ? AND available = 1`,
				item.Quantity, item.Quantity, order.CreatedAt, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if affected, _ := res.RowsAffected(); affected == 0 {
				return fmt.Errorf("%w: product %d", repository.ErrInsufficientStock, item.ProductID)
			}
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO orders(trade_no, user_id, status, subtotal, shipping_fee, total, paid_amount,
                currency, payment_provider, payment_intent_id, shipping_address, note, created_at, updated_at)
                VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.TradeNo,
			order.UserID,
			string(order.Status),
			order.SubtotalCents,
			order.ShippingCents,
			order.TotalCents,
			order.PaidAmountCents,
			order.Currency,
			order.PaymentProvider,
			order.PaymentIntentID,
			string(address),
			order.Note,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			return mapWriteError(err)
		}
		orderID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		order.ID = orderID

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO order_items(order_id, product_id, product_name, unit_price, quantity, line_total)
                VALUES(?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = orderID
			res, err := stmt.ExecContext(ctx, orderID, item.ProductID, item.ProductName, item.UnitPriceCents, item.Quantity, item.LineTotalCents)
			if err != nil {
				return err
			}
			if id, err := res.LastInsertId(); err == nil {
				item.ID = id
			}
		}

		log.OrderID = orderID
		if log.CreatedAt == 0 {
			log.CreatedAt = order.CreatedAt
		}
		if err := insertStatusLog(ctx, tx, log); err != nil {
			return err
		}

		productIDs := make([]int64, 0, len(order.Items))
		for _, item := range order.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		marks, args := inClause(productIDs)
		_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ? AND product_id IN (`+marks+`)`,
			append([]any{order.UserID}, args...)...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id int64) (*repository.Order, error) {
	return r.findOne(ctx, `id = ?`, id)
}

func (r *orderRepo) FindByTradeNo(ctx context.Context, tradeNo string) (*repository.Order, error) {
	return r.findOne(ctx, `trade_no = ?`, tradeNo)
}

func (r *orderRepo) FindByPaymentIntent(ctx context.Context, intentID string) (*repository.Order, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, `payment_intent_id = ?`, intentID)
}

func (r *orderRepo) findOne(ctx context.Context, cond string, arg any) (*repository.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg))
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*repository.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]*repository.Order, error) {
	where, args := orderFilterClause(filter)
	limit, offset := limitOffset(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*repository.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) Count(ctx context.Context, filter repository.OrderFilter) (int64, error) {
	where, args := orderFilterClause(filter)
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&count)
	return count, err
}

func (r *orderRepo) SetPaymentIntent(ctx context.Context, id int64, provider, intentID string, updatedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_provider = ?, payment_intent_id = ?, updated_at = ? WHERE id = ?`,
		provider, intentID, updatedAt, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *orderRepo) Transition(ctx context.Context, t repository.OrderTransition) error {
	if t.At == 0 {
		t.At = time.Now().Unix()
	}
	set := []string{"status = ?", "updated_at = ?"}
	args := []any{string(t.To), t.At}
	switch t.To {
	case repository.OrderPaid:
		set = append(set, "paid_at = ?", "paid_amount = ?")
		args = append(args, t.At, t.PaidAmountCents)
	case repository.OrderOnRoute:
		set = append(set, "shipped_at = ?")
		args = append(args, t.At)
	case repository.OrderDelivered:
		set = append(set, "delivered_at = ?")
		args = append(args, t.At)
	case repository.OrderCancelled:
		set = append(set, "cancelled_at = ?", "cancel_reason = ?")
		args = append(args, t.At, t.Reason)
	}
	// 退款占有期间只有占有者能完成流转
	claim := "refund_claimed_at = 0"
	if t.RefundClaimed {
		set = append(set, "refund_claimed_at = 0")
		claim = "refund_claimed_at > 0"
	}
	args = append(args, t.OrderID, string(t.From))

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE orders SET `+strings.Join(set, ", ")+` WHERE id = ? AND status = ? AND `+claim, args...)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return orderMissOrConflict(ctx, tx, t.OrderID)
		}

		if t.Restock {
			if _, err := tx.ExecContext(ctx, `UPDATE products SET
                    stock = stock + (SELECT COALESCE(SUM(oi.quantity), 0) FROM order_items oi WHERE oi.order_id = ? AND oi.product_id = products.id),
                    sold = MAX(sold - (SELECT COALESCE(SUM(oi.quantity), 0) FROM order_items oi WHERE oi.order_id = ? AND oi.product_id = products.id), 0),
                    updated_at = ?
                WHERE id IN (SELECT product_id FROM order_items WHERE order_id = ?)`,
				t.OrderID, t.OrderID, t.At, t.OrderID); err != nil {
				return err
			}
		}

		log := t.Log
		log.OrderID = t.OrderID
		log.FromStatus = t.From
		log.ToStatus = t.To
		if log.Reason == "" {
			log.Reason = t.Reason
		}
		if log.CreatedAt == 0 {
			log.CreatedAt = t.At
		}
		if err := insertStatusLog(ctx, tx, log); err != nil {
			return err
		}

		if t.Tracking != nil {
			t.Tracking.OrderID = t.OrderID
			if t.Tracking.CreatedAt == 0 {
				t.Tracking.CreatedAt = t.At
			}
			if err := insertTracking(ctx, tx, t.Tracking); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return fmt.Errorf("%w: %v", repository.ErrDuplicateTracking, err)
				}
				return err
			}
		}
		return nil
	})
}

func (r *orderRepo) ClaimRefund(ctx context.Context, orderID int64, from repository.OrderStatus, at, staleBefore int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET refund_claimed_at = ?, updated_at = ? WHERE id = ? AND status = ? AND refund_claimed_at <= ?`,
		at, at, orderID, string(from), staleBefore)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return orderMissOrConflict(ctx, r.db, orderID)
	}
	return nil
}

func (r *orderRepo) ReleaseRefund(ctx context.Context, orderID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET refund_claimed_at = 0 WHERE id = ?`, orderID)
	return err
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// orderMissOrConflict 区分条件更新未命中的原因：订单不存在或已被改动。
func orderMissOrConflict(ctx context.Context, q rowQuerier, orderID int64) error {
	var exists int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE id = ?`, orderID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *orderRepo) StatusLogs(ctx context.Context, orderID int64) ([]repository.OrderStatusLog, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, order_id, from_status, to_status, actor_type, actor_id, reason, created_at
        FROM order_status_logs WHERE order_id = ? ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []repository.OrderStatusLog
	for rows.Next() {
		var l repository.OrderStatusLog
		var from, to string
		if err := rows.Scan(&l.ID, &l.OrderID, &from, &to, &l.ActorType, &l.ActorID, &l.Reason, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.FromStatus = repository.OrderStatus(from)
		l.ToStatus = repository.OrderStatus(to)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *orderRepo) ListStalePending(ctx context.Context, createdBefore int64, limit int) ([]*repository.Order, error) {
	limit, _ = limitOffset(limit, 0)
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = ? AND created_at < ?
        ORDER BY created_at ASC LIMIT ?`, string(repository.OrderPending), createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*repository.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) attachItems(ctx context.Context, orders []*repository.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*repository.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	marks, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx, `SELECT id, order_id, product_id, product_name, unit_price, quantity, line_total
        FROM order_items WHERE order_id IN (`+marks+`) ORDER BY id ASC`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item repository.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.UnitPriceCents, &item.Quantity, &item.LineTotalCents); err != nil {
			return err
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func insertStatusLog(ctx context.Context, tx *sql.Tx, log repository.OrderStatusLog) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO order_status_logs(order_id, from_status, to_status, actor_type, actor_id, reason, created_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)`,
		log.OrderID,
		string(log.FromStatus),
		string(log.ToStatus),
		log.ActorType,
		log.ActorID,
		log.Reason,
		log.CreatedAt,
	)
	return err
}

func orderFilterClause(filter repository.OrderFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.UserID != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + kw + "%"
		conds = append(conds, "(trade_no LIKE ? OR user_id IN (SELECT id FROM users WHERE email LIKE ?))")
		args = append(args, like, like)
	}
	if filter.From > 0 {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.From)
	}
	if filter.To > 0 {
		conds = append(conds, "created_at < ?")
		args = append(args, filter.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanOrder(row scanner) (*repository.Order, error) {
	var o repository.Order
	var status, address string
	if err := row.Scan(
		&o.ID,
		&o.TradeNo,
		&o.UserID,
		&status,
		&o.SubtotalCents,
		&o.ShippingCents,
		&o.TotalCents,
		&o.PaidAmountCents,
		&o.Currency,
		&o.PaymentProvider,
		&o.PaymentIntentID,
		&address,
		&o.Note,
		&o.PaidAt,
		&o.ShippedAt,
		&o.DeliveredAt,
		&o.CancelledAt,
		&o.CancelReason,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	o.Status = repository.OrderStatus(status)
	if address != "" {
		if err := json.Unmarshal([]byte(address), &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	return &o, nil
}
