// 文件路径: internal/service/order_status.go
// 模块说明: 订单状态机。Delivered 与 Cancelled 为终态。
package service

import "github.com/creamcroissant/shopboard/internal/repository"

var orderTransitions = map[repository.OrderStatus][]repository.OrderStatus{
	repository.OrderPending: {repository.OrderPaid, repository.OrderCancelled},
	repository.OrderPaid:    {repository.OrderOnRoute, repository.OrderCancelled},
	repository.OrderOnRoute: {repository.OrderDelivered},
}

// CanTransition 判断订单能否从 from 变为 to。
func CanTransition(from, to repository.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal 表示订单不会再变化。
func IsTerminal(status repository.OrderStatus) bool {
	return len(orderTransitions[status]) == 0
}

// NextStatuses 返回后台可选的下一状态。
func NextStatuses(status repository.OrderStatus) []repository.OrderStatus {
	next := orderTransitions[status]
	out := make([]repository.OrderStatus, len(next))
	copy(out, next)
	return out
}
