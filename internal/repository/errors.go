// 文件路径: internal/repository/errors.go
// 模块说明: 仓储层通用错误，服务层通过 errors.Is 判断并转换为业务错误。
package repository

import "errors"

var (
	// ErrNotFound 表示查询未返回数据。
	ErrNotFound = errors.New("not found / 未找到数据")
	// ErrConflict 表示唯一约束冲突，或记录已被并发修改。
	ErrConflict = errors.New("conflict / 数据冲突")
	// ErrInsufficientStock 表示扣减库存时库存不足。
	ErrInsufficientStock = errors.New("insufficient stock / 库存不足")
	// ErrInUse 表示记录仍被引用，不能删除。
	ErrInUse = errors.New("record in use / 数据仍被引用")
	// ErrDuplicateTracking 表示发货时写入的物流单号已存在。
	ErrDuplicateTracking = errors.New("tracking number already recorded / 物流单号已存在")
)
