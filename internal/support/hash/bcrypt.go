// 文件路径: internal/support/hash/bcrypt.go
// 模块说明: 顾客与管理员密码的哈希与校验。
package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher 抽象密码哈希能力，注册、登录与改密流程共用。
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hashed, password string) error
	NeedsRehash(hashed string) bool
}

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

var (
	// ErrPasswordMismatch 表示密码与哈希不匹配。
	ErrPasswordMismatch = errors.New("password mismatch / 密码不匹配")
	// ErrPasswordTooLong 表示密码超过 bcrypt 支持的 72 字节。
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes / 密码长度超过 72 字节")
)

// BcryptHasher 使用 golang.org/x/crypto/bcrypt 实现 Hasher。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher 校验 cost 并返回哈希器，cost 为 0 时使用 bcrypt.DefaultCost。
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d / bcrypt cost 超出范围", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash 生成密码的 bcrypt 哈希。
func (h *BcryptHasher) Hash(password string) (string, error) {
	if h == nil {
		return "", errors.New("bcrypt hasher is required / bcrypt hasher 不能为空")
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password hash failed / 密码哈希失败: %w", err)
	}
	return string(hashed), nil
}

// Compare 校验明文密码与哈希是否匹配。
func (h *BcryptHasher) Compare(hashed, password string) error {
	if h == nil {
		return errors.New("bcrypt hasher is required / bcrypt hasher 不能为空")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("hash comparison failed / 校验哈希失败: %w", err)
	}
}

// NeedsRehash 判断哈希 cost 是否与当前配置不一致。
func (h *BcryptHasher) NeedsRehash(hashed string) bool {
	if h == nil {
		return false
	}
	cost, err := bcrypt.Cost([]byte(hashed))
	if err != nil {
		return true
	}
	return cost != h.cost
}
