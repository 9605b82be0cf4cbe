// 文件路径: internal/service/register.go
// 模块说明: 顾客注册：邮箱与密码校验、按 IP 限流、可通过 stop_register 设置暂停注册。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/security"
	"github.com/creamcroissant/shopboard/internal/support/hash"
)

// RegistrationInput 表示用户注册所需的请求数据。
type RegistrationInput struct {
	Email    string
	Password string
	Name     string
	ClientMeta
}

// RegistrationService 负责用户注册的校验与持久化。
type RegistrationService interface {
	Register(ctx context.Context, input RegistrationInput) (*repository.User, error)
}

type registrationService struct {
	users    repository.UserRepository
	settings repository.SettingRepository
	hasher   hash.Hasher
	rate     *security.RateLimiter
	now      func() time.Time
}

const (
	registerIPLimit  = 5
	registerIPWindow = time.Hour
	// SettingStopRegister 为 "1" 时关闭注册。
	SettingStopRegister = "stop_register"
)

// NewRegistrationService 组装仓储驱动的注册流程。
func NewRegistrationService(store repository.Store, hasher hash.Hasher, rate *security.RateLimiter) RegistrationService {
	s := &registrationService{hasher: hasher, rate: rate, now: time.Now}
	if store != nil {
		s.users = store.Users()
		s.settings = store.Settings()
	}
	return s
}

func (s *registrationService) Register(ctx context.Context, input RegistrationInput) (*repository.User, error) {
	if s == nil || s.users == nil || s.hasher == nil {
		return nil, fmt.Errorf("registration service not fully configured / 注册服务未完整配置")
	}
	email := normalizeEmail(input.Email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validPassword(input.Password) {
		return nil, ErrInvalidPassword
	}
	if s.registrationClosed(ctx) {
		return nil, ErrRegistrationClosed
	}
	if s.rate != nil && strings.TrimSpace(input.IP) != "" {
		res, err := s.rate.Allow(ctx, "register:"+strings.TrimSpace(input.IP), registerIPLimit, registerIPWindow)
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			return nil, ErrRateLimited
		}
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}
	name := stripTags(input.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	now := s.now().Unix()
	created, err := s.users.Create(ctx, &repository.User{
		Email:     email,
		Password:  hashed,
		Name:      name,
		Role:      repository.RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return created, nil
}

func (s *registrationService) registrationClosed(ctx context.Context) bool {
	if s.settings == nil {
		return false
	}
	setting, err := s.settings.Get(ctx, SettingStopRegister)
	if err != nil || setting == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(setting.Value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
