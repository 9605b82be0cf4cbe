// 文件路径: internal/service/user.go
// 模块说明: 顾客资料读取、修改与改密。
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/security"
	"github.com/creamcroissant/shopboard/internal/support/hash"
)

// ChangePasswordInput 描述修改密码的输入。
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// UpdateProfileInput 描述可修改的资料字段，nil 表示不修改。
type UpdateProfileInput struct {
	Name  *string
	Phone *string
}

// UserService 处理当前登录用户的资料。
type UserService interface {
	Info(ctx context.Context, userID int64) (*repository.User, error)
	UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*repository.User, error)
	ChangePassword(ctx context.Context, userID int64, input ChangePasswordInput) error
}

type userService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	hasher hash.Hasher
	audit  security.Recorder
	now    func() time.Time
}

// NewUserService 组装用户服务依赖。
func NewUserService(store repository.Store, hasher hash.Hasher, audit security.Recorder) UserService {
	s := &userService{hasher: hasher, audit: audit, now: time.Now}
	if store != nil {
		s.users = store.Users()
		s.tokens = store.Tokens()
	}
	return s
}

func (s *userService) Info(ctx context.Context, userID int64) (*repository.User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user service not configured / 用户服务未配置")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*repository.User, error) {
	user, err := s.Info(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := stripTags(*input.Name)
		if name == "" || len(name) > 100 {
			return nil, fmt.Errorf("%w: name / 姓名无效", ErrInvalidInput)
		}
		user.Name = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if len(phone) > 32 {
			return nil, fmt.Errorf("%w: phone / 电话无效", ErrInvalidInput)
		}
		user.Phone = phone
	}
	user.UpdatedAt = s.now().Unix()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int64, input ChangePasswordInput) error {
	if s == nil || s.hasher == nil {
		return fmt.Errorf("user service not configured / 用户服务未配置")
	}
	user, err := s.Info(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.Password, input.OldPassword); err != nil {
		if errors.Is(err, hash.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}
	if !validPassword(input.NewPassword) {
		return ErrInvalidPassword
	}
	hashed, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return ErrInvalidPassword
		}
		return err
	}
	now := s.now().Unix()
	user.Password = hashed
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	// 改密后其它设备上的刷新令牌全部失效。
	if s.tokens != nil {
		if err := s.tokens.RevokeByUser(ctx, user.ID, now); err != nil {
			return err
		}
	}
	if s.audit != nil {
		s.audit.Record(ctx, security.Event{
			Kind:    security.EventPasswordChange,
			ActorID: strconv.FormatInt(user.ID, 10),
		})
	}
	return nil
}
