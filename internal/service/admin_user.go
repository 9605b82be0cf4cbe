// 文件路径: internal/service/admin_user.go
// 模块说明: 后台用户管理：搜索、封禁、调整角色，以及 CLI 创建账号。
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/security"
	"github.com/creamcroissant/shopboard/internal/support/hash"
)

// AdminUserService 提供管理员专用的用户管理流程。
type AdminUserService interface {
	List(ctx context.Context, input AdminUserListInput) (*AdminUserListResult, error)
	Get(ctx context.Context, id int64) (*repository.User, error)
	SetBanned(ctx context.Context, actorID, id int64, banned bool) (*repository.User, error)
	SetRole(ctx context.Context, actorID, id int64, role string) (*repository.User, error)
	Create(ctx context.Context, input AdminUserCreateInput) (*repository.User, error)
}

// AdminUserListInput 控制列表分页与过滤条件。
type AdminUserListInput struct {
	Query  string
	Role   string
	Banned *bool
	Page
}

// AdminUserListResult 包装分页用户列表。
type AdminUserListResult struct {
	Users []*repository.User `json:"users"`
	Total int64              `json:"total"`
}

// AdminUserCreateInput 用于创建后台或顾客账号。
type AdminUserCreateInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

type adminUserService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	hasher hash.Hasher
	audit  security.Recorder
	now    func() time.Time
}

// NewAdminUserService 组装管理员用户流程所需仓储。
func NewAdminUserService(store repository.Store, hasher hash.Hasher, audit security.Recorder) AdminUserService {
	s := &adminUserService{hasher: hasher, audit: audit, now: time.Now}
	if store != nil {
		s.users = store.Users()
		s.tokens = store.Tokens()
	}
	return s
}

func validRole(role string) bool {
	switch role {
	case repository.RoleCustomer, repository.RoleStaff, repository.RoleAdmin:
		return true
	}
	return false
}

func (s *adminUserService) List(ctx context.Context, input AdminUserListInput) (*AdminUserListResult, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("admin user service not configured / 用户管理服务未配置")
	}
	if input.Role != "" && !validRole(input.Role) {
		return nil, ErrInvalidRole
	}
	limit, offset := input.limitOffset()
	filter := repository.UserSearchFilter{
		Keyword: normalizeEmail(input.Query),
		Role:    input.Role,
		Banned:  input.Banned,
		Limit:   limit,
		Offset:  offset,
	}
	users, err := s.users.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.users.CountFiltered(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &AdminUserListResult{Users: users, Total: total}, nil
}

func (s *adminUserService) Get(ctx context.Context, id int64) (*repository.User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("admin user service not configured / 用户管理服务未配置")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *adminUserService) SetBanned(ctx context.Context, actorID, id int64, banned bool) (*repository.User, error) {
	if actorID == id {
		return nil, ErrSelfModification
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().Unix()
	user.Banned = banned
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if banned && s.tokens != nil {
		if err := s.tokens.RevokeByUser(ctx, user.ID, now); err != nil {
			return nil, err
		}
	}
	s.record(ctx, actorID, map[string]any{"user_id": user.ID, "banned": banned})
	return user, nil
}

func (s *adminUserService) SetRole(ctx context.Context, actorID, id int64, role string) (*repository.User, error) {
	if !validRole(role) {
		return nil, ErrInvalidRole
	}
	if actorID == id {
		return nil, ErrSelfModification
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	user.UpdatedAt = s.now().Unix()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.record(ctx, actorID, map[string]any{"user_id": user.ID, "role": role})
	return user, nil
}

func (s *adminUserService) Create(ctx context.Context, input AdminUserCreateInput) (*repository.User, error) {
	if s == nil || s.users == nil || s.hasher == nil {
		return nil, fmt.Errorf("admin user service not configured / 用户管理服务未配置")
	}
	email := normalizeEmail(input.Email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validPassword(input.Password) {
		return nil, ErrInvalidPassword
	}
	role := input.Role
	if role == "" {
		role = repository.RoleCustomer
	}
	if !validRole(role) {
		return nil, ErrInvalidRole
	}
	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	name := stripTags(input.Name)
	if name == "" {
		name = email
	}
	now := s.now().Unix()
	created, err := s.users.Create(ctx, &repository.User{
		Email:     email,
		Password:  hashed,
		Name:      name,
		Role:      role,
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

func (s *adminUserService) record(ctx context.Context, actorID int64, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, security.Event{
		Kind:     security.EventUserBanned,
		ActorID:  strconv.FormatInt(actorID, 10),
		Metadata: metadata,
	})
}
