// 文件路径: internal/service/auth.go
// 模块说明: 登录、令牌刷新（jti 轮换）、登出与访问令牌校验。
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/auth/token"
	"github.com/creamcroissant/shopboard/internal/metrics"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/security"
	"github.com/creamcroissant/shopboard/internal/support/hash"
)

// AuthService coordinates login and session issuance for passport endpoints.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Verify(ctx context.Context, rawToken string) (*Claims, error)
	Refresh(ctx context.Context, input RefreshInput) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	IssueForUser(ctx context.Context, userID int64, meta ClientMeta) (*LoginResult, error)
}

// ClientMeta 记录请求来源，写入登录日志与刷新令牌。
type ClientMeta struct {
	IP        string
	UserAgent string
}

// LoginInput represents the payload required for user login.
type LoginInput struct {
	Email    string
	Password string
	ClientMeta
}

// RefreshInput carries the refresh token presented by the client.
type RefreshInput struct {
	RefreshToken string
	ClientMeta
}

// LoginResult returns issued token information and user snapshot.
type LoginResult struct {
	Token            string           `json:"token"`
	TokenType        string           `json:"token_type"`
	ExpiresAt        time.Time        `json:"expires_at"`
	RefreshToken     string           `json:"refresh_token"`
	RefreshExpiresAt time.Time        `json:"refresh_expires_at"`
	User             *repository.User `json:"user"`
}

// Claims describe authenticated user payload extracted from tokens.
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

// AuthOptions 配置登录限流。
type AuthOptions struct {
	LoginAttempts int
	LoginWindow   time.Duration
}

type authService struct {
	users     repository.UserRepository
	loginLogs repository.LoginLogRepository
	tokens    repository.TokenRepository
	hasher    hash.Hasher
	tokenMgr  *token.Manager
	rate      *security.RateLimiter
	audit     security.Recorder
	opts      AuthOptions
	now       func() time.Time
}

// NewAuthService wires repository + infrastructure helpers.
func NewAuthService(store repository.Store, hasher hash.Hasher, tokenMgr *token.Manager, rate *security.RateLimiter, audit security.Recorder, opts AuthOptions) AuthService {
	if opts.LoginAttempts <= 0 {
		opts.LoginAttempts = 10
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = time.Minute
	}
	s := &authService{
		hasher:   hasher,
		tokenMgr: tokenMgr,
		rate:     rate,
		audit:    audit,
		opts:     opts,
		now:      time.Now,
	}
	if store != nil {
		s.users = store.Users()
		s.loginLogs = store.LoginLogs()
		s.tokens = store.Tokens()
	}
	return s
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if s == nil || s.users == nil || s.tokenMgr == nil || s.hasher == nil {
		return nil, fmt.Errorf("auth service not fully configured / 认证服务未完整配置")
	}
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email and password required / 邮箱和密码不能为空", ErrInvalidInput)
	}

	if s.rate != nil {
		key := "login:" + strings.TrimSpace(input.IP) + ":" + email
		res, err := s.rate.Allow(ctx, key, s.opts.LoginAttempts, s.opts.LoginWindow)
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			s.recordLoginLog(ctx, nil, email, false, "rate_limited", input.ClientMeta)
			s.recordAudit(ctx, security.EventLoginFailed, email, input.ClientMeta, map[string]any{"reason": "rate_limited"})
			metrics.Login("rate_limited")
			return nil, ErrRateLimited
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordLoginLog(ctx, nil, email, false, "not_found", input.ClientMeta)
			s.recordAudit(ctx, security.EventLoginFailed, email, input.ClientMeta, map[string]any{"reason": "not_found"})
			metrics.Login("invalid")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.Password, input.Password); err != nil {
		if errors.Is(err, hash.ErrPasswordMismatch) {
			s.recordLoginLog(ctx, user, email, false, "password_mismatch", input.ClientMeta)
			s.recordAudit(ctx, security.EventLoginFailed, email, input.ClientMeta, map[string]any{"reason": "password"})
			metrics.Login("invalid")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Banned {
		s.recordLoginLog(ctx, user, email, false, "account_disabled", input.ClientMeta)
		s.recordAudit(ctx, security.EventLoginFailed, email, input.ClientMeta, map[string]any{"reason": "banned"})
		metrics.Login("disabled")
		return nil, ErrAccountDisabled
	}

	if s.hasher.NeedsRehash(user.Password) {
		if rehashed, err := s.hasher.Hash(input.Password); err == nil {
			user.Password = rehashed
			user.UpdatedAt = s.now().Unix()
			_ = s.users.Update(ctx, user)
		}
	}

	result, err := s.issueTokens(ctx, user, input.ClientMeta)
	if err != nil {
		return nil, err
	}
	now := s.now().Unix()
	if err := s.users.TouchLogin(ctx, user.ID, now); err == nil {
		user.LastLoginAt = now
	}
	s.recordLoginLog(ctx, user, email, true, "success", input.ClientMeta)
	s.recordAudit(ctx, security.EventLoginSuccess, email, input.ClientMeta, map[string]any{"user_id": user.ID})
	metrics.Login("success")
	return result, nil
}

func (s *authService) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	if s == nil || s.users == nil || s.tokenMgr == nil {
		return nil, fmt.Errorf("auth service not fully configured / 认证服务未完整配置")
	}
	tokenStr := strings.TrimSpace(rawToken)
	if tokenStr == "" {
		return nil, ErrUnauthorized
	}
	parsed, err := s.tokenMgr.Parse(tokenStr, token.TypeAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}
	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if user.Banned {
		return nil, ErrAccountDisabled
	}
	// 角色以数据库为准，降权立即生效。
	return &Claims{UserID: user.ID, Email: user.Email, Role: user.Role, IsAdmin: user.IsBackoffice()}, nil
}

func (s *authService) Refresh(ctx context.Context, input RefreshInput) (*LoginResult, error) {
	if s == nil || s.tokens == nil || s.tokenMgr == nil || s.users == nil {
		return nil, fmt.Errorf("refresh not supported / 不支持刷新令牌")
	}
	trimmed := strings.TrimSpace(input.RefreshToken)
	if trimmed == "" {
		return nil, ErrInvalidRefreshToken
	}
	claims, err := s.tokenMgr.Parse(trimmed, token.TypeRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	record, err := s.tokens.FindByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	now := s.now()
	revoked, err := s.tokens.Revoke(ctx, record.JTI, now.Unix())
	if err != nil {
		return nil, err
	}
	if !revoked {
		// 已吊销的 jti 再次出现视为令牌泄露，吊销该用户全部会话。
		_ = s.tokens.RevokeByUser(ctx, record.UserID, now.Unix())
		s.recordAudit(ctx, security.EventTokenRefreshed, strconv.FormatInt(record.UserID, 10), input.ClientMeta, map[string]any{"reason": "replay"})
		return nil, ErrInvalidRefreshToken
	}
	if record.ExpiresAt <= now.Unix() {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if user.Banned {
		return nil, ErrAccountDisabled
	}
	meta := input.ClientMeta
	if meta.IP == "" {
		meta.IP = record.IP
	}
	if meta.UserAgent == "" {
		meta.UserAgent = record.UserAgent
	}
	result, err := s.issueTokens(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, security.EventTokenRefreshed, user.Email, meta, map[string]any{"user_id": user.ID})
	return result, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if s == nil || s.tokens == nil || s.tokenMgr == nil {
		return nil
	}
	trimmed := strings.TrimSpace(refreshToken)
	if trimmed == "" {
		return nil
	}
	claims, err := s.tokenMgr.Parse(trimmed, token.TypeRefresh)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return nil
		}
		return ErrInvalidRefreshToken
	}
	_, err = s.tokens.Revoke(ctx, claims.ID, s.now().Unix())
	return err
}

func (s *authService) IssueForUser(ctx context.Context, userID int64, meta ClientMeta) (*LoginResult, error) {
	if s == nil || s.users == nil || s.tokenMgr == nil {
		return nil, fmt.Errorf("auth service not fully configured / 认证服务未完整配置")
	}
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if user.Banned {
		return nil, ErrAccountDisabled
	}
	return s.issueTokens(ctx, user, meta)
}

func (s *authService) issueTokens(ctx context.Context, user *repository.User, meta ClientMeta) (*LoginResult, error) {
	pair, err := s.tokenMgr.IssuePair(strconv.FormatInt(user.ID, 10), user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	if s.tokens != nil {
		now := s.now().Unix()
		record := &repository.RefreshToken{
			UserID:    user.ID,
			JTI:       pair.RefreshID,
			ExpiresAt: pair.RefreshExpiresAt.Unix(),
			IP:        strings.TrimSpace(meta.IP),
			UserAgent: strings.TrimSpace(meta.UserAgent),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.tokens.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("store refresh token / 刷新令牌写入失败: %w", err)
		}
	}
	return &LoginResult{
		Token:            pair.AccessToken,
		TokenType:        pair.TokenType,
		ExpiresAt:        pair.ExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             user,
	}, nil
}

func (s *authService) recordLoginLog(ctx context.Context, user *repository.User, email string, success bool, reason string, meta ClientMeta) {
	if s == nil || s.loginLogs == nil || email == "" {
		return
	}
	entry := &repository.LoginLog{
		Email:     email,
		IP:        strings.TrimSpace(meta.IP),
		UserAgent: strings.TrimSpace(meta.UserAgent),
		Success:   success,
		Reason:    reason,
		CreatedAt: s.now().Unix(),
	}
	if user != nil && user.ID > 0 {
		entry.UserID = &user.ID
	}
	if err := s.loginLogs.Create(ctx, entry); err != nil {
		s.recordAudit(ctx, "auth.login.log_store_failed", email, meta, map[string]any{"error": err.Error()})
	}
}

func (s *authService) recordAudit(ctx context.Context, kind string, actor string, meta ClientMeta, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, security.Event{
		Kind:      kind,
		ActorID:   actor,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  metadata,
	})
}
