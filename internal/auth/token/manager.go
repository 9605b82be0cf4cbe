// 文件路径: internal/auth/token/manager.go
// 模块说明: 签发与校验访问令牌、刷新令牌（JWT），刷新令牌携带 jti 以便轮换与吊销。
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 令牌类型。
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Manager 负责签发和校验 JWT。
type Manager struct {
	method     jwt.SigningMethod
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
	now        func() time.Time
}

// Options 配置 Token 管理器。
type Options struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
	SigningAlg string
	Now        func() time.Time
}

// Claims 包含 JWT 标准声明及商城自定义字段。
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
}

// IssueInput 定义签发令牌时的参数。
type IssueInput struct {
	Subject   string
	Email     string
	Role      string
	TokenType string
}

// Pair 是一次登录或刷新得到的令牌组合。
type Pair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	RefreshID        string    `json:"-"`
}

var (
	// ErrInvalidToken 表示解析或校验失败。
	ErrInvalidToken = errors.New("invalid token / 无效的 token")
	// ErrExpiredToken 表示令牌超出允许的过期宽限。
	ErrExpiredToken = errors.New("token expired / token 已过期")
	// ErrWrongTokenType 表示把刷新令牌当访问令牌使用，或反之。
	ErrWrongTokenType = errors.New("unexpected token type / token 类型不符")
)

// NewManager 组装 JWT 管理器；未指定 SigningAlg 时默认使用 HS256。
func NewManager(opts Options) (*Manager, error) {
	if len(opts.SigningKey) == 0 {
		return nil, fmt.Errorf("signing key is required / 签名密钥不能为空")
	}
	method := jwt.GetSigningMethod(strings.ToUpper(strings.TrimSpace(opts.SigningAlg)))
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing alg %s is not HMAC / 仅支持 HMAC 签名", method.Alg())
	}
	accessTTL := opts.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := opts.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	leeway := opts.Leeway
	if leeway < 0 {
		leeway = 0
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		method:     method,
		secret:     append([]byte(nil), opts.SigningKey...),
		issuer:     strings.TrimSpace(opts.Issuer),
		audience:   strings.TrimSpace(opts.Audience),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		leeway:     leeway,
		now:        now,
	}, nil
}

// Issue 签发单个令牌，返回签名字符串与声明。
func (m *Manager) Issue(input IssueInput) (string, *Claims, error) {
	if m == nil {
		return "", nil, fmt.Errorf("token manager not initialized / token 管理器未初始化")
	}
	if strings.TrimSpace(input.Subject) == "" {
		return "", nil, fmt.Errorf("token subject is required / token subject 不能为空")
	}
	tokenType := input.TokenType
	if tokenType == "" {
		tokenType = TypeAccess
	}
	ttl := m.accessTTL
	if tokenType == TypeRefresh {
		ttl = m.refreshTTL
	}

	now := m.now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   input.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
		Email:     input.Email,
		Role:      input.Role,
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// IssuePair 同时签发访问令牌与刷新令牌。
func (m *Manager) IssuePair(subject, email, role string) (*Pair, error) {
	access, accessClaims, err := m.Issue(IssueInput{Subject: subject, Email: email, Role: role, TokenType: TypeAccess})
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := m.Issue(IssueInput{Subject: subject, Email: email, Role: role, TokenType: TypeRefresh})
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresAt:        accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
		RefreshID:        refreshClaims.ID,
	}, nil
}

// Parse 校验 JWT 字符串并返回声明；expectedType 为空时不限制类型。
func (m *Manager) Parse(tokenString, expectedType string) (*Claims, error) {
	if m == nil {
		return nil, fmt.Errorf("token manager not initialized / token 管理器未初始化")
	}
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
	)
	parsed, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, ErrInvalidToken
	}
	if m.audience != "" && !containsAudience(claims.Audience, m.audience) {
		return nil, ErrInvalidToken
	}
	if expectedType != "" && claims.TokenType != expectedType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// RefreshTTL 返回刷新令牌有效期。
func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

func containsAudience(list jwt.ClaimStrings, want string) bool {
	for _, aud := range list {
		if aud == want {
			return true
		}
	}
	return false
}
