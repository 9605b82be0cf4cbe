// 文件路径: internal/api/requestctx/user.go
// 模块说明: 在请求 context 中传递登录用户与语言信息。
package requestctx

import "context"

// UserClaims stores auth info derived from the user or admin guard.
type UserClaims struct {
	ID    int64
	Email string
	Role  string
}

// Authenticated reports whether the claims belong to a logged-in user.
func (c UserClaims) Authenticated() bool {
	return c.ID > 0
}

type contextKey string

const (
	userContextKey  contextKey = "shopboard-user"
	adminContextKey contextKey = "shopboard-admin"
)

// I18nKey 用于在 context 中存储语言标识的 key 类型。
type I18nKey struct{}

// WithLanguage 将语言标识附加到 context 中供下游使用。
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, I18nKey{}, lang)
}

// GetLanguage 从 context 中获取语言标识，若未设置则返回默认值 "en-US"。
func GetLanguage(ctx context.Context) string {
	if ctx == nil {
		return "en-US"
	}
	if lang, ok := ctx.Value(I18nKey{}).(string); ok {
		return lang
	}
	return "en-US"
}

// WithUserClaims attaches user data to the context for downstream handlers.
func WithUserClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// UserFromContext fetches user claims, returning zero value if missing.
func UserFromContext(ctx context.Context) UserClaims {
	if ctx == nil {
		return UserClaims{}
	}
	claims, _ := ctx.Value(userContextKey).(UserClaims)
	return claims
}

// WithAdminClaims attaches staff/admin data to context.
func WithAdminClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, adminContextKey, claims)
}

// AdminFromContext fetches admin claims or zero value.
func AdminFromContext(ctx context.Context) UserClaims {
	if ctx == nil {
		return UserClaims{}
	}
	claims, _ := ctx.Value(adminContextKey).(UserClaims)
	return claims
}

// Actor 由访问日志中间件在请求入口放入 context，鉴权守卫通过后写入身份。
// 守卫派生的子 context 对上游不可见，因此用可写的指针回传。
type Actor struct {
	UserID int64
	Role   string
}

type actorKey struct{}

// WithActor 返回携带空 Actor 的 context。
func WithActor(ctx context.Context) (context.Context, *Actor) {
	actor := &Actor{}
	return context.WithValue(ctx, actorKey{}, actor), actor
}

// RecordActor 在存在 Actor 时写入已认证身份。
func RecordActor(ctx context.Context, claims UserClaims) {
	if ctx == nil {
		return
	}
	if actor, ok := ctx.Value(actorKey{}).(*Actor); ok && actor != nil {
		actor.UserID = claims.ID
		actor.Role = claims.Role
	}
}
