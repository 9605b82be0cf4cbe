// 文件路径: internal/api/middleware/auth.go
// 模块说明: 用户与后台鉴权中间件，后台路由额外经过 casbin 授权。
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/authz"
	"github.com/creamcroissant/shopboard/internal/service"
)

// AdminGuard ensures requests originate from authenticated staff whose role
// is allowed to call the route.
func AdminGuard(auth service.AuthService, authorizer authz.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil || authorizer == nil {
				writeUnauthorized(w, "auth service unavailable")
				return
			}
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				writeUnauthorized(w, "missing authorization header")
				return
			}
			claims, err := auth.Verify(r.Context(), token)
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}
			allowed, err := authorizer.Authorize(claims.Role, r.URL.Path, r.Method)
			if err != nil {
				writeServerError(w, "authorization failed")
				return
			}
			if !allowed {
				writeForbidden(w, "insufficient privileges")
				return
			}
			uc := claimsFrom(claims)
			requestctx.RecordActor(r.Context(), uc)
			ctx := requestctx.WithAdminClaims(r.Context(), uc)
			ctx = requestctx.WithUserClaims(ctx, uc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserGuard ensures requests are authenticated end users.
func UserGuard(auth service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				writeUnauthorized(w, "auth service unavailable")
				return
			}
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				writeUnauthorized(w, "missing authorization header")
				return
			}
			claims, err := auth.Verify(r.Context(), token)
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}
			uc := claimsFrom(claims)
			requestctx.RecordActor(r.Context(), uc)
			next.ServeHTTP(w, r.WithContext(requestctx.WithUserClaims(r.Context(), uc)))
		})
	}
}

func claimsFrom(claims *service.Claims) requestctx.UserClaims {
	return requestctx.UserClaims{ID: claims.UserID, Email: claims.Email, Role: claims.Role}
}

func extractBearer(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return trimmed
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, message)
}

func writeServerError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message)
}
