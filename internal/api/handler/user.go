// 文件路径: internal/api/handler/user.go
// 模块说明: 用户侧个人资料、修改密码与登出接口。
package handler

import (
	"net/http"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// UserHandler 处理用户侧账户接口。
type UserHandler struct {
	users service.UserService
	auth  service.AuthService
	i18n  *i18n.Manager
}

func NewUserHandler(users service.UserService, auth service.AuthService, i18nMgr *i18n.Manager) *UserHandler {
	return &UserHandler{users: users, auth: auth, i18n: i18nMgr}
}

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *UserHandler) Info(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	user, err := h.users.Info(ctx, claims.ID)
	if err != nil {
		respondServiceError(ctx, w, "user.info", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	var payload updateProfileRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	user, err := h.users.UpdateProfile(ctx, claims.ID, service.UpdateProfileInput{Name: payload.Name, Phone: payload.Phone})
	if err != nil {
		respondServiceError(ctx, w, "user.update", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	var payload changePasswordRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	if err := h.users.ChangePassword(ctx, claims.ID, service.ChangePasswordInput{
		OldPassword: payload.OldPassword,
		NewPassword: payload.NewPassword,
	}); err != nil {
		respondServiceError(ctx, w, "user.change_password", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.password_changed", h.i18n, nil)
}

// Logout 吊销请求体中的刷新令牌；令牌无效时同样返回成功。
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		RespondErrorI18n(ctx, w, http.StatusServiceUnavailable, "error.service_unavailable", h.i18n)
		return
	}
	var payload refreshRequest
	_ = decodeJSON(r, &payload)
	if payload.RefreshToken != "" {
		_ = h.auth.Logout(ctx, payload.RefreshToken)
	}
	RespondSuccessI18n(ctx, w, "success.logout", h.i18n, nil)
}
