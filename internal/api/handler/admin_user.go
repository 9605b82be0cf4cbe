// 文件路径: internal/api/handler/admin_user.go
// 模块说明: 后台用户管理：搜索、创建、封禁与调整角色。
package handler

import (
	"net/http"
	"strings"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// AdminUserHandler exposes /admin/users.
type AdminUserHandler struct {
	users service.AdminUserService
	i18n  *i18n.Manager
}

func NewAdminUserHandler(users service.AdminUserService, i18nMgr *i18n.Manager) *AdminUserHandler {
	return &AdminUserHandler{users: users, i18n: i18nMgr}
}

type adminBanRequest struct {
	Banned *bool `json:"banned"`
}

type adminRoleRequest struct {
	Role string `json:"role"`
}

type adminCreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	result, err := h.users.List(ctx, service.AdminUserListInput{
		Query:  firstNonEmpty(q.Get("q"), q.Get("email")),
		Role:   strings.TrimSpace(q.Get("role")),
		Banned: queryBool(r, "banned"),
		Page:   queryPage(r),
	})
	if err != nil {
		respondServiceError(ctx, w, "admin.user.list", err, h.i18n)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  result.Users,
		"total": result.Total,
	})
}

func (h *AdminUserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.user.get", "error.bad_request", h.i18n)
		return
	}
	user, err := h.users.Get(ctx, id)
	if err != nil {
		respondServiceError(ctx, w, "admin.user.get", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *AdminUserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload adminCreateUserRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.user.create", "error.bad_request", h.i18n)
		return
	}
	user, err := h.users.Create(ctx, service.AdminUserCreateInput{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
		Role:     payload.Role,
	})
	if err != nil {
		respondServiceError(ctx, w, "admin.user.create", err, h.i18n)
		return
	}
	respondData(w, http.StatusCreated, user)
}

// Ban 封禁或解封用户，未传 banned 时默认封禁。
func (h *AdminUserHandler) Ban(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.AdminFromContext(ctx)
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.user.ban", "error.bad_request", h.i18n)
		return
	}
	var payload adminBanRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.user.ban", "error.bad_request", h.i18n)
		return
	}
	banned := true
	if payload.Banned != nil {
		banned = *payload.Banned
	}
	user, err := h.users.SetBanned(ctx, claims.ID, id, banned)
	if err != nil {
		respondServiceError(ctx, w, "admin.user.ban", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *AdminUserHandler) Role(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.AdminFromContext(ctx)
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.user.role", "error.bad_request", h.i18n)
		return
	}
	var payload adminRoleRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.user.role", "error.bad_request", h.i18n)
		return
	}
	user, err := h.users.SetRole(ctx, claims.ID, id, payload.Role)
	if err != nil {
		respondServiceError(ctx, w, "admin.user.role", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, user)
}
