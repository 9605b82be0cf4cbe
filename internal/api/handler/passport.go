// 文件路径: internal/api/handler/passport.go
// 模块说明: 注册、登录与刷新令牌接口。
package handler

import (
	"net/http"
	"strings"

	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// PassportHandler handles auth/registration endpoints.
type PassportHandler struct {
	auth     service.AuthService
	register service.RegistrationService
	i18n     *i18n.Manager
}

func NewPassportHandler(auth service.AuthService, register service.RegistrationService, i18n *i18n.Manager) *PassportHandler {
	return &PassportHandler{auth: auth, register: register, i18n: i18n}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register 创建顾客账号并直接签发令牌。
func (h *PassportHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.register == nil || h.auth == nil {
		RespondErrorI18n(r.Context(), w, http.StatusServiceUnavailable, "error.service_unavailable", h.i18n)
		return
	}
	var payload registerRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18n(r.Context(), w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		RespondErrorI18n(r.Context(), w, http.StatusBadRequest, "error.missing_credentials", h.i18n)
		return
	}
	meta := clientMeta(r)
	user, err := h.register.Register(r.Context(), service.RegistrationInput{
		Email:      payload.Email,
		Password:   payload.Password,
		Name:       payload.Name,
		ClientMeta: meta,
	})
	if err != nil {
		respondServiceError(r.Context(), w, "passport.register", err, h.i18n)
		return
	}
	result, err := h.auth.IssueForUser(r.Context(), user.ID, meta)
	if err != nil {
		respondServiceError(r.Context(), w, "passport.register", err, h.i18n)
		return
	}
	respondData(w, http.StatusCreated, result)
}

func (h *PassportHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		RespondErrorI18n(r.Context(), w, http.StatusServiceUnavailable, "error.service_unavailable", h.i18n)
		return
	}
	var payload loginRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18n(r.Context(), w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		RespondErrorI18n(r.Context(), w, http.StatusBadRequest, "error.missing_credentials", h.i18n)
		return
	}
	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:      payload.Email,
		Password:   payload.Password,
		ClientMeta: clientMeta(r),
	})
	if err != nil {
		respondServiceError(r.Context(), w, "passport.login", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (h *PassportHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		RespondErrorI18n(r.Context(), w, http.StatusServiceUnavailable, "error.service_unavailable", h.i18n)
		return
	}
	var payload refreshRequest
	if err := decodeJSON(r, &payload); err != nil || strings.TrimSpace(payload.RefreshToken) == "" {
		RespondErrorI18n(r.Context(), w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	result, err := h.auth.Refresh(r.Context(), service.RefreshInput{
		RefreshToken: payload.RefreshToken,
		ClientMeta:   clientMeta(r),
	})
	if err != nil {
		respondServiceError(r.Context(), w, "passport.refresh", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, result)
}
