// 文件路径: internal/api/handler/admin_system.go
// 模块说明: 系统状态、运行期设置与测试通知。
package handler

import (
	"net/http"
	"strings"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// AdminSystemHandler 提供系统仪表盘接口。
type AdminSystemHandler struct {
	system   service.AdminSystemService
	settings service.AdminSettingsService
	i18n     *i18n.Manager
}

// NewAdminSystemHandler 绑定 service 实例。
func NewAdminSystemHandler(system service.AdminSystemService, settings service.AdminSettingsService, i18nMgr *i18n.Manager) *AdminSystemHandler {
	return &AdminSystemHandler{system: system, settings: settings, i18n: i18nMgr}
}

type testNotificationRequest struct {
	Email string `json:"email"`
}

func (h *AdminSystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.system == nil {
		RespondErrorI18nAction(ctx, w, http.StatusServiceUnavailable, "admin.system.status", "error.service_unavailable", h.i18n)
		return
	}
	status, err := h.system.SystemStatus(ctx)
	if err != nil {
		respondServiceError(ctx, w, "admin.system.status", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, status)
}

func (h *AdminSystemHandler) Settings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		RespondErrorI18nAction(ctx, w, http.StatusServiceUnavailable, "admin.system.settings", "error.service_unavailable", h.i18n)
		return
	}
	values, err := h.settings.List(ctx)
	if err != nil {
		respondServiceError(ctx, w, "admin.system.settings", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, values)
}

func (h *AdminSystemHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		RespondErrorI18nAction(ctx, w, http.StatusServiceUnavailable, "admin.system.settings.save", "error.service_unavailable", h.i18n)
		return
	}
	var payload map[string]string
	if err := decodeJSON(r, &payload); err != nil || len(payload) == 0 {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.system.settings.save", "error.bad_request", h.i18n)
		return
	}
	values, err := h.settings.Save(ctx, requestctx.AdminFromContext(ctx).ID, payload)
	if err != nil {
		respondServiceError(ctx, w, "admin.system.settings.save", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.saved", h.i18n, values)
}

// TestNotification 向指定邮箱（缺省为当前管理员）投递一封测试通知。
func (h *AdminSystemHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		RespondErrorI18nAction(ctx, w, http.StatusServiceUnavailable, "admin.system.notify", "error.service_unavailable", h.i18n)
		return
	}
	var payload testNotificationRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.system.notify", "error.bad_request", h.i18n)
		return
	}
	to := strings.TrimSpace(payload.Email)
	if to == "" {
		to = requestctx.AdminFromContext(ctx).Email
	}
	if err := h.settings.TestNotification(ctx, to); err != nil {
		respondServiceError(ctx, w, "admin.system.notify", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.notification_sent", h.i18n, nil)
}
