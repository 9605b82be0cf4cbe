// 文件路径: internal/api/handler/admin_dashboard.go
// 模块说明: 后台经营看板。
package handler

import (
	"net/http"

	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

type AdminDashboardHandler struct {
	dashboard service.DashboardService
	i18n      *i18n.Manager
}

func NewAdminDashboardHandler(dashboard service.DashboardService, i18nMgr *i18n.Manager) *AdminDashboardHandler {
	return &AdminDashboardHandler{dashboard: dashboard, i18n: i18nMgr}
}

// Summary 返回看板汇总，days 缺省 7，最大 90。
func (h *AdminDashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.dashboard == nil {
		RespondErrorI18nAction(ctx, w, http.StatusServiceUnavailable, "admin.dashboard", "error.service_unavailable", h.i18n)
		return
	}
	summary, err := h.dashboard.Summary(ctx, clampQueryInt(r.URL.Query().Get("days"), 0))
	if err != nil {
		respondServiceError(ctx, w, "admin.dashboard", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, summary)
}
