// 文件路径: internal/api/handler/etag.go
// 模块说明: 商品详情的 ETag 计算与条件请求判断。
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/creamcroissant/shopboard/internal/service"
)

func formatETag(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return "\"" + trimmed + "\""
}

// productETag 随价格、库存或资料变更而变化。
func productETag(view *service.ProductView) string {
	if view == nil {
		return ""
	}
	return formatETag(strconv.FormatInt(view.ID, 10) + "-" + strconv.FormatInt(view.UpdatedAt, 10) + "-" + strconv.Itoa(view.Stock))
}

func etagMatches(r *http.Request, etag string) bool {
	if etag == "" {
		return false
	}
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if strings.TrimSpace(candidate) == etag {
			return true
		}
	}
	return false
}
