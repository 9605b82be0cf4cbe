// 文件路径: internal/api/handler/request.go
// 模块说明: 请求解析辅助：JSON 解码、路径参数、分页与客户端信息。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/creamcroissant/shopboard/internal/api/middleware"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/go-chi/chi/v5"
)

var errMissingID = errors.New("handler: invalid id / 无效的 ID")

// decodeJSON 解码请求体，空请求体视为空对象。
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func clampQueryInt(raw string, def int) int {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if value < 0 {
		return 0
	}
	if value > 200 {
		return 200
	}
	return value
}

func parseInt64(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

// pathID 读取 chi 路径参数并要求为正整数。
func pathID(r *http.Request, name string) (int64, error) {
	id, err := parseInt64(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, errMissingID
	}
	return id, nil
}

func queryInt64(r *http.Request, name string) *int64 {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	v, err := parseInt64(raw)
	if err != nil {
		return nil
	}
	return &v
}

func queryBool(r *http.Request, name string) *bool {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

func queryPage(r *http.Request) service.Page {
	q := r.URL.Query()
	return service.Page{
		Page:     clampQueryInt(q.Get("page"), 1),
		PageSize: clampQueryInt(firstNonEmpty(q.Get("page_size"), q.Get("pageSize")), 20),
	}
}

func clientMeta(r *http.Request) service.ClientMeta {
	return service.ClientMeta{IP: middleware.ClientIP(r), UserAgent: r.UserAgent()}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
