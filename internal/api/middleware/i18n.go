// 文件路径: internal/api/middleware/i18n.go
// 模块说明: 识别请求语言（query、请求头、cookie、Accept-Language）并写入 context。
package middleware

import (
	"net/http"
	"time"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
	"golang.org/x/text/language"
)

const langCookie = "shopboard_lang"

// I18n middleware detects the user's preferred language and stores it in the context.
func I18n(manager *i18n.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			explicit := r.URL.Query().Get("lang")
			lang := explicit
			if lang == "" {
				lang = r.Header.Get("X-Lang")
			}
			if lang == "" {
				if cookie, err := r.Cookie(langCookie); err == nil {
					lang = cookie.Value
				}
			}
			if lang == "" {
				tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
				if err == nil && len(tags) > 0 {
					lang = tags[0].String()
				}
			}
			// 归一到已加载的语言包，例如 zh-cn -> zh-CN。
			if manager != nil {
				lang = manager.Match(lang)
			} else if lang == "" {
				lang = "en-US"
			}

			if explicit != "" {
				http.SetCookie(w, &http.Cookie{
					Name:    langCookie,
					Value:   lang,
					Path:    "/",
					Expires: time.Now().Add(365 * 24 * time.Hour),
				})
			}
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(requestctx.WithLanguage(r.Context(), lang)))
		})
	}
}
