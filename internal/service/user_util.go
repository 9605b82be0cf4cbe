// 文件路径: internal/service/user_util.go
// 模块说明: 服务层共用的小工具：邮箱规整、密码强度、HTML 清洗、slug 生成与分页。
package service

import (
	"net/mail"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/creamcroissant/shopboard/internal/repository"
)

const minPasswordLength = 8

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func hasLetterAndNumber(password string) bool {
	var hasLetter bool
	var hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
		if hasLetter && hasNumber {
			return true
		}
	}
	return false
}

func validPassword(password string) bool {
	return len(password) >= minPasswordLength && hasLetterAndNumber(password)
}

func sanitizeHTML(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	return defaultHTMLSanitizer().Sanitize(trimmed)
}

var defaultHTMLSanitizer = sync.OnceValue(func() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("target", "rel").OnElements("a")
	policy.RequireNoFollowOnLinks(true)
	policy.RequireNoReferrerOnLinks(true)
	policy.AllowURLSchemes("http", "https")
	policy.AllowRelativeURLs(true)
	policy.AllowElements("img")
	policy.AllowAttrs("src", "alt", "title", "width", "height", "loading").OnElements("img")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.AddSpaceWhenStrippingTag(true)
	return policy
})

// stripTags 去掉全部标签，用于名称等纯文本字段。
func stripTags(input string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(strings.TrimSpace(input)))
}

// slugify 生成小写、连字符分隔的 URL 片段；无可用字符时退化为随机串。
func slugify(input string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 80 {
		slug = strings.Trim(slug[:80], "-")
	}
	if slug == "" {
		slug = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	return slug
}

func cleanStrings(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Page 是分页请求参数。
type Page struct {
	Page     int
	PageSize int
}

func (p Page) limitOffset() (int, int) {
	size := repository.NormalizeLimit(p.PageSize)
	page := p.Page
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}
