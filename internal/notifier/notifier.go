// 文件路径: internal/notifier/notifier.go
// 模块说明: 顾客与运营通知（订单状态、低库存、测试邮件），内置纯文本模板；默认实现渲染后写入日志。
package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/creamcroissant/shopboard/internal/support/logging"
)

// 内置模板名。
const (
	TemplateOrderStatus = "order_status"
	TemplateLowStock    = "low_stock"
	TemplateTest        = "test"
)

// EmailRequest 描述邮件通知请求。
type EmailRequest struct {
	To        string
	Subject   string
	Template  string
	Variables map[string]any
}

// Service 发送通知。
type Service interface {
	SendEmail(ctx context.Context, req EmailRequest) error
}

var (
	// ErrRecipientRequired 表示收件人为空，这类请求重试也不会成功。
	ErrRecipientRequired = errors.New("recipient is required / 收件人不能为空")
	// ErrUnknownTemplate 表示模板不存在，同样不应重试。
	ErrUnknownTemplate = errors.New("unknown email template / 邮件模板不存在")
)

// IsPermanent 判断投递错误是否无需重试。
func IsPermanent(err error) bool {
	return errors.Is(err, ErrRecipientRequired) || errors.Is(err, ErrUnknownTemplate)
}

var templateFuncs = template.FuncMap{
	// money 把分格式化为 "12.34 USD"
	"money": func(cents any, currency string) string {
		var v int64
		switch c := cents.(type) {
		case int64:
			v = c
		case int:
			v = int64(c)
		}
		return decimal.New(v, -2).StringFixed(2) + " " + strings.ToUpper(currency)
	},
}

var templates = template.Must(template.New("mail").Funcs(templateFuncs).Parse(`
{{define "order_status"}}Hi {{with .name}}{{.}}{{else}}there{{end}},

Your order {{.trade_no}} is now {{.status}}.
Order total: {{money .total .currency}}
{{- with .reason}}
Note: {{.}}{{end}}
{{end}}
{{define "low_stock"}}{{len .products}} products are at or below {{.threshold}} units:
{{range .products}}
  #{{.id}} {{.name}}: {{.stock}} left{{end}}
{{end}}
{{define "test"}}This is a test notification sent at {{.sent_at}}.
{{end}}`))

// Render 渲染请求对应的纯文本正文。
func Render(req EmailRequest) (string, error) {
	name := strings.TrimSpace(req.Template)
	if templates.Lookup(name) == nil || name == "mail" {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, req.Template)
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, req.Variables); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// LoggerService 渲染通知并写入日志，适用于开发环境与测试。
type LoggerService struct {
	logger *slog.Logger
}

// NewLoggerService 创建仅记录日志的通知服务。
func NewLoggerService(logger *slog.Logger) *LoggerService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LoggerService{logger: logger}
}

// SendEmail 校验并渲染邮件后记录。
func (s *LoggerService) SendEmail(ctx context.Context, req EmailRequest) error {
	if strings.TrimSpace(req.To) == "" {
		return ErrRecipientRequired
	}
	body, err := Render(req)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "email notification", "to", req.To, "subject", req.Subject, "template", req.Template, "body", body)
	return nil
}
