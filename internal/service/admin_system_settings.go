// 文件路径: internal/service/admin_system_settings.go
// 模块说明: 后台运行期设置（暂停注册、店铺名称、客服邮箱）的读写与测试通知。
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/notifier"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/security"
)

// 可在后台修改的设置项。
const (
	SettingShopName     = "shop_name"
	SettingSupportEmail = "support_email"
)

// settingCategories 限定可写入的 key 及其分类。
var settingCategories = map[string]string{
	SettingStopRegister: "auth",
	SettingShopName:     "shop",
	SettingSupportEmail: "shop",
}

// AdminSettingsService 负责系统设置读写。
type AdminSettingsService interface {
	List(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, actorID int64, settings map[string]string) (map[string]string, error)
	TestNotification(ctx context.Context, to string) error
}

type adminSettingsService struct {
	settings repository.SettingRepository
	notifier notifier.Service
	audit    security.Recorder
	now      func() time.Time
}

// NewAdminSettingsService 构建系统设置服务。
func NewAdminSettingsService(store repository.Store, notify notifier.Service, audit security.Recorder) AdminSettingsService {
	s := &adminSettingsService{notifier: notify, audit: audit, now: time.Now}
	if store != nil {
		s.settings = store.Settings()
	}
	return s
}

func (s *adminSettingsService) List(ctx context.Context) (map[string]string, error) {
	if s == nil || s.settings == nil {
		return nil, fmt.Errorf("admin settings service not configured / 系统设置服务未配置")
	}
	entries, err := s.settings.List(ctx, "")
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(settingCategories))
	for key := range settingCategories {
		result[key] = ""
	}
	for _, entry := range entries {
		if _, ok := settingCategories[entry.Key]; ok {
			result[entry.Key] = entry.Value
		}
	}
	return result, nil
}

func (s *adminSettingsService) Save(ctx context.Context, actorID int64, settings map[string]string) (map[string]string, error) {
	if s == nil || s.settings == nil {
		return nil, fmt.Errorf("admin settings service not configured / 系统设置服务未配置")
	}
	normalized := make(map[string]string, len(settings))
	for key, value := range settings {
		key = strings.TrimSpace(key)
		if _, ok := settingCategories[key]; !ok {
			return nil, fmt.Errorf("%w: unknown setting %q / 未知设置项", ErrInvalidInput, key)
		}
		v, err := normalizeSettingValue(key, value)
		if err != nil {
			return nil, err
		}
		normalized[key] = v
	}
	now := s.now().Unix()
	for key, value := range normalized {
		entry := &repository.Setting{Key: key, Value: value, Category: settingCategories[key], UpdatedAt: now}
		if err := s.settings.Upsert(ctx, entry); err != nil {
			return nil, err
		}
	}
	if s.audit != nil && len(normalized) > 0 {
		s.audit.Record(ctx, security.Event{
			Kind:     "admin.settings.saved",
			ActorID:  strconv.FormatInt(actorID, 10),
			Metadata: map[string]any{"keys": len(normalized)},
		})
	}
	return s.List(ctx)
}

func normalizeSettingValue(key, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch key {
	case SettingStopRegister:
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			return "1", nil
		case "", "0", "false", "no", "off":
			return "0", nil
		}
		return "", fmt.Errorf("%w: %s must be boolean / 必须为布尔值", ErrInvalidInput, key)
	case SettingSupportEmail:
		email := normalizeEmail(value)
		if email != "" && !validEmail(email) {
			return "", ErrInvalidEmail
		}
		return email, nil
	default:
		return stripTags(value), nil
	}
}

// TestNotification 入队一封测试通知，用于确认通知链路。
func (s *adminSettingsService) TestNotification(ctx context.Context, to string) error {
	if s == nil || s.notifier == nil {
		return fmt.Errorf("notifier not configured / 通知服务未配置")
	}
	email := normalizeEmail(to)
	if !validEmail(email) {
		return ErrInvalidEmail
	}
	return s.notifier.SendEmail(ctx, notifier.EmailRequest{
		To:       email,
		Subject:  "Test notification",
		Template: notifier.TemplateTest,
		Variables: map[string]any{
			"sent_at": s.now().UTC().Format(time.RFC3339),
		},
	})
}
