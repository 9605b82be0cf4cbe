// 文件路径: internal/support/i18n/i18n.go
// 模块说明: 加载内置语言包并按请求语言翻译接口提示文案。
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// Manager 管理翻译内容。
type Manager struct {
	defaultLang  string
	translations map[string]map[string]string
	matcher      language.Matcher
	tags         []string
	logger       *slog.Logger
	mu           sync.RWMutex
}

// Option 用于配置 Manager。
type Option func(*Manager)

// WithLogger 设置 Manager 使用的日志实例。
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDefaultLang 设置默认语言。
func WithDefaultLang(lang string) Option {
	return func(m *Manager) {
		m.defaultLang = lang
	}
}

// NewManager 创建 i18n Manager 并加载内置语言包。
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		defaultLang:  "en-US",
		translations: make(map[string]map[string]string),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	entries, err := embeddedLocales.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := embeddedLocales.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", entry.Name(), err)
		}
		if err := m.merge(strings.TrimSuffix(entry.Name(), ".json"), data); err != nil {
			return nil, err
		}
	}
	m.rebuildMatcher()
	return m, nil
}

// LoadFromDir 从外部目录追加或覆盖翻译，目录不存在时忽略。
func (m *Manager) LoadFromDir(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read external locales: %w", err)
	}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			m.logger.Warn("failed to read external locale file", "file", file.Name(), "error", err)
			continue
		}
		if err := m.merge(strings.TrimSuffix(file.Name(), ".json"), data); err != nil {
			m.logger.Warn("failed to parse external locale file", "file", file.Name(), "error", err)
		}
	}
	m.rebuildMatcher()
	return nil
}

func (m *Manager) merge(lang string, data []byte) error {
	var content map[string]string
	if err := json.Unmarshal(data, &content); err != nil {
		return fmt.Errorf("parse locale %s: %w", lang, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dst, ok := m.translations[lang]
	if !ok {
		dst = make(map[string]string, len(content))
		m.translations[lang] = dst
	}
	for k, v := range content {
		dst[k] = v
	}
	return nil
}

func (m *Manager) rebuildMatcher() {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.translations))
	for lang := range m.translations {
		if lang != m.defaultLang {
			names = append(names, lang)
		}
	}
	sort.Strings(names)
	// 默认语言放在首位，匹配失败时回落到它。
	names = append([]string{m.defaultLang}, names...)
	tags := make([]language.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, language.Make(name))
	}
	m.tags = names
	m.matcher = language.NewMatcher(tags)
}

// Match 把任意语言标识（如 zh、zh-cn、en-GB）归一到已加载的语言包。
func (m *Manager) Match(lang string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.matcher == nil || strings.TrimSpace(lang) == "" {
		return m.defaultLang
	}
	_, idx, conf := m.matcher.Match(language.Make(lang))
	if conf == language.No || idx >= len(m.tags) {
		return m.defaultLang
	}
	return m.tags[idx]
}

// Translate 按语言与键名返回翻译内容，缺失时回退到默认语言，再回退为 key 本身。
func (m *Manager) Translate(lang, key string, args ...any) string {
	if m == nil {
		return key
	}
	resolved := m.Match(lang)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, candidate := range []string{resolved, m.defaultLang} {
		if val, ok := m.translations[candidate][key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(val, args...)
			}
			return val
		}
	}
	return key
}

// SupportedLanguages 返回已加载的语言列表（默认语言在首位）。
func (m *Manager) SupportedLanguages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.tags))
	copy(out, m.tags)
	return out
}
