// 文件路径: internal/authz/authz.go
// 模块说明: 基于 casbin 的后台 RBAC，角色按路径前缀与 HTTP 方法授权。
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

//go:embed model.conf
var defaultModel string

//go:embed policy.csv
var defaultPolicy string

// Authorizer decides whether a role may call a backoffice route.
type Authorizer interface {
	Authorize(role, path, method string) (bool, error)
}

type enforcerAuthorizer struct {
	enforcer casbin.IEnforcer
}

// New builds an Authorizer from the embedded model and policy.
func New() (Authorizer, error) {
	return NewFromStrings(defaultModel, defaultPolicy)
}

// NewFromStrings builds an Authorizer from explicit model and policy text.
func NewFromStrings(modelText, policy string) (Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("load casbin model / 加载权限模型失败: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(stripComments(policy)))
	if err != nil {
		return nil, fmt.Errorf("init casbin enforcer / 初始化权限引擎失败: %w", err)
	}
	return &enforcerAuthorizer{enforcer: enforcer}, nil
}

func (a *enforcerAuthorizer) Authorize(role, path, method string) (bool, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return false, nil
	}
	return a.enforcer.Enforce(role, path, strings.ToUpper(method))
}

func stripComments(policy string) string {
	lines := strings.Split(policy, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}
