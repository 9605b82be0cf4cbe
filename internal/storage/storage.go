// 文件路径: internal/storage/storage.go
// 模块说明: 上传文件存储抽象，商品图片写入 S3 或本地磁盘。
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidKey indicates an empty or escaping object key.
var ErrInvalidKey = errors.New("storage: invalid object key / 对象键无效")

// Object describes a stored file.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Uploader persists binary objects and returns their public URL.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// ProductImageKey builds products/<yyyy>/<mm>/<uuid>.<ext>.
func ProductImageKey(now time.Time, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return path.Join("products", fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), name)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}

func joinURL(base, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "/" + key
	}
	return base + "/" + key
}
