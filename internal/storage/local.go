// 文件路径: internal/storage/local.go
// 模块说明: 本地磁盘存储，由 HTTP 服务以静态文件方式对外提供。
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type localUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader writes objects under dir and serves them from baseURL.
func NewLocalUploader(dir, baseURL string) (Uploader, error) {
	if dir == "" {
		return nil, errors.New("local storage dir is required / 缺少本地存储目录")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localUploader{dir: dir, baseURL: baseURL}, nil
}

func (u *localUploader) Put(ctx context.Context, key string, body []byte, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(u.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return nil, fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("commit object: %w", err)
	}
	return &Object{Key: key, URL: joinURL(u.baseURL, key), Size: int64(len(body)), ContentType: contentType}, nil
}

func (u *localUploader) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(u.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
