// 文件路径: internal/service/upload.go
// 模块说明: 商品图片上传。按内容嗅探类型，仅接受常见图片格式，并限制大小。
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/creamcroissant/shopboard/internal/metrics"
	"github.com/creamcroissant/shopboard/internal/storage"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

// DefaultMaxUploadSize 是未配置时的上传大小上限。
const DefaultMaxUploadSize int64 = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// UploadService stores admin uploads.
type UploadService interface {
	UploadProductImage(ctx context.Context, actorID int64, body io.Reader) (*storage.Object, error)
	MaxSize() int64
}

type uploadService struct {
	uploader storage.Uploader
	maxSize  int64
	logger   *slog.Logger
	now      func() time.Time
}

// NewUploadService wires the uploader.
func NewUploadService(uploader storage.Uploader, maxSize int64, logger *slog.Logger) UploadService {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &uploadService{uploader: uploader, maxSize: maxSize, logger: logger, now: time.Now}
}

func (s *uploadService) MaxSize() int64 {
	return s.maxSize
}

func (s *uploadService) UploadProductImage(ctx context.Context, actorID int64, body io.Reader) (*storage.Object, error) {
	if s == nil || s.uploader == nil {
		return nil, fmt.Errorf("upload service not configured / 上传服务未配置")
	}
	if body == nil {
		return nil, fmt.Errorf("%w: file / 文件为空", ErrInvalidInput)
	}
	data, err := io.ReadAll(io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file / 文件为空", ErrInvalidInput)
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
	}

	key := storage.ProductImageKey(s.now().UTC(), ext)
	obj, err := s.uploader.Put(ctx, key, data, contentType)
	metrics.Upload(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "upload failed", "key", key, "actor_id", actorID, "error", err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "image uploaded", "key", obj.Key, "size", obj.Size, "actor_id", actorID)
	return obj, nil
}
