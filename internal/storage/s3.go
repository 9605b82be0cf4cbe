// 文件路径: internal/storage/s3.go
// 模块说明: S3 存储，凭证沿用 AWS SDK 默认链（环境变量、共享配置、实例角色）。
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options configures the S3 uploader.
type S3Options struct {
	Bucket    string
	Region    string
	Prefix    string
	PublicURL string
	// Endpoint 指向 S3 兼容服务（MinIO 等），此时使用 path-style 寻址。
	Endpoint string
}

type s3Uploader struct {
	client    s3API
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Uploader loads AWS credentials and builds the uploader.
func NewS3Uploader(ctx context.Context, opts S3Options) (Uploader, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("s3 bucket is required / 缺少 S3 bucket")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, opts, cfg.Region), nil
}

func newS3Uploader(client s3API, opts S3Options, region string) *s3Uploader {
	publicURL := strings.TrimSpace(opts.PublicURL)
	if publicURL == "" {
		switch {
		case opts.Endpoint != "":
			publicURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
		case region != "":
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, region)
		default:
			publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", opts.Bucket)
		}
	}
	return &s3Uploader{
		client:    client,
		bucket:    opts.Bucket,
		prefix:    strings.Trim(strings.TrimSpace(opts.Prefix), "/"),
		publicURL: publicURL,
	}
}

func (u *s3Uploader) objectKey(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if u.prefix != "" && !strings.HasPrefix(key, u.prefix+"/") {
		key = path.Join(u.prefix, key)
	}
	return key, nil
}

func (u *s3Uploader) Put(ctx context.Context, key string, body []byte, contentType string) (*Object, error) {
	key, err := u.objectKey(key)
	if err != nil {
		return nil, err
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("s3 put object %s: %w", key, err)
	}
	return &Object{Key: key, URL: joinURL(u.publicURL, key), Size: int64(len(body)), ContentType: contentType}, nil
}

func (u *s3Uploader) Delete(ctx context.Context, key string) error {
	key, err := u.objectKey(key)
	if err != nil {
		return err
	}
	_, err = u.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(u.bucket), Key: aws.String(key)})
	if err != nil {
		return fmt.Errorf("s3 delete object %s: %w", key, err)
	}
	return nil
}
