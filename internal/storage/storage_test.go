package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductImageKey(t *testing.T) {
	key := ProductImageKey(time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), ".PNG")
	assert.Regexp(t, regexp.MustCompile(`^products/2024/03/[0-9a-f-]{36}\.png$`), key)
}

func TestCleanKey(t *testing.T) {
	testCases := map[string]struct {
		key     string
		want    string
		wantErr bool
	}{
		"plain":          {key: "products/a.png", want: "products/a.png"},
		"leading slash":  {key: "/products/a.png", want: "products/a.png"},
		"empty":          {key: "  ", wantErr: true},
		"parent escapes": {key: "../etc/passwd", wantErr: true},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := cleanKey(tc.key)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLocalUploader(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "/uploads/")
	require.NoError(t, err)

	obj, err := u.Put(context.Background(), "products/2024/01/x.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/products/2024/01/x.png", obj.URL)
	assert.Equal(t, int64(3), obj.Size)

	data, err := os.ReadFile(filepath.Join(dir, "products", "2024", "01", "x.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, u.Delete(context.Background(), "products/2024/01/x.png"))
	require.NoError(t, u.Delete(context.Background(), "products/2024/01/x.png"))
	_, err = os.Stat(filepath.Join(dir, "products", "2024", "01", "x.png"))
	assert.True(t, os.IsNotExist(err))
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func TestS3Uploader(t *testing.T) {
	client := new(mockS3)
	u := newS3Uploader(client, S3Options{Bucket: "shop-assets", Prefix: "media"}, "eu-west-1")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "shop-assets" && *in.Key == "media/products/a.png" && *in.ContentType == "image/png"
	})).Return(&s3.PutObjectOutput{}, nil)

	obj, err := u.Put(context.Background(), "products/a.png", []byte("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://shop-assets.s3.eu-west-1.amazonaws.com/media/products/a.png", obj.URL)
	client.AssertExpectations(t)

	custom := newS3Uploader(client, S3Options{Bucket: "b", Endpoint: "http://minio:9000/"}, "")
	assert.Equal(t, "http://minio:9000/b", custom.publicURL)
}

type flakyUploader struct {
	failures int
	calls    int
	err      error
}

func (f *flakyUploader) Put(_ context.Context, key string, body []byte, contentType string) (*Object, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &Object{Key: key, Size: int64(len(body)), ContentType: contentType}, nil
}

func (f *flakyUploader) Delete(context.Context, string) error { return nil }

func TestWithRetry(t *testing.T) {
	fast := RetryConfig{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Multiplier: 1.5}

	testCases := map[string]struct {
		next      *flakyUploader
		wantCalls int
		wantErr   error
	}{
		"recovers after transient errors": {next: &flakyUploader{failures: 2, err: errors.New("503")}, wantCalls: 3},
		"gives up after max retries":      {next: &flakyUploader{failures: 10, err: errors.New("503")}, wantCalls: 4, wantErr: errors.New("503")},
		"invalid key is not retried":      {next: &flakyUploader{failures: 10, err: ErrInvalidKey}, wantCalls: 1, wantErr: ErrInvalidKey},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			obj, err := WithRetry(tc.next, fast).Put(context.Background(), "k", []byte("ab"), "image/png")
			assert.Equal(t, tc.wantCalls, tc.next.calls)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tc.wantErr.Error(), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(2), obj.Size)
		})
	}
}
