package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	cases := map[string]struct {
		remote  string
		headers map[string]string
		want    string
	}{
		"direct client ignores forwarded header": {
			remote:  "203.0.113.9:5123",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:    "203.0.113.9",
		},
		"trusted proxy uses first untrusted hop from the right": {
			remote:  "10.0.0.2:443",
			headers: map[string]string{"X-Forwarded-For": "6.6.6.6, 198.51.100.7, 192.168.1.10"},
			want:    "198.51.100.7",
		},
		"all hops trusted returns leftmost": {
			remote:  "127.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": "10.1.1.1, 10.2.2.2"},
			want:    "10.1.1.1",
		},
		"x-real-ip fallback": {
			remote:  "[::1]:8080",
			headers: map[string]string{"X-Real-IP": "2001:db8::1"},
			want:    "2001:db8::1",
		},
		"garbage forwarded header falls back to remote": {
			remote:  "172.20.0.3:1000",
			headers: map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:    "172.20.0.3",
		},
		"public 172 range is not trusted": {
			remote:  "172.32.0.1:1000",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:    "172.32.0.1",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientIP(r))
		})
	}
}

func TestSetTrustedProxies(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, SetTrustedProxies(DefaultTrustedProxies)) })

	require.Error(t, SetTrustedProxies([]string{"10.0.0.0/33"}))
	require.NoError(t, SetTrustedProxies([]string{"203.0.113.0/24"}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.5:1"
	r.Header.Set("X-Forwarded-For", "8.8.8.8")
	assert.Equal(t, "8.8.8.8", ClientIP(r))

	r.RemoteAddr = "10.0.0.2:1"
	assert.Equal(t, "10.0.0.2", ClientIP(r))
}

func TestBodyLimit(t *testing.T) {
	mw := BodyLimit(BodyLimitConfig{
		MaxBytes:  8,
		Overrides: map[string]int64{"/upload": 64},
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	cases := map[string]struct {
		path string
		body string
		want int
	}{
		"within default":   {"/api", "tiny", http.StatusOK},
		"over default":     {"/api", strings.Repeat("x", 32), http.StatusRequestEntityTooLarge},
		"override allows":  {"/upload", strings.Repeat("x", 32), http.StatusOK},
		"override exceeds": {"/upload", strings.Repeat("x", 100), http.StatusRequestEntityTooLarge},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body)))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
