package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
)

func TestStructuredLogger(t *testing.T) {
	cases := map[string]struct {
		path     string
		status   int
		login    bool
		wantLog  bool
		contains []string
		absent   []string
	}{
		"records authenticated actor": {
			path:     "/api/v1/user/orders",
			status:   http.StatusOK,
			login:    true,
			wantLog:  true,
			contains: []string{"user_id=42", "role=customer", "msg=\"request completed\""},
		},
		"redacts secrets in query": {
			path:     "/api/v1/user/orders?client_secret=pi_abc&status=Paid",
			status:   http.StatusOK,
			wantLog:  true,
			contains: []string{"client_secret=%2A%2A%2A", "status=Paid"},
			absent:   []string{"pi_abc", "user_id"},
		},
		"client error is warn": {
			path:     "/api/v1/guest/products/99",
			status:   http.StatusNotFound,
			wantLog:  true,
			contains: []string{"level=WARN", "status=404"},
		},
		"skip exact path": {
			path:   "/healthz",
			status: http.StatusOK,
		},
		"skip uploads prefix": {
			path:   "/uploads/products/2026/01/a.png",
			status: http.StatusOK,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			mw := StructuredLogger(LoggingConfig{
				Logger:       logger,
				SkipPaths:    []string{"/healthz"},
				SkipPrefixes: []string{"/uploads/"},
			})
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.login {
					requestctx.RecordActor(r.Context(), requestctx.UserClaims{ID: 42, Role: "customer"})
				}
				w.WriteHeader(tc.status)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			out := buf.String()
			if !tc.wantLog {
				assert.Empty(t, out)
				return
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			for _, want := range tc.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tc.absent {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}
