package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := map[string]struct {
		format  string
		isJSON  bool
		level   slog.Level
		logged  bool
		env     string
		wantEnv bool
	}{
		"json by default": {
			format: "",
			isJSON: true,
			level:  slog.LevelInfo,
			logged: true,
		},
		"text format": {
			format: "text",
			level:  slog.LevelInfo,
			logged: true,
		},
		"level filters info": {
			format: "json",
			isJSON: true,
			level:  slog.LevelWarn,
			logged: false,
		},
		"environment attached": {
			format:  "json",
			isJSON:  true,
			level:   slog.LevelDebug,
			logged:  true,
			env:     "staging",
			wantEnv: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Options{Level: tc.level, Format: tc.format, Environment: tc.env, Output: &buf})
			logger.Info("order created", "order_id", 7)

			if !tc.logged {
				assert.Empty(t, buf.String())
				return
			}
			out := buf.String()
			assert.Contains(t, out, "order created")
			if tc.isJSON {
				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
				assert.EqualValues(t, 7, entry["order_id"])
				if tc.wantEnv {
					assert.Equal(t, tc.env, entry["env"])
				}
			} else {
				assert.Contains(t, out, "order_id=7")
			}
		})
	}
}
