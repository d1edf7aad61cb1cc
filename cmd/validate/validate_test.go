package validate_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/enrichment/cmd/validate"
	"github.com/jonesrussell/north-cloud/enrichment/internal/config"
)

const validKey = "sk-ant-REDACTED"

func TestCheckAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want error
	}{
		{name: "valid", key: validKey},
		{name: "missing", key: "  ", want: validate.ErrAPIKeyMissing},
		{name: "wrong prefix", key: "pk-" + strings.Repeat("x", 50), want: validate.ErrAPIKeyPrefix},
		{name: "too short", key: "sk-ant-123", want: validate.ErrAPIKeyShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validate.CheckAPIKey(tt.key)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMaskKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sk-...WXYZ", validate.MaskKey(validKey))
	assert.Equal(t, "***", validate.MaskKey("abc"))
}

func TestRun(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Analyzer.APIKey = validKey

	checks := validate.Run(context.Background(), cfg, false)

	require.Len(t, checks, 2)
	for _, c := range checks {
		assert.True(t, c.OK, c.Name)
	}
	assert.Contains(t, checks[1].Detail, "sk-...WXYZ")
	assert.NotContains(t, checks[1].Detail, validKey)

	var buf bytes.Buffer
	validate.Render(&buf, checks)
	assert.Contains(t, buf.String(), "Configuration")
	assert.Contains(t, buf.String(), "AI API key")
}

func TestRun_MissingKeyFails(t *testing.T) {
	t.Parallel()

	checks := validate.Run(context.Background(), config.Default(), false)

	require.Len(t, checks, 2)
	assert.False(t, checks[0].OK)
	assert.False(t, checks[1].OK)
	assert.Equal(t, validate.ErrAPIKeyMissing.Error(), checks[1].Detail)
}

func TestRun_PingElasticsearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Analyzer.Enabled = false
	cfg.Elasticsearch.Enabled = true
	cfg.Elasticsearch.Addresses = []string{srv.URL}

	checks := validate.Run(context.Background(), cfg, true)

	require.Len(t, checks, 3)
	assert.Equal(t, "Elasticsearch", checks[2].Name)
	assert.True(t, checks[2].OK, checks[2].Detail)
}
