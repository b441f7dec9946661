package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mcncl/genpost/internal/errors"
)

// recorder is a fake generate service that remembers the last request body.
type recorder struct {
	mu       sync.Mutex
	response string
	status   int
	body     interface{}
	calls    int
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	raw, _ := io.ReadAll(req.Body)
	r.body = nil
	_ = json.Unmarshal(raw, &r.body)
	if r.status != 0 {
		w.WriteHeader(r.status)
	}
	_, _ = w.Write([]byte(r.response))
}

func (r *recorder) snapshot() (interface{}, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body, r.calls
}

func serve(t *testing.T, rec *recorder) string {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return srv.URL
}

func inputFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "example.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func jsonValue(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		response     string
		expectedBody string
		expectedKeys []string
	}{
		{
			name:         "list input",
			input:        `[{"a":1},{"a":2,"private":true}]`,
			response:     `{"k1":{"valid":true},"k2":{"valid":false},"k3":"notadict"}`,
			expectedBody: `[{"a":1}]`,
			expectedKeys: []string{"k1"},
		},
		{
			name:         "map input",
			input:        `{"x":{"v":1},"y":{"v":2,"private":true}}`,
			response:     `{"y":{"valid":true},"x":{"valid":true}}`,
			expectedBody: `{"x":{"v":1}}`,
			expectedKeys: []string{"x", "y"},
		},
		{
			name:         "nothing valid",
			input:        `[]`,
			response:     `{}`,
			expectedBody: `[]`,
			expectedKeys: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{response: tt.response}
			base := serve(t, rec)

			keys, err := Run(context.Background(), Options{
				Input:   inputFile(t, tt.input),
				BaseURL: base + "/",
				Timeout: time.Second,
			}, Deps{})
			require.NoError(t, err)

			assert.Equal(t, tt.expectedKeys, keys)
			body, _ := rec.snapshot()
			if diff := cmp.Diff(jsonValue(t, tt.expectedBody), body); diff != "" {
				t.Errorf("request body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_Stdin(t *testing.T) {
	rec := &recorder{response: `{"only":{"valid":true}}`}
	base := serve(t, rec)

	keys, err := Run(context.Background(), Options{Input: "-", BaseURL: base, Timeout: time.Second}, Deps{
		Stdin: strings.NewReader(`{"only":{"n":1}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, keys)
}

func TestRun_Failures(t *testing.T) {
	t.Run("scalar input is a validation error", func(t *testing.T) {
		rec := &recorder{response: `{}`}
		base := serve(t, rec)

		_, err := Run(context.Background(), Options{Input: inputFile(t, `42`), BaseURL: base}, Deps{})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
		assert.Equal(t, apperrors.ExitPipeline, apperrors.ExitCode(err))
		_, calls := rec.snapshot()
		assert.Zero(t, calls, "nothing is posted after a failed stage")
	})

	t.Run("missing file is an input error", func(t *testing.T) {
		rec := &recorder{response: `{}`}
		base := serve(t, rec)

		_, err := Run(context.Background(), Options{
			Input:   filepath.Join(t.TempDir(), "missing.json"),
			BaseURL: base,
		}, Deps{})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeInput, apperrors.TypeOf(err))
		assert.Equal(t, apperrors.ExitPipeline, apperrors.ExitCode(err))
		_, calls := rec.snapshot()
		assert.Zero(t, calls)
	})

	t.Run("invalid UTF-8 is an input error", func(t *testing.T) {
		rec := &recorder{response: `{}`}
		base := serve(t, rec)

		_, err := Run(context.Background(), Options{Input: inputFile(t, "[{\"name\":\"a\xffb\"}]"), BaseURL: base}, Deps{})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeInput, apperrors.TypeOf(err))
		assert.ErrorIs(t, err, apperrors.ErrInvalidJSON)
		_, calls := rec.snapshot()
		assert.Zero(t, calls, "altered data is never posted")
	})

	t.Run("server failure is an http error", func(t *testing.T) {
		rec := &recorder{response: `oops`, status: http.StatusBadGateway}
		base := serve(t, rec)

		_, err := Run(context.Background(), Options{Input: inputFile(t, `[]`), BaseURL: base}, Deps{})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeHTTP, apperrors.TypeOf(err))
		_, calls := rec.snapshot()
		assert.Equal(t, 1, calls)
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestWriteKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKeys(&buf, []string{"a", "b"}))
	assert.Equal(t, "a\nb\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteKeys(&buf, nil))
	assert.Empty(t, buf.String())

	err := WriteKeys(failingWriter{}, []string{"a"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeOutput, apperrors.TypeOf(err))
}
