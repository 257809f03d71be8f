package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readingHandler answers 413 the way the place handlers do when the body
// reader trips the limit.
func readingHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestSize(t *testing.T) {
	tests := []struct {
		name          string
		maxBytes      int64
		bodySize      int
		unknownLength bool
		expectStatus  int
	}{
		{name: "small request accepted", maxBytes: 1024, bodySize: 512, expectStatus: http.StatusOK},
		{name: "exact limit accepted", maxBytes: 1024, bodySize: 1024, expectStatus: http.StatusOK},
		{name: "declared oversize rejected up front", maxBytes: 1024, bodySize: 2048, expectStatus: http.StatusRequestEntityTooLarge},
		{name: "streamed oversize rejected on read", maxBytes: 1024, bodySize: 2048, unknownLength: true, expectStatus: http.StatusRequestEntityTooLarge},
		{name: "zero falls back to default", maxBytes: 0, bodySize: int(DefaultMaxBodySize) + 1, expectStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bytes.Repeat([]byte("a"), tt.bodySize)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/places", bytes.NewReader(body))
			if tt.unknownLength {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()

			RequestSize(tt.maxBytes)(readingHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectStatus, rec.Code)
		})
	}
}

func TestRequestSize_ProblemBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/places", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()

	RequestSize(16)(readingHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "payload-too-large")
}
