package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "electionhub/pkg/domain-errors"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
	}{
		{
			name:   "internal error hides its message",
			err:    dErrors.New(dErrors.CodeInternal, "pq: connection refused"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
		{
			name:        "validation error carries its message",
			err:         dErrors.New(dErrors.CodeValidation, "county is required"),
			status:      http.StatusBadRequest,
			code:        "validation_error",
			description: "county is required",
		},
		{
			name:        "forbidden",
			err:         dErrors.New(dErrors.CodeForbidden, "supervisors cannot delete polls"),
			status:      http.StatusForbidden,
			code:        "forbidden",
			description: "supervisors cannot delete polls",
		},
		{
			name:   "untyped error is internal",
			err:    io.ErrUnexpectedEOF,
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeEnvelope(t, w)
			assert.Equal(t, tt.code, body["error"])
			if tt.description == "" {
				assert.NotContains(t, body, "error_description")
			} else {
				assert.Equal(t, tt.description, body["error_description"])
			}
		})
	}
}

type countyRequest struct {
	County string `json:"county"`
}

func (r *countyRequest) Validate() error {
	r.County = strings.TrimSpace(r.County)
	if r.County == "" {
		return dErrors.New(dErrors.CodeValidation, "county is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	decodeBody := func(body string) (*countyRequest, bool, *httptest.ResponseRecorder) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/polls/", strings.NewReader(body))
		req, ok := DecodeAndPrepare[countyRequest](w, r, logger, r.Context(), "req-1")
		return req, ok, w
	}

	t.Run("valid body is normalized", func(t *testing.T) {
		req, ok, w := decodeBody(`{"county":"  Nairobi "}`)
		require.True(t, ok)
		assert.Equal(t, "Nairobi", req.County)
		assert.Equal(t, 0, w.Body.Len(), "nothing written on success")
	})

	t.Run("malformed json", func(t *testing.T) {
		req, ok, w := decodeBody(`{"county":`)
		assert.False(t, ok)
		assert.Nil(t, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeEnvelope(t, w)["error"])
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, ok, w := decodeBody(`{"county":"Kisumu","ward":"x"}`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure keeps the domain code", func(t *testing.T) {
		_, ok, w := decodeBody(`{"county":"   "}`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "county is required", body["error_description"])
	})
}
