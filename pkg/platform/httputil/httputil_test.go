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

	dErrors "homeloan/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok)
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, io.ErrUnexpectedEOF)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("domain codes map to statuses", func(t *testing.T) {
		cases := map[dErrors.Code]int{
			dErrors.CodeValidation:           http.StatusBadRequest,
			dErrors.CodeInvalidTransition:    http.StatusConflict,
			dErrors.CodeReviewerMismatch:     http.StatusForbidden,
			dErrors.CodeUnknownPeriod:        http.StatusUnprocessableEntity,
			dErrors.CodeDuplicateOrigination: http.StatusConflict,
			dErrors.CodeConcurrencyConflict:  http.StatusConflict,
			dErrors.CodeNotFound:             http.StatusNotFound,
			dErrors.CodeUnauthorized:         http.StatusUnauthorized,
			dErrors.CodeTimeout:              http.StatusGatewayTimeout,
		}
		for code, status := range cases {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(code, "msg"))
			assert.Equal(t, status, w.Code, string(code))

			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, string(code), body["error"])
			assert.Equal(t, "msg", body["error_description"])
		}
	})
}

type sampleRequest struct {
	Name  string   `json:"name"`
	Notes []string `json:"notes"`
}

func (r *sampleRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("trims and validates", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  ada ","notes":[" a "]}`))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "ada", req.Name)
		assert.Equal(t, []string{"a"}, req.Notes)
	})

	t.Run("validation failure writes 400", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-2")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed JSON writes bad_request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-3")
		require.False(t, ok)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "bad_request", body["error"])
	})
}
