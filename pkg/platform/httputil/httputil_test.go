package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bookerregistry/pkg/domain-errors"
)

type violationErr struct {
	codes []string
}

func (e *violationErr) Error() string        { return "violations" }
func (e *violationErr) Violations() []string { return e.codes }

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "invalid input", body["error_description"])
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, fmt.Errorf("boom"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("violations are listed", func(t *testing.T) {
		w := httptest.NewRecorder()
		inner := &violationErr{codes: []string{"A", "B"}}
		WriteError(w, dErrors.Wrap(inner, dErrors.CodeValidation, "request rejected"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, []any{"A", "B"}, body["violations"])
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeValidation:  http.StatusBadRequest,
		dErrors.CodeNotFound:    http.StatusNotFound,
		dErrors.CodeConflict:    http.StatusConflict,
		dErrors.CodeUnavailable: http.StatusServiceUnavailable,
		dErrors.CodeTimeout:     http.StatusGatewayTimeout,
		dErrors.CodeForbidden:   http.StatusForbidden,
		dErrors.CodeInternal:    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(code), code)
	}
}
