package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/ekklesia/internal/apperr"
	"gorm.io/gorm"
)

func render(t *testing.T, production bool, err error) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/things", nil), rec)
	ErrorHandler(production)(err, c)
	return rec
}

func TestErrorHandlerKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "validation",
			err:    apperr.Validation("Validation error", apperr.Detail{Path: "name", Message: "Church name too long", Code: "too_big"}),
			status: http.StatusBadRequest,
			body:   `{"error":"Validation error","details":[{"path":"name","message":"Church name too long","code":"too_big"}]}`,
		},
		{
			name:   "validation without details",
			err:    apperr.Validation("Validation error"),
			status: http.StatusBadRequest,
			body:   `{"error":"Validation error","details":[]}`,
		},
		{
			name:   "invariant",
			err:    apperr.Invariant("Cannot delete the root church"),
			status: http.StatusBadRequest,
			body:   `{"error":"Cannot delete the root church"}`,
		},
		{
			name:   "not found",
			err:    apperr.NotFound("Church not found"),
			status: http.StatusNotFound,
			body:   `{"error":"Church not found"}`,
		},
		{
			name:   "conflict",
			err:    apperr.Conflict("A metric with this key already exists"),
			status: http.StatusConflict,
			body:   `{"error":"A metric with this key already exists"}`,
		},
		{
			name:   "wrapped gorm duplicate",
			err:    errors.Wrap(gorm.ErrDuplicatedKey, "insert"),
			status: http.StatusConflict,
			body:   `{"error":"Data conflict","message":"The request could not be processed due to a data conflict"}`,
		},
		{
			name:   "gorm not found",
			err:    gorm.ErrRecordNotFound,
			status: http.StatusNotFound,
			body:   `{"error":"Not found","message":"Resource not found"}`,
		},
		{
			name:   "route not found",
			err:    echo.ErrNotFound,
			status: http.StatusNotFound,
			body:   `{"error":"Not found","message":"Route GET /api/things not found"}`,
		},
		{
			name:   "rate limited",
			err:    echo.ErrTooManyRequests,
			status: http.StatusTooManyRequests,
			body:   `{"error":"Too many requests, please try again later"}`,
		},
		{
			name:   "body too large",
			err:    echo.ErrStatusRequestEntityTooLarge,
			status: http.StatusRequestEntityTooLarge,
			body:   `{"error":"Request Entity Too Large"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := render(t, true, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestErrorHandlerHidesInternalsInProduction(t *testing.T) {
	err := apperr.Internal("Failed to load churches", errors.New("connection refused"))

	rec := render(t, true, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	rec = render(t, false, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), `"stack"`)
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var dest map[string]interface{}
	err := decodeJSON(c, &dest)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
