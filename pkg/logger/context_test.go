package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFromContextFallsBackToProcessLogger(t *testing.T) {
	assert.Same(t, GetLogger(), FromContext(context.Background()))

	scoped := zap.NewNop().With(zap.String("request_id", "r1"))
	assert.Same(t, scoped, FromContext(WithContext(context.Background(), scoped)))
}

func TestFromEcho(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Same(t, GetLogger(), FromEcho(c))

	scoped := zap.NewNop().With(zap.String("request_id", "r2"))
	c.Set(EchoKey, scoped)
	assert.Same(t, scoped, FromEcho(c))
}
