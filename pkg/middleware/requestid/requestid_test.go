package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var fromGin, fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, fromGin, fromCtx
}

func TestMiddlewareKeepsValidID(t *testing.T) {
	id := uuid.NewString()
	rec, fromGin, fromCtx := serve(t, id)

	assert.Equal(t, id, rec.Header().Get(Header))
	assert.Equal(t, id, fromGin)
	assert.Equal(t, id, fromCtx)
}

func TestMiddlewareReplacesInvalidID(t *testing.T) {
	rec, fromGin, fromCtx := serve(t, "not-a-uuid")

	got := rec.Header().Get(Header)
	require.NotEqual(t, "not-a-uuid", got)
	_, err := uuid.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, got, fromGin)
	assert.Equal(t, got, fromCtx)
}
