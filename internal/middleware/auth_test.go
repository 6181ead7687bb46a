package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskhub/internal/pkg/jwt"
	"taskhub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(tokens *jwt.Service, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(tokens)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		a := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": a.UserID, "email": a.Email, "role": a.Role})
	})
	router.GET("/protected", handlers...)
	return router
}

func TestJWTAuth_ValidToken(t *testing.T) {
	tokens := jwt.New("test-secret-123", time.Hour)
	token, err := tokens.GenerateToken(42, "jane@example.com", "customer")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newProtectedRouter(tokens).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 42, body["user_id"])
	assert.Equal(t, "jane@example.com", body["email"])
	assert.Equal(t, "customer", body["role"])
}

func TestJWTAuth_Rejects(t *testing.T) {
	tokens := jwt.New("test-secret-123", time.Hour)
	other, _ := jwt.New("other", time.Hour).GenerateToken(1, "a@b.co", "admin")

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"empty bearer", "Bearer   "},
		{"wrong signature", "Bearer " + other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			newProtectedRouter(tokens).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
		})
	}
}

func TestJWTAuth_QueryTokenOnlyForWebsocket(t *testing.T) {
	tokens := jwt.New("s", time.Hour)
	token, _ := tokens.GenerateToken(7, "t@example.com", "tasker")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	newProtectedRouter(tokens).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	req.Header.Set("Connection", "upgrade")
	req.Header.Set("Upgrade", "websocket")
	newProtectedRouter(tokens).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	tokens := jwt.New("s", time.Hour)
	customer, _ := tokens.GenerateToken(1, "c@example.com", "customer")
	tasker, _ := tokens.GenerateToken(2, "t@example.com", "tasker")
	router := newProtectedRouter(tokens, TaskerOnly())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tasker)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery_ReturnsEnvelopeAndLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf})

	router := gin.New()
	router.Use(RequestID(), Recovery(log))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestLogger(logger.New(logger.Config{Output: &buf})))
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":404`)
}

func TestCORS_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.example"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOptionalAuth(t *testing.T) {
	tokens := jwt.New("test-secret-123", time.Hour)
	router := gin.New()
	router.GET("/maybe", OptionalAuth(tokens), func(c *gin.Context) {
		if a := OptionalActor(c); a != nil {
			c.String(http.StatusOK, a.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	call := func(header string) string {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		return w.Body.String()
	}

	token, _ := tokens.GenerateToken(42, "jane@example.com", "customer")
	assert.Equal(t, "jane@example.com", call("Bearer "+token))
	assert.Equal(t, "anonymous", call(""))
	assert.Equal(t, "anonymous", call("Bearer garbage"))
}

func TestTracing_RecordsServerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	router := gin.New()
	router.Use(Tracing())
	router.GET("/bookings/:id", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bookings/7", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /bookings/:id", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestInternalTokenAuth(t *testing.T) {
	newRouter := func(token string, ips []string) *gin.Engine {
		router := gin.New()
		router.POST("/internal/x", InternalTokenAuth(token, ips, logger.Discard()), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return router
	}
	call := func(router *gin.Engine, header string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/internal/x", nil)
		req.RemoteAddr = "10.0.0.5:1234"
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)
		return w.Code
	}

	open := newRouter("ops-secret", nil)
	assert.Equal(t, http.StatusNoContent, call(open, "Bearer ops-secret"))
	assert.Equal(t, http.StatusForbidden, call(open, "Bearer wrong"))
	assert.Equal(t, http.StatusUnauthorized, call(open, ""))
	assert.Equal(t, http.StatusUnauthorized, call(open, "Basic abc"))

	assert.Equal(t, http.StatusForbidden, call(newRouter("", nil), "Bearer ops-secret"))
	assert.Equal(t, http.StatusForbidden, call(newRouter("ops-secret", []string{"10.0.0.9"}), "Bearer ops-secret"))
	assert.Equal(t, http.StatusNoContent, call(newRouter("ops-secret", []string{"10.0.0.5"}), "Bearer ops-secret"))
}
