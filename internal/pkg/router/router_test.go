package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/teleauth/internal/pkg/config"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/jwt"
	"github.com/shandysiswandi/teleauth/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJWT struct{}

func (stubJWT) Generate(int64, string) (string, error) { return "", nil }

func (stubJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" && token != "revoked" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	c := jwt.Claims{IdentityID: 7, Email: "ada@example.com"}
	c.ID = token
	return c, nil
}

type stubRevocation struct{}

func (stubRevocation) Revoke(context.Context, string, time.Time) error { return nil }

func (stubRevocation) IsRevoked(_ context.Context, jti string) (bool, error) {
	return jti == "revoked", nil
}

type idGen struct{}

func (idGen) Generate() string { return "generated-cid" }

type created struct {
	Name string `json:"name"`
}

func (created) StatusCode() int { return http.StatusCreated }
func (created) Message() string { return "created" }

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  maintenance:
    endpoints: "/api/v1/frozen"
instrument:
  log_mask_fields: "secret"
`))
	require.NoError(t, err)

	r := NewRouter(Config{
		Config:     cfg,
		UUID:       idGen{},
		JWT:        stubJWT{},
		Revocation: stubRevocation{},
		Instrument: instrument.NewNoop(),
	})

	r.Public(http.MethodPost, "/api/v1/open", "/api/v1/frozen", "/api/v1/panic", "/api/v1/fail", "/api/v1/invalid")
	r.POST("/api/v1/open", func(req *Request) (any, error) {
		var body created
		if err := req.DecodeBody(&body); err != nil {
			return nil, err
		}
		return body, nil
	})
	r.POST("/api/v1/frozen", func(*Request) (any, error) { return nil, nil })
	r.POST("/api/v1/panic", func(*Request) (any, error) { panic("boom") })
	r.POST("/api/v1/fail", func(*Request) (any, error) { return nil, errors.New("raw") })
	r.POST("/api/v1/invalid", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(validator.V10ValidationError{"email": "email is required"})
	})
	r.GET("/api/v1/me", func(req *Request) (any, error) {
		return map[string]string{"email": jwt.GetAuth(req.Context()).Email}, nil
	})

	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t)

	t.Run("health is public", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "generated-cid", rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("success envelope with custom status and message", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/open", `{"name":"x"}`, map[string]string{HeaderCorrelationID: "abc"})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "abc", rec.Header().Get(HeaderCorrelationID))
		body := decode(t, rec)
		assert.Equal(t, "created", body["message"])
		assert.Equal(t, map[string]any{"name": "x"}, body["data"])
	})

	t.Run("unknown field is invalid format", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/open", `{"name":"x","extra":1}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation errors carry field map", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/invalid", ``, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, map[string]any{"email": "email is required"}, decode(t, rec)["error"])
	})

	t.Run("unclassified error is hidden", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/fail", ``, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", decode(t, rec)["message"])
	})

	t.Run("panic is recovered", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/panic", ``, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("maintenance", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/api/v1/frozen", ``, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("auth required", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/api/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("auth invalid token", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/api/v1/me", "", map[string]string{"Authorization": "Bearer bad"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("auth revoked token", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/api/v1/me", "", map[string]string{"Authorization": "Bearer revoked"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("auth ok", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/api/v1/me", "", map[string]string{"Authorization": "bearer good"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"email": "ada@example.com"}, decode(t, rec)["data"])
	})

	t.Run("not found", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", realIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", realIP(req))

	req.Header.Set("X-Real-IP", "not-an-ip")
	assert.Equal(t, "203.0.113.9", realIP(req))
}

func TestNormalizeCorrelationID(t *testing.T) {
	assert.Empty(t, NormalizeCorrelationID("a\r\nb"))
	assert.Equal(t, "abc", NormalizeCorrelationID("  abc "))
	assert.Len(t, NormalizeCorrelationID(strings.Repeat("x", 300)), 128)
}
