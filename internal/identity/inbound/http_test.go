package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/identity/usecase"
	"github.com/shandysiswandi/teleauth/internal/pkg/config"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/jwt"
	"github.com/shandysiswandi/teleauth/internal/pkg/router"
	"github.com/shandysiswandi/teleauth/internal/pkg/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	otpEmails []string
	forwarded []usecase.TelegramUpdateEvent
	handled   []usecase.TelegramUpdateInput
	loginErr  error
	handleErr error
	loggedOut bool
}

func (f *fakeUC) Register(_ context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	return &usecase.RegisterOutput{
		Secret:          "JBSWY3DPEHPK3PXP",
		ProvisioningURI: "otpauth://totp/teleauth:" + in.Email,
		LinkInstruction: "auth " + in.Email,
		BotUsername:     "teleauth_bot",
	}, nil
}

func (f *fakeUC) RequestOTP(_ context.Context, in usecase.RequestOTPInput) error {
	f.otpEmails = append(f.otpEmails, in.Email)
	return nil
}

func (f *fakeUC) Login(_ context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &usecase.LoginOutput{AccessToken: "token-for-" + in.Email}, nil
}

func (f *fakeUC) Logout(ctx context.Context) error {
	f.loggedOut = jwt.GetAuth(ctx) != nil
	return nil
}

func (f *fakeUC) Profile(ctx context.Context) (*usecase.ProfileOutput, error) {
	clm := jwt.GetAuth(ctx)
	return &usecase.ProfileOutput{
		ID:           clm.IdentityID,
		Email:        clm.Email,
		FirstName:    "Ann",
		Linked:       true,
		GravatarHash: "257c57037d384ae37ea27a07e8a01665",
		CreatedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeUC) ForwardTelegramUpdate(_ context.Context, in usecase.TelegramUpdateEvent) error {
	f.forwarded = append(f.forwarded, in)
	return nil
}

func (f *fakeUC) HandleTelegramUpdate(_ context.Context, in usecase.TelegramUpdateInput) error {
	f.handled = append(f.handled, in)
	return f.handleErr
}

type stubJWT struct{}

func (stubJWT) Generate(int64, string) (string, error) { return "", nil }

func (stubJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	c := jwt.Claims{IdentityID: 7, Email: "ann@example.com"}
	c.ID = "jti-7"
	return c, nil
}

type cidGen struct{}

func (cidGen) Generate() string { return "cid" }

func newTestServer(t *testing.T, uc *fakeUC) http.Handler {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: teleauth-test\n"))
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       cidGen{},
		JWT:        stubJWT{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, uc, true, "hook-secret")

	return r
}

func do(h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	//nolint:errcheck // empty bodies are fine
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHTTPEndpoint_Register(t *testing.T) {
	srv := newTestServer(t, &fakeUC{})

	rec, body := do(srv, http.MethodPost, "/api/v1/identity/register",
		`{"firstname":"Ann","lastname":"Lee","email":"ann@example.com","telegram_handle":"ann_tg"}`, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", data["secret"])
	assert.Equal(t, "auth ann@example.com", data["link_instruction"])
	assert.Equal(t, "teleauth_bot", data["bot_username"])
}

func TestHTTPEndpoint_RequestOTP(t *testing.T) {
	uc := &fakeUC{}
	srv := newTestServer(t, uc)

	rec, _ := do(srv, http.MethodPost, "/api/v1/identity/otp", `{"email":"ann@example.com"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(srv, http.MethodGet, "/api/v1/identity/otp?email=bob@example.com", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OTP sent to your Telegram account", body["message"])

	assert.Equal(t, []string{"ann@example.com", "bob@example.com"}, uc.otpEmails)
}

func TestHTTPEndpoint_Login(t *testing.T) {
	uc := &fakeUC{}
	srv := newTestServer(t, uc)

	rec, body := do(srv, http.MethodPost, "/api/v1/identity/login",
		`{"email":"ann@example.com","messenger_otp":"481516","totp_code":"123456"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "token-for-ann@example.com", body["data"].(map[string]any)["access_token"])

	uc.loginErr = goerror.NewBusinessWrap(&entity.Rejection{Reason: entity.RejectReasonInvalidOtp}, "Invalid or expired code", goerror.CodeUnauthorized)
	rec, body = do(srv, http.MethodPost, "/api/v1/identity/login",
		`{"email":"ann@example.com","messenger_otp":"000000","totp_code":"123456"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired code", body["message"])
}

func TestHTTPEndpoint_Session(t *testing.T) {
	uc := &fakeUC{}
	srv := newTestServer(t, uc)

	rec, _ := do(srv, http.MethodGet, "/api/v1/identity/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	auth := map[string]string{"Authorization": "Bearer good"}
	rec, body := do(srv, http.MethodGet, "/api/v1/identity/profile", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "7", data["id"])
	assert.Equal(t, "https://www.gravatar.com/avatar/257c57037d384ae37ea27a07e8a01665", data["gravatar_url"])

	rec, _ = do(srv, http.MethodPost, "/api/v1/identity/logout", "", auth)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, uc.loggedOut)
}

func TestHTTPEndpoint_TelegramWebhook(t *testing.T) {
	update := `{"update_id":42,"message":{"message_id":1,"date":1772359200,"text":"/start",` +
		`"chat":{"id":100,"type":"private"},"from":{"id":100,"is_bot":false,"first_name":"Ann","username":"ann_tg"}}}`

	t.Run("wrong secret", func(t *testing.T) {
		uc := &fakeUC{}
		rec, _ := do(newTestServer(t, uc), http.MethodPost, "/api/v1/telegram/webhook", update,
			map[string]string{telegram.SecretTokenHeader: "nope"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, uc.forwarded)
	})

	t.Run("forwarded", func(t *testing.T) {
		uc := &fakeUC{}
		rec, _ := do(newTestServer(t, uc), http.MethodPost, "/api/v1/telegram/webhook", update,
			map[string]string{telegram.SecretTokenHeader: "hook-secret"})

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, uc.forwarded, 1)
		assert.Equal(t, usecase.TelegramUpdateEvent{
			UpdateID:  42,
			ChatID:    100,
			Username:  "ann_tg",
			FirstName: "Ann",
			Text:      "/start",
			SentAt:    time.Unix(1772359200, 0).UTC(),
		}, uc.forwarded[0])
	})

	t.Run("unset secret rejects forged update", func(t *testing.T) {
		cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: teleauth-test\n"))
		require.NoError(t, err)
		r := router.NewRouter(router.Config{
			Config:     cfg,
			UUID:       cidGen{},
			JWT:        stubJWT{},
			Instrument: instrument.NewNoop(),
		})
		uc := &fakeUC{}
		RegisterHTTPEndpoint(r, uc, true, "")

		forged := `{"update_id":44,"message":{"message_id":1,"date":0,"text":"/auth",` +
			`"chat":{"id":666,"type":"private"},"from":{"id":666,"is_bot":false,"first_name":"Eve","username":"victim_handle"}}}`
		rec, _ := do(r, http.MethodPost, "/api/v1/telegram/webhook", forged, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, uc.forwarded)
	})

	t.Run("non message update is acknowledged", func(t *testing.T) {
		uc := &fakeUC{}
		rec, _ := do(newTestServer(t, uc), http.MethodPost, "/api/v1/telegram/webhook", `{"update_id":43}`,
			map[string]string{telegram.SecretTokenHeader: "hook-secret"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, uc.forwarded)
	})
}
