package usecase

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/teleauth/internal/identity/outbound/memory"
	"github.com/shandysiswandi/teleauth/internal/pkg/clock"
	"github.com/shandysiswandi/teleauth/internal/pkg/config"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/jwt"
	"github.com/shandysiswandi/teleauth/internal/pkg/mfa"
	"github.com/shandysiswandi/teleauth/internal/pkg/otp"
	"github.com/shandysiswandi/teleauth/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakePublisher struct {
	events []TelegramUpdateEvent
	err    error
}

func (f *fakePublisher) PublishTelegramUpdate(_ context.Context, msg TelegramUpdateEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, msg)
	return nil
}

type fakeRevocation struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (f *fakeRevocation) Revoke(_ context.Context, jti string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = until
	return nil
}

func (f *fakeRevocation) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[jti]
	return ok, nil
}

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() int64 { return s.n.Add(1) }

type seqJTI struct{ n atomic.Int64 }

func (s *seqJTI) Generate() string { return fmt.Sprintf("jti-%d", s.n.Add(1)) }

// fixedCode hands out the same messenger code every time.
type fixedCode string

func (f fixedCode) NewCode() (string, error) { return string(f), nil }

// seqCode hands out its codes in order, repeating the last one.
type seqCode struct {
	codes []string
	n     atomic.Int64
}

func (s *seqCode) NewCode() (string, error) {
	i := int(s.n.Add(1)) - 1
	if i >= len(s.codes) {
		i = len(s.codes) - 1
	}
	return s.codes[i], nil
}

type harness struct {
	uc     *Usecase
	store  *memory.Store
	sender *fakeSender
	pub    *fakePublisher
	rev    *fakeRevocation
	clk    *clock.Frozen
	totp   *otp.TOTP
	jwt    *jwt.Symmetric
}

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

const messengerCode = "481516"

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithCodes(t, fixedCode(messengerCode))
}

func newHarnessWithCodes(t *testing.T, codes otp.CodeGenerator) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: teleauth-test\n"))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFrozen(t0)
	totp := otp.NewTOTP("teleauth", 300, 1, 6)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret: bytes.Repeat([]byte("s"), 64),
		Issuer: "teleauth",
		TTL:    15 * time.Minute,
		Clock:  clk,
		UUID:   &seqJTI{},
	})
	require.NoError(t, err)

	h := &harness{
		store:  memory.New(),
		sender: &fakeSender{},
		pub:    &fakePublisher{},
		rev:    &fakeRevocation{revoked: map[string]time.Time{}},
		clk:    clk,
		totp:   totp,
		jwt:    signer,
	}

	h.uc = New(Dependency{
		RepoDB:        h.store,
		RepoMessaging: h.pub,
		RepoTelegram:  h.sender,
		Idempotency:   idempotency.NewMemory(),
		Validator:     v,
		Config:        cfg,
		MFAEncryptor:  mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{7}, 32)}),
		UID:           &seqID{},
		Totp:          totp,
		OTPCode:       codes,
		Clock:         clk,
		JWT:           signer,
		Revocation:    h.rev,
		Instrument:    instrument.NewNoop(),
		BotUsername:   "teleauth_bot",
	})

	return h
}

func (h *harness) register(t *testing.T, email, handle string) *RegisterOutput {
	t.Helper()
	out, err := h.uc.Register(context.Background(), RegisterInput{
		FirstName:      "Ann",
		LastName:       "Lee",
		Email:          email,
		TelegramHandle: handle,
	})
	require.NoError(t, err)
	return out
}

func (h *harness) link(t *testing.T, handle string, chatID int64) {
	t.Helper()
	out, err := h.uc.Link(context.Background(), LinkInput{Handle: handle, ChatID: chatID})
	require.NoError(t, err)
	require.Equal(t, "success", out.Result.String())
}

func (h *harness) totpCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := h.totp.GenerateCode(secret, h.clk.Now())
	require.NoError(t, err)
	return code
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, code, gerr.Code())
}

// flip returns a code guaranteed to differ from c.
func flip(c string) string {
	b := []byte(c)
	b[0] = '0' + (b[0]-'0'+1)%10
	return string(b)
}
