package instrument

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	keys := MaskKeys([]string{" Secret ", "totp_code", ""})

	got := Mask(map[string]any{
		"email":  "ada@example.com",
		"SECRET": "JBSWY3DPEHPK3PXP",
		"items":  []any{map[string]any{"totp_code": "123456", "n": 1.0}},
	}, keys)

	assert.Equal(t, map[string]any{
		"email":  "ada@example.com",
		"SECRET": "***",
		"items":  []any{map[string]any{"totp_code": "***", "n": 1.0}},
	}, got)
}

func TestMaskJSON(t *testing.T) {
	keys := MaskKeys([]string{"messenger_otp"})

	out, ok := MaskJSON([]byte(`{"email":"a@b.c","messenger_otp":"123456"}`), keys)
	assert.True(t, ok)
	assert.JSONEq(t, `{"email":"a@b.c","messenger_otp":"***"}`, out)

	_, ok = MaskJSON([]byte("plain text"), keys)
	assert.False(t, ok)

	_, ok = MaskJSON([]byte("{broken"), keys)
	assert.False(t, ok)
}

func TestCorrelationID(t *testing.T) {
	ctx := SetCorrelationID(context.Background(), "cid-1")
	assert.Equal(t, "cid-1", GetCorrelationID(ctx))
	assert.Empty(t, GetCorrelationID(context.Background()))
}
