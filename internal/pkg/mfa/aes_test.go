package mfa

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESGCMEncryptor(t *testing.T) {
	enc := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{7}, 32)})
	scope := Scope{IdentityID: 1, Purpose: PurposeTOTPSeed}

	box, err := enc.Encrypt([]byte("JBSWY3DPEHPK3PXP"), scope)
	require.NoError(t, err)
	assert.NotContains(t, string(box), "JBSWY3DPEHPK3PXP")

	t.Run("round trip", func(t *testing.T) {
		plain, err := enc.Decrypt(box, scope)
		require.NoError(t, err)
		assert.Equal(t, "JBSWY3DPEHPK3PXP", string(plain))
	})

	t.Run("bound to identity", func(t *testing.T) {
		_, err := enc.Decrypt(box, Scope{IdentityID: 2, Purpose: PurposeTOTPSeed})
		assert.ErrorIs(t, err, ErrDecryptFailed)
	})

	t.Run("tampered", func(t *testing.T) {
		bad := append([]byte(nil), box...)
		bad[len(bad)-1] ^= 1
		_, err := enc.Decrypt(bad, scope)
		assert.ErrorIs(t, err, ErrDecryptFailed)
	})

	t.Run("too short and wrong version", func(t *testing.T) {
		_, err := enc.Decrypt(box[:10], scope)
		assert.ErrorIs(t, err, ErrCiphertextTooShort)

		bad := append([]byte(nil), box...)
		bad[1] = 9
		_, err = enc.Decrypt(bad, scope)
		assert.ErrorIs(t, err, ErrUnsupportedCiphertextVersion)
	})

	t.Run("config errors", func(t *testing.T) {
		_, err := enc.Encrypt(nil, scope)
		assert.ErrorIs(t, err, ErrPlaintextEmpty)

		_, err = NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: []byte("short")}).Encrypt([]byte("x"), scope)
		assert.ErrorIs(t, err, ErrInvalidKeyLength)

		_, err = NewAESGCMEncryptor(StaticKeyProvider{}).Encrypt([]byte("x"), scope)
		assert.ErrorIs(t, err, ErrMissingStaticKey)
	})
}
