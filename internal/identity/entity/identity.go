package entity

import (
	"strings"
	"time"
)

// Identity is a registered account together with its Telegram channel and
// the pending messenger OTP, if any.
type Identity struct {
	ID             int64
	Email          string
	FirstName      string
	LastName       string
	Linked         bool
	TelegramHandle string
	ChatID         *int64
	Secret         []byte // encrypted TOTP seed
	CurrentOTP     string
	OTPExpiresAt   *time.Time
	CreatedAt      time.Time
}

// HasLiveOTP reports whether a dispatched code exists and has not reached its
// expiry. A code expiring exactly at now is already dead.
func (i Identity) HasLiveOTP(now time.Time) bool {
	return i.CurrentOTP != "" && i.OTPExpiresAt != nil && now.Before(*i.OTPExpiresAt)
}

// LinkedTo reports whether the identity is bound to chatID.
func (i Identity) LinkedTo(chatID int64) bool {
	return i.ChatID != nil && *i.ChatID == chatID
}

type NewIdentity struct {
	ID             int64
	Email          string
	FirstName      string
	LastName       string
	TelegramHandle string
	Secret         []byte
	CreatedAt      time.Time
}

// NormalizeHandle strips surrounding spaces and a leading '@'. Case is kept;
// stores compare handles case-insensitively.
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}
