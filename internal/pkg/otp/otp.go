package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultPeriod is the TOTP step used when none is configured.
const DefaultPeriod uint = 300

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates a secret and provisioning URI for an account name.
	Generate(accountName string) (secret string, uri string, err error)
	// Validate checks whether a code is valid at the given time.
	Validate(code, secret string, at time.Time) bool
	// GenerateCode creates a TOTP code for the given secret and time.
	GenerateCode(secret string, at time.Time) (string, error)
}

// TOTP implements OTP with RFC 6238 codes.
//
// Skew counts preceding steps only: a code from the step before the current
// one is still accepted (the user may have read it just before the boundary),
// a code from a future step never is.
type TOTP struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP. A zero period falls back to DefaultPeriod and
// digits other than 6 or 8 fall back to 6.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = DefaultPeriod
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: digits,
	}
}

func (o *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Generate creates a base32 secret and an otpauth:// provisioning URI.
func (o *TOTP) Generate(accountName string) (secret string, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.period,
		SecretSize:  20, // RFC 4226/6238 recommendation
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// Validate reports whether code matches the step containing at, or one of
// the skew steps before it.
func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	if len(code) != o.digits.Length() {
		return false
	}

	step := time.Duration(o.period) * time.Second
	for i := uint(0); i <= o.skew; i++ {
		want, err := totp.GenerateCodeCustom(secret, at.Add(-time.Duration(i)*step), o.opts())
		if err != nil {
			return false
		}
		if Equal(want, code) {
			return true
		}
	}

	return false
}

// GenerateCode creates a TOTP code for the given secret and time.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts())
}
