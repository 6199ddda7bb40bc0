package entity

import "errors"

var (
	ErrConflict       = errors.New("identity: email or telegram handle already registered")
	ErrNotFound       = errors.New("identity: not found")
	ErrNotLinked      = errors.New("identity: telegram account not linked")
	ErrOtpExpired     = errors.New("identity: otp absent or expired")
	ErrInvalidOtp     = errors.New("identity: otp mismatch")
	ErrDispatchFailed = errors.New("identity: otp delivery failed")
)

// Rejection carries the reason a login attempt was rejected through
// ConsumeIdentityOTP back to the caller.
type Rejection struct {
	Reason RejectReason
}

func (r *Rejection) Error() string {
	return "login rejected: " + r.Reason.String()
}

func (r *Rejection) Unwrap() error {
	return r.Reason.Err()
}
