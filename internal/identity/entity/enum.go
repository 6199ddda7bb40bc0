package entity

// LinkResult is the outcome of binding a Telegram chat to an identity.
type LinkResult int

const (
	LinkResultSuccess LinkResult = iota + 1
	LinkResultAlreadyLinked
	LinkResultNotFound
	LinkResultConflict
)

func (r LinkResult) String() string {
	switch r {
	case LinkResultSuccess:
		return "success"
	case LinkResultAlreadyLinked:
		return "already_linked"
	case LinkResultNotFound:
		return "not_found"
	case LinkResultConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Reply is the bot message sent back to the chat for this outcome.
func (r LinkResult) Reply() string {
	switch r {
	case LinkResultSuccess:
		return "Account linked successfully"
	case LinkResultAlreadyLinked:
		return "You are already linked"
	case LinkResultConflict:
		return "Account already linked to another user"
	default:
		return "Account not found"
	}
}

// LoginState tracks a login attempt. Attempts start Pending and end either
// Verified or Rejected.
type LoginState int

const (
	LoginStatePending LoginState = iota
	LoginStateVerified
	LoginStateRejected
)

func (s LoginState) String() string {
	switch s {
	case LoginStateVerified:
		return "verified"
	case LoginStateRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// RejectReason says why a login attempt was Rejected.
type RejectReason int

const (
	RejectReasonNone RejectReason = iota
	RejectReasonUserNotFound
	RejectReasonNotLinked
	RejectReasonOtpExpired
	RejectReasonInvalidOtp
)

func (r RejectReason) String() string {
	switch r {
	case RejectReasonUserNotFound:
		return "user_not_found"
	case RejectReasonNotLinked:
		return "not_linked"
	case RejectReasonOtpExpired:
		return "otp_expired"
	case RejectReasonInvalidOtp:
		return "invalid_otp"
	default:
		return "none"
	}
}

// Err maps a reject reason to its sentinel error.
func (r RejectReason) Err() error {
	switch r {
	case RejectReasonUserNotFound:
		return ErrNotFound
	case RejectReasonNotLinked:
		return ErrNotLinked
	case RejectReasonOtpExpired:
		return ErrOtpExpired
	case RejectReasonInvalidOtp:
		return ErrInvalidOtp
	default:
		return nil
	}
}
