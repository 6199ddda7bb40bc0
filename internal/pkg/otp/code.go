package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"strconv"
)

// CodeGenerator mints the random codes pushed to a user over a side channel.
type CodeGenerator interface {
	NewCode() (string, error)
}

// NumericCode draws codes uniformly from [Min, Max] using crypto/rand.
type NumericCode struct {
	Min int64
	Max int64
}

// NewSixDigit returns a generator for codes in [100000, 999999].
func NewSixDigit() *NumericCode {
	return &NumericCode{Min: 100000, Max: 999999}
}

func (n *NumericCode) NewCode() (string, error) {
	if n.Max < n.Min {
		return "", errors.New("otp: invalid code range")
	}

	v, err := rand.Int(rand.Reader, big.NewInt(n.Max-n.Min+1))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(v.Int64()+n.Min, 10), nil
}

// Equal compares two codes in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
