// Package auth generates time-based one-time passwords for retailer
// logins that challenge with a second factor.
package auth

import (
	"time"

	"github.com/pquerna/otp/totp"
)

// TOTP produces codes from a shared seed.
type TOTP struct {
	secret string
	now    func() time.Time
}

// NewTOTP creates a generator for the given base32 seed.
func NewTOTP(secret string) *TOTP {
	return &TOTP{secret: secret, now: time.Now}
}

// Code returns the one-time password for the current time step.
func (t *TOTP) Code() (string, error) {
	return totp.GenerateCode(t.secret, t.now())
}
