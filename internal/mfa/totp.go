package mfa

import (
	"context"
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
)

// TOTPSource computes time-based one-time passwords from a base32 shared
// secret: 6 digits at a 30-second period.
type TOTPSource struct {
	secret string
	now    func() time.Time
}

// NewTOTP creates a TOTP source from a base32 shared secret.
func NewTOTP(secret string) (*TOTPSource, error) {
	if secret == "" {
		return nil, fmt.Errorf("empty TOTP shared secret")
	}
	return &TOTPSource{secret: secret, now: time.Now}, nil
}

func (s *TOTPSource) Code(ctx context.Context) (string, error) {
	code, err := totp.GenerateCode(s.secret, s.now())
	if err != nil {
		return "", fmt.Errorf("generating TOTP code: %w", err)
	}
	return code, nil
}
