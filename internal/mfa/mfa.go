// Package mfa provides the multi-factor code sources used during sign-in:
// a TOTP generator, an IMAP inbox poller, and an interactive prompt.
package mfa

import "context"

// Method identifies how the user receives multi-factor codes.
type Method string

const (
	MethodSoftToken Method = "soft-token"
	MethodEmail     Method = "email"
	MethodSMS       Method = "sms"
)

// Source produces a 6-digit verification code on demand.
type Source interface {
	Code(ctx context.Context) (string, error)
}
