package browser

import "fmt"

// SignInError means the sign-in state machine ended in failure. It carries
// the URL the browser was on and the underlying cause.
type SignInError struct {
	URL   string
	State string
	Err   error
}

func (e *SignInError) Error() string {
	return fmt.Sprintf("sign-in failed in state %s at %s: %v", e.State, e.URL, e.Err)
}

func (e *SignInError) Unwrap() error { return e.Err }

// MFAReason distinguishes why multi-factor authentication failed.
type MFAReason string

const (
	// MFAReasonRequired: an MFA screen appeared but no method is configured.
	MFAReasonRequired MFAReason = "required"
	// MFAReasonRejected: the submitted code did not advance the sign-in.
	MFAReasonRejected MFAReason = "rejected"
)

// MFAError is a multi-factor authentication failure.
type MFAError struct {
	Reason MFAReason
	Detail string
}

func (e *MFAError) Error() string {
	switch e.Reason {
	case MFAReasonRequired:
		if e.Detail != "" {
			return "multi-factor authentication required: " + e.Detail
		}
		return "multi-factor authentication required but no method configured"
	case MFAReasonRejected:
		if e.Detail != "" {
			return "multi-factor code rejected: " + e.Detail
		}
		return "multi-factor code rejected"
	}
	return "multi-factor authentication failed"
}

// StaleDataError means the post-login sync banner never reported a complete
// account refresh and the caller asked to fail on that.
type StaleDataError struct {
	Status string
}

func (e *StaleDataError) Error() string {
	if e.Status == "" {
		return "account data is stale: refresh status never appeared"
	}
	return fmt.Sprintf("account data is stale: refresh status %q", e.Status)
}
