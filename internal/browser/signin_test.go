package browser

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/mintgrab/mintgrab/internal/api"
	"github.com/mintgrab/mintgrab/internal/mfa"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

// scriptedDriver fakes the DOM: a test scripts which selectors each page
// serves and what each click does.
type scriptedDriver struct {
	url     string
	page    map[string]bool
	typed   map[string]string
	clicked []string

	// redirect models a live session cookie: any navigation lands on this
	// URL instead of the requested one.
	redirect string

	apiKey   string
	syncText string
	cookies  []*http.Cookie

	onClick   func(d *scriptedDriver, selector string)
	onPresent func(d *scriptedDriver, selector string)
}

func newScriptedDriver() *scriptedDriver {
	return &scriptedDriver{typed: map[string]string{}, page: map[string]bool{}}
}

func (d *scriptedDriver) serve(selectors ...string) {
	d.page = map[string]bool{}
	for _, sel := range selectors {
		d.page[sel] = true
	}
}

func (d *scriptedDriver) Navigate(url string) error {
	d.url = url
	if d.redirect != "" {
		d.url = d.redirect
	}
	return nil
}

func (d *scriptedDriver) CurrentURL() (string, error) { return d.url, nil }

func (d *scriptedDriver) Present(selector string) bool {
	if d.onPresent != nil {
		d.onPresent(d, selector)
	}
	return d.page[selector]
}

func (d *scriptedDriver) Click(selector string) error {
	d.clicked = append(d.clicked, selector)
	if d.onClick != nil {
		d.onClick(d, selector)
	}
	return nil
}

func (d *scriptedDriver) SendKeys(selector, text string) error {
	d.typed[selector] = text
	return nil
}

func (d *scriptedDriver) Text(selector string) (string, error) { return d.syncText, nil }

func (d *scriptedDriver) Eval(js string, out any) error {
	switch v := out.(type) {
	case *string:
		*v = d.apiKey
	case *bool:
		*v = true
	}
	return nil
}

func (d *scriptedDriver) Cookies() ([]*http.Cookie, error) { return d.cookies, nil }

func (d *scriptedDriver) Close() error { return nil }

func TestSignIn_SoftTokenFlow(t *testing.T) {
	d := newScriptedDriver()
	d.apiKey = "captured-key"
	d.cookies = []*http.Cookie{{Name: "mint-session", Value: "xyz", Domain: ".intuit.com"}}
	d.serve(`a[data-identifier="sign-in"]`)
	d.onClick = func(d *scriptedDriver, selector string) {
		switch selector {
		case `a[data-identifier="sign-in"]`:
			d.serve("#ius-userid", "#ius-identifier-first-submit-btn")
		case "#ius-identifier-first-submit-btn":
			d.serve("#ius-password", "#ius-sign-in-submit-btn")
		case "#ius-sign-in-submit-btn":
			d.serve("#ius-mfa-confirm-code", "#ius-mfa-otp-submit-btn")
		case "#ius-mfa-otp-submit-btn":
			code := d.typed["#ius-mfa-confirm-code"]
			if !totp.Validate(code, testTOTPSecret) {
				return
			}
			d.serve()
			d.url = api.OverviewURL
		}
	}

	creds := Credentials{
		Email:      "user@example.com",
		Password:   "hunter2",
		MFAMethod:  mfa.MethodSoftToken,
		TOTPSecret: testTOTPSecret,
	}
	result, err := SignIn(context.Background(), d, creds, SignInOptions{Deadline: 30 * time.Second})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if result.APIKey != "captured-key" {
		t.Errorf("APIKey = %q, want captured-key", result.APIKey)
	}
	if len(result.Cookies) != 1 || result.Cookies[0].Name != "mint-session" {
		t.Errorf("Cookies = %v, want the browser cookie", result.Cookies)
	}
	if d.typed["#ius-userid"] != "user@example.com" {
		t.Errorf("typed email = %q", d.typed["#ius-userid"])
	}
	if d.typed["#ius-password"] != "hunter2" {
		t.Errorf("typed password = %q", d.typed["#ius-password"])
	}
	if code := d.typed["#ius-mfa-confirm-code"]; !totp.Validate(code, testTOTPSecret) {
		t.Errorf("typed MFA code %q is not a valid token", code)
	}
}

func TestSignIn_SelectorFallback(t *testing.T) {
	// An alternate generation of the flow: the user id field appears under its
	// second known selector.
	d := newScriptedDriver()
	d.apiKey = "k"
	d.serve("#ius-identifier", "#ius-sign-in-submit-btn")
	d.onClick = func(d *scriptedDriver, selector string) {
		if selector == "#ius-sign-in-submit-btn" {
			d.serve()
			d.url = api.OverviewURL
		}
	}

	_, err := SignIn(context.Background(), d, Credentials{Email: "user@example.com"},
		SignInOptions{Deadline: 10 * time.Second})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if d.typed["#ius-identifier"] != "user@example.com" {
		t.Errorf("email typed into %v, want #ius-identifier", d.typed)
	}
}

func TestSignIn_MFARequired(t *testing.T) {
	d := newScriptedDriver()
	d.serve("#ius-mfa-options-form")

	_, err := SignIn(context.Background(), d, Credentials{Email: "user@example.com"},
		SignInOptions{Deadline: 10 * time.Second})

	var signInErr *SignInError
	if !errors.As(err, &signInErr) {
		t.Fatalf("err = %v, want *SignInError", err)
	}
	if signInErr.State != "mfa-choose" {
		t.Errorf("State = %q, want mfa-choose", signInErr.State)
	}
	var mfaErr *MFAError
	if !errors.As(err, &mfaErr) {
		t.Fatalf("err = %v, want wrapped *MFAError", err)
	}
	if mfaErr.Reason != MFAReasonRequired {
		t.Errorf("Reason = %q, want %q", mfaErr.Reason, MFAReasonRequired)
	}
}

func TestSignIn_MFAMethodNotOffered(t *testing.T) {
	// The options form is present but the configured method is not among them.
	d := newScriptedDriver()
	d.serve("#ius-mfa-options-form")

	creds := Credentials{Email: "u@e.com", MFAMethod: mfa.MethodSoftToken, TOTPSecret: testTOTPSecret}
	_, err := SignIn(context.Background(), d, creds, SignInOptions{Deadline: 10 * time.Second})

	var mfaErr *MFAError
	if !errors.As(err, &mfaErr) {
		t.Fatalf("err = %v, want *MFAError", err)
	}
	if mfaErr.Reason != MFAReasonRequired || !strings.Contains(mfaErr.Detail, "not offered") {
		t.Errorf("got %+v, want required/not offered", mfaErr)
	}
}

func TestSignIn_MFACodeRejected(t *testing.T) {
	// The code entry screen never goes away: every submitted code is rejected.
	saved := codeRetryDelay
	codeRetryDelay = 0
	t.Cleanup(func() { codeRetryDelay = saved })

	d := newScriptedDriver()
	d.serve("#ius-mfa-confirm-code", "#ius-mfa-otp-submit-btn")

	prompt := &mfa.PromptSource{In: strings.NewReader("111111\n222222\n333333\n444444\n"), Out: io.Discard}
	creds := Credentials{Email: "u@e.com", MFAMethod: mfa.MethodSMS}
	_, err := SignIn(context.Background(), d, creds,
		SignInOptions{Deadline: 30 * time.Second, Prompt: prompt})

	var mfaErr *MFAError
	if !errors.As(err, &mfaErr) {
		t.Fatalf("err = %v, want *MFAError", err)
	}
	if mfaErr.Reason != MFAReasonRejected {
		t.Errorf("Reason = %q, want %q", mfaErr.Reason, MFAReasonRejected)
	}
	if got := len(d.clicked); got != 3 {
		t.Errorf("submit clicks = %d, want one per allowed try", got)
	}
}

func TestSignIn_SingleCodeSubmitDuringSlowTransition(t *testing.T) {
	// The page keeps serving the code field for a few polls after the submit
	// before moving to the overview. That must not count as rejections.
	d := newScriptedDriver()
	d.apiKey = "k"
	d.serve("#ius-mfa-confirm-code", "#ius-mfa-otp-submit-btn")

	submits := 0
	d.onClick = func(d *scriptedDriver, selector string) {
		if selector == "#ius-mfa-otp-submit-btn" {
			submits++
		}
	}
	probes := 0
	d.onPresent = func(d *scriptedDriver, selector string) {
		if selector != "#ius-mfa-confirm-code" || submits == 0 {
			return
		}
		probes++
		if probes >= 3 {
			d.serve()
			d.url = api.OverviewURL
		}
	}

	creds := Credentials{Email: "u@e.com", MFAMethod: mfa.MethodSoftToken, TOTPSecret: testTOTPSecret}
	_, err := SignIn(context.Background(), d, creds, SignInOptions{Deadline: 30 * time.Second})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if submits != 1 {
		t.Errorf("code submits = %d, want 1", submits)
	}
}

func TestSignIn_ContextCanceled(t *testing.T) {
	d := newScriptedDriver()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SignIn(ctx, d, Credentials{}, SignInOptions{})
	var signInErr *SignInError
	if !errors.As(err, &signInErr) {
		t.Fatalf("err = %v, want *SignInError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want wrapped context.Canceled", err)
	}
}

func TestSignIn_NoAPIKeyOnOverview(t *testing.T) {
	d := newScriptedDriver()
	d.redirect = api.OverviewURL

	_, err := SignIn(context.Background(), d, Credentials{}, SignInOptions{Deadline: 5 * time.Second})
	if err == nil {
		t.Fatal("want error when the page exposes no API key")
	}
	var signInErr *SignInError
	if !errors.As(err, &signInErr) {
		t.Fatalf("err = %v, want *SignInError", err)
	}
}

func TestWaitForSync(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		d := newScriptedDriver()
		d.redirect = api.OverviewURL
		d.apiKey = "k"
		d.serve(".SummaryView .message")
		d.syncText = "Account refresh complete"

		result, err := SignIn(context.Background(), d, Credentials{},
			SignInOptions{Deadline: 10 * time.Second, WaitForSync: true, WaitForSyncTimeout: 10 * time.Second})
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if result.StatusMessage != "Account refresh complete" {
			t.Errorf("StatusMessage = %q", result.StatusMessage)
		}
	})

	t.Run("stale is fatal when asked", func(t *testing.T) {
		d := newScriptedDriver()
		d.redirect = api.OverviewURL
		d.apiKey = "k"
		d.serve(".SummaryView .message")
		d.syncText = "Refreshing account 2 of 5..."

		_, err := SignIn(context.Background(), d, Credentials{}, SignInOptions{
			Deadline: 30 * time.Second, WaitForSync: true,
			WaitForSyncTimeout: 100 * time.Millisecond, FailIfStale: true,
		})
		var staleErr *StaleDataError
		if !errors.As(err, &staleErr) {
			t.Fatalf("err = %v, want *StaleDataError", err)
		}
		if staleErr.Status != "Refreshing account 2 of 5..." {
			t.Errorf("Status = %q", staleErr.Status)
		}
	})

	t.Run("stale is tolerated by default", func(t *testing.T) {
		d := newScriptedDriver()
		d.redirect = api.OverviewURL
		d.apiKey = "k"
		d.serve(".SummaryView .message")
		d.syncText = "Refreshing account 2 of 5..."

		result, err := SignIn(context.Background(), d, Credentials{}, SignInOptions{
			Deadline: 30 * time.Second, WaitForSync: true,
			WaitForSyncTimeout: 100 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if result.StatusMessage != "Refreshing account 2 of 5..." {
			t.Errorf("StatusMessage = %q", result.StatusMessage)
		}
	})

	t.Run("canceled mid-wait", func(t *testing.T) {
		d := newScriptedDriver()
		d.redirect = api.OverviewURL
		d.apiKey = "k"
		d.serve(".SummaryView .message")
		d.syncText = "Refreshing account 2 of 5..."

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err := SignIn(ctx, d, Credentials{}, SignInOptions{
			Deadline: 30 * time.Second, WaitForSync: true,
			WaitForSyncTimeout: 30 * time.Second,
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("err = %v, want wrapped context.DeadlineExceeded", err)
		}
		var signInErr *SignInError
		if !errors.As(err, &signInErr) {
			t.Errorf("err = %v, want *SignInError", err)
		}
	})
}
