package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mintgrab/mintgrab/internal/api"
	"github.com/mintgrab/mintgrab/internal/mfa"
)

// Credentials is the immutable sign-in bundle. Read once during sign-in,
// never persisted.
type Credentials struct {
	Email    string
	Password string

	MFAMethod  mfa.Method
	TOTPSecret string
	Mailbox    *mfa.MailboxConfig

	// IntuitAccount selects a sub-account when the login offers several.
	IntuitAccount string
}

// SignInOptions tune the sign-in state machine.
type SignInOptions struct {
	// Deadline bounds the whole sign-in. Defaults to 5 minutes.
	Deadline time.Duration
	// Prompt is the interactive fallback for SMS and unconfigured MFA.
	Prompt mfa.Source

	WaitForSync        bool
	WaitForSyncTimeout time.Duration
	FailIfStale        bool
}

// Result is the captured session after a successful sign-in.
type Result struct {
	APIKey        string
	Cookies       []*http.Cookie
	StatusMessage string
}

// Selector try-sequences. The service has served several generations of its
// sign-in flow; each probe walks the list in order and the first hit wins.
var (
	signInButtonSelectors = []string{
		`a[data-identifier="sign-in"]`,
		`a[href*="auth.intuit.com"]`,
		`#signIn`,
	}
	userIDSelectors = []string{
		"#ius-userid",
		"#ius-identifier",
		"#ius-option-username",
		`input[name="Email"]`,
	}
	userIDSubmitSelectors = []string{
		"#ius-identifier-first-submit-btn",
		"#ius-sign-in-submit-btn",
		`button[data-testid="IdentifierFirstSubmitButton"]`,
	}
	passwordSelectors = []string{
		"#ius-password",
		`input[name="Password"]`,
	}
	passwordSubmitSelectors = []string{
		"#ius-sign-in-submit-btn",
		`button[data-testid="passwordVerificationContinueButton"]`,
	}
	mfaOptionsFormSelectors = []string{
		"#ius-mfa-options-form",
	}
	mfaOptionsSubmitSelectors = []string{
		"#ius-mfa-options-submit-btn",
	}
	mfaCodeSelectors = []string{
		"#ius-mfa-confirm-code",
		"#iux-mfa-confirm-code",
		`input[name="verificationCode"]`,
	}
	mfaCodeSubmitSelectors = []string{
		"#ius-mfa-otp-submit-btn",
		`button[data-testid="VerifyOtpSubmitButton"]`,
	}
	accountSelectSelectors = []string{
		"#ius-mfa-select-account-section",
		`ul[data-testid="AccountChoiceList"]`,
	}
	secondaryPasswordSelectors = []string{
		"#ius-sign-in-mfa-password-collection-current-password",
	}
	secondaryPasswordSubmitSelectors = []string{
		"#ius-sign-in-mfa-password-collection-continue-btn",
	}
	syncStatusSelectors = []string{
		".SummaryView .message",
		`[data-testid="account-refresh-status"]`,
	}
)

const (
	syncCompleteMessage = "Account refresh complete"
	apiKeyExpr          = `(window.__shellInternal && window.__shellInternal.appExperience && window.__shellInternal.appExperience.appApiKey) || ""`

	pollInterval = time.Second
	maxCodeTries = 3
)

// codeRetryDelay spaces out MFA code submissions. The page can sit on the
// code screen for several polls after a submit; only a code that is still
// unaccepted after this long counts as another try.
var codeRetryDelay = 10 * time.Second

// state of the sign-in machine. The site decides which screens appear; the
// state is tracked for error reporting, not for gating transitions.
type state int

const (
	stateLanding state = iota
	stateCredentialPrompt
	statePasswordPrompt
	stateSubmitted
	stateMfaChoose
	stateMfaCode
	stateAccountSelect
	stateSecondaryPassword
	stateAuthenticated
)

func (s state) String() string {
	switch s {
	case stateLanding:
		return "landing"
	case stateCredentialPrompt:
		return "credential-prompt"
	case statePasswordPrompt:
		return "password-prompt"
	case stateSubmitted:
		return "submitted"
	case stateMfaChoose:
		return "mfa-choose"
	case stateMfaCode:
		return "mfa-code"
	case stateAccountSelect:
		return "account-select"
	case stateSecondaryPassword:
		return "secondary-password"
	case stateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

type machine struct {
	d          Driver
	creds      Credentials
	opts       SignInOptions
	state      state
	codeTries  int
	lastCodeAt time.Time
}

// SignIn drives the browser from the landing page to the authenticated
// overview and captures the session. Probe misses are control flow; anything
// else is fatal and surfaces as *SignInError carrying the current URL.
func SignIn(ctx context.Context, d Driver, creds Credentials, opts SignInOptions) (*Result, error) {
	if opts.Deadline == 0 {
		opts.Deadline = 5 * time.Minute
	}
	m := &machine{d: d, creds: creds, opts: opts, state: stateLanding}

	if err := d.Navigate(api.BaseURL); err != nil {
		return nil, m.fail(fmt.Errorf("opening landing page: %w", err))
	}

	deadline := time.Now().Add(opts.Deadline)
	for {
		if err := ctx.Err(); err != nil {
			return nil, m.fail(err)
		}
		if time.Now().After(deadline) {
			return nil, m.fail(fmt.Errorf("timed out in state %s", m.state))
		}

		url, err := d.CurrentURL()
		if err != nil {
			return nil, m.fail(fmt.Errorf("reading current URL: %w", err))
		}
		if strings.HasPrefix(url, api.OverviewURL) {
			m.state = stateAuthenticated
			break
		}

		if err := m.step(ctx); err != nil {
			return nil, m.fail(err)
		}

		if err := sleep(ctx, pollInterval); err != nil {
			return nil, m.fail(err)
		}
	}

	return m.capture(ctx)
}

// step tries each transition in order. Exactly the screens the service chose
// to serve will probe positive; the rest silently do not apply.
func (m *machine) step(ctx context.Context) error {
	steps := []func(context.Context) (bool, error){
		m.enterUserID,
		m.enterPassword,
		m.chooseMFAMethod,
		m.enterMFACode,
		m.selectAccount,
		m.enterSecondaryPassword,
		m.clickSignIn,
	}
	for _, step := range steps {
		handled, err := step(ctx)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}
	return nil
}

func (m *machine) clickSignIn(ctx context.Context) (bool, error) {
	sel := firstPresent(m.d, signInButtonSelectors)
	if sel == "" {
		return false, nil
	}
	m.state = stateLanding
	return true, m.d.Click(sel)
}

func (m *machine) enterUserID(ctx context.Context) (bool, error) {
	sel := firstPresent(m.d, userIDSelectors)
	if sel == "" {
		return false, nil
	}
	m.state = stateCredentialPrompt
	if err := m.d.SendKeys(sel, m.creds.Email); err != nil {
		return true, fmt.Errorf("entering user id: %w", err)
	}
	if submit := firstPresent(m.d, userIDSubmitSelectors); submit != "" {
		if err := m.d.Click(submit); err != nil {
			return true, fmt.Errorf("submitting user id: %w", err)
		}
	}
	m.state = stateSubmitted
	return true, nil
}

func (m *machine) enterPassword(ctx context.Context) (bool, error) {
	sel := firstPresent(m.d, passwordSelectors)
	if sel == "" {
		return false, nil
	}
	m.state = statePasswordPrompt
	if err := m.d.SendKeys(sel, m.creds.Password); err != nil {
		return true, fmt.Errorf("entering password: %w", err)
	}
	if submit := firstPresent(m.d, passwordSubmitSelectors); submit != "" {
		if err := m.d.Click(submit); err != nil {
			return true, fmt.Errorf("submitting password: %w", err)
		}
	}
	m.state = stateSubmitted
	return true, nil
}

func (m *machine) chooseMFAMethod(ctx context.Context) (bool, error) {
	if firstPresent(m.d, mfaOptionsFormSelectors) == "" {
		return false, nil
	}
	m.state = stateMfaChoose
	if m.creds.MFAMethod == "" && m.opts.Prompt == nil {
		return true, &MFAError{Reason: MFAReasonRequired}
	}
	method := m.creds.MFAMethod
	if method == "" {
		method = mfa.MethodSMS
	}
	option := "#ius-mfa-option-" + string(method)
	if !m.d.Present(option) {
		return true, &MFAError{Reason: MFAReasonRequired, Detail: fmt.Sprintf("method %s not offered", method)}
	}
	if err := m.d.Click(option); err != nil {
		return true, fmt.Errorf("selecting MFA method: %w", err)
	}
	if submit := firstPresent(m.d, mfaOptionsSubmitSelectors); submit != "" {
		if err := m.d.Click(submit); err != nil {
			return true, fmt.Errorf("confirming MFA method: %w", err)
		}
	}
	return true, nil
}

func (m *machine) enterMFACode(ctx context.Context) (bool, error) {
	sel := firstPresent(m.d, mfaCodeSelectors)
	if sel == "" {
		return false, nil
	}
	m.state = stateMfaCode

	if m.codeTries > 0 && time.Since(m.lastCodeAt) < codeRetryDelay {
		return true, nil
	}
	if m.codeTries >= maxCodeTries {
		return true, &MFAError{Reason: MFAReasonRejected}
	}
	m.codeTries++
	m.lastCodeAt = time.Now()

	source, err := m.mfaSource()
	if err != nil {
		return true, err
	}
	code, err := source.Code(ctx)
	if err != nil {
		return true, fmt.Errorf("obtaining MFA code: %w", err)
	}
	if code == "" {
		return true, &MFAError{Reason: MFAReasonRejected, Detail: "no verification code obtained"}
	}

	if err := m.d.SendKeys(sel, code); err != nil {
		return true, fmt.Errorf("entering MFA code: %w", err)
	}
	if submit := firstPresent(m.d, mfaCodeSubmitSelectors); submit != "" {
		if err := m.d.Click(submit); err != nil {
			return true, fmt.Errorf("submitting MFA code: %w", err)
		}
	}
	return true, nil
}

// mfaSource maps the configured method to its code source.
func (m *machine) mfaSource() (mfa.Source, error) {
	switch m.creds.MFAMethod {
	case mfa.MethodSoftToken:
		return mfa.NewTOTP(m.creds.TOTPSecret)
	case mfa.MethodEmail:
		if m.creds.Mailbox == nil {
			return nil, &MFAError{Reason: MFAReasonRequired, Detail: "email method configured without mailbox"}
		}
		return mfa.NewInbox(*m.creds.Mailbox), nil
	}
	if m.opts.Prompt != nil {
		return m.opts.Prompt, nil
	}
	return nil, &MFAError{Reason: MFAReasonRequired}
}

func (m *machine) selectAccount(ctx context.Context) (bool, error) {
	sel := firstPresent(m.d, accountSelectSelectors)
	if sel == "" {
		return false, nil
	}
	m.state = stateAccountSelect

	js := fmt.Sprintf(`(() => {
		const labels = document.querySelectorAll(%q + " label, " + %q + " button");
		for (const el of labels) {
			if (el.textContent.trim().includes(%q)) { el.click(); return true; }
		}
		return false;
	})()`, sel, sel, m.creds.IntuitAccount)

	var clicked bool
	if err := m.d.Eval(js, &clicked); err != nil {
		return true, fmt.Errorf("selecting sub-account: %w", err)
	}
	if !clicked {
		return true, fmt.Errorf("sub-account %q not offered", m.creds.IntuitAccount)
	}
	return true, nil
}

func (m *machine) enterSecondaryPassword(ctx context.Context) (bool, error) {
	sel := firstPresent(m.d, secondaryPasswordSelectors)
	if sel == "" {
		return false, nil
	}
	m.state = stateSecondaryPassword
	if err := m.d.SendKeys(sel, m.creds.Password); err != nil {
		return true, fmt.Errorf("entering password re-prompt: %w", err)
	}
	if submit := firstPresent(m.d, secondaryPasswordSubmitSelectors); submit != "" {
		if err := m.d.Click(submit); err != nil {
			return true, fmt.Errorf("submitting password re-prompt: %w", err)
		}
	}
	return true, nil
}

// capture reads the session out of the authenticated page: the in-page API
// key, the cookie jar, and optionally the sync banner status.
func (m *machine) capture(ctx context.Context) (*Result, error) {
	status, err := m.waitForSync(ctx)
	if err != nil {
		return nil, err
	}

	var apiKey string
	if err := m.d.Eval(apiKeyExpr, &apiKey); err != nil {
		return nil, m.fail(fmt.Errorf("reading in-page API key: %w", err))
	}
	if apiKey == "" {
		return nil, m.fail(fmt.Errorf("authenticated page exposes no API key"))
	}

	cookies, err := m.d.Cookies()
	if err != nil {
		return nil, m.fail(err)
	}

	return &Result{APIKey: apiKey, Cookies: cookies, StatusMessage: status}, nil
}

// waitForSync polls the overview status banner until the service reports a
// complete account refresh or the timeout lapses. A stale banner is a
// warning unless FailIfStale was set.
func (m *machine) waitForSync(ctx context.Context) (string, error) {
	if !m.opts.WaitForSync {
		return "", nil
	}
	timeout := m.opts.WaitForSyncTimeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	var status string
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if sel := firstPresent(m.d, syncStatusSelectors); sel != "" {
			if txt, err := m.d.Text(sel); err == nil && txt != "" {
				status = strings.TrimSpace(txt)
				if status == syncCompleteMessage {
					return status, nil
				}
			}
		}
		if err := sleep(ctx, 5*time.Second); err != nil {
			return status, m.fail(err)
		}
	}

	if m.opts.FailIfStale {
		return status, &StaleDataError{Status: status}
	}
	return status, nil
}

func (m *machine) fail(err error) error {
	url, _ := m.d.CurrentURL()
	return &SignInError{URL: url, State: m.state.String(), Err: err}
}

func firstPresent(d Driver, selectors []string) string {
	for _, sel := range selectors {
		if d.Present(sel) {
			return sel
		}
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
