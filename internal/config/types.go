package config

// Config is the top-level configuration stored at
// ~/.config/mintgrab/config.json. Passwords are never written here; they come
// from flags, the environment, or an interactive prompt.
type Config struct {
	Email string `json:"email,omitempty"`

	MFAMethod  string     `json:"mfa_method,omitempty"` // soft-token, email, sms
	TOTPSecret string     `json:"totp_secret,omitempty"`
	IMAP       IMAPConfig `json:"imap,omitempty"`

	// IntuitAccount selects a sub-account when the login offers several.
	IntuitAccount string `json:"intuit_account,omitempty"`

	// SessionPath persists the browser profile (cookies only) between runs
	// to avoid repeat MFA challenges.
	SessionPath string `json:"session_path,omitempty"`
	Headless    bool   `json:"headless"`
	ChromePath  string `json:"chrome_path,omitempty"`

	WaitForSync            bool `json:"wait_for_sync"`
	WaitForSyncTimeoutSecs int  `json:"wait_for_sync_timeout_secs,omitempty"`
	FailIfStale            bool `json:"fail_if_stale"`
}

// IMAPConfig locates the mailbox that receives verification emails.
type IMAPConfig struct {
	Host     string `json:"host,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Folder   string `json:"folder,omitempty"`
	Delete   bool   `json:"delete,omitempty"`
}
