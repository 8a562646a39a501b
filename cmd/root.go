package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mintgrab/mintgrab/internal/api"
	"github.com/mintgrab/mintgrab/internal/browser"
	"github.com/mintgrab/mintgrab/internal/config"
	"github.com/mintgrab/mintgrab/internal/output"
)

const (
	ExitSuccess   = 0
	ExitUserError = 1
	ExitDataError = 2
	ExitAuthError = 3
)

// App holds shared dependencies for all subcommands.
type App struct {
	Config     *config.Config
	ConfigPath string
	Printer    *output.Printer
	Format     output.Format
	FilePrefix string
	Session    *api.Session
}

var (
	app App

	flagPretty   bool
	flagCompact  bool
	flagQuiet    bool
	flagConfig   string
	flagFormat   string
	flagFilename string

	flagEmail         string
	flagPassword      string
	flagMFAMethod     string
	flagTOTPSecret    string
	flagIntuitAccount string
	flagIMAPHost      string
	flagIMAPUser      string
	flagIMAPPassword  string
	flagIMAPFolder    string
	flagIMAPDelete    bool

	flagHeadless           bool
	flagSessionPath        string
	flagChromePath         string
	flagWaitForSync        bool
	flagWaitForSyncTimeout int
	flagFailIfStale        bool

	flagAPIKey string
	flagCookie string

	version string
)

var rootCmd = &cobra.Command{
	Use:           "mintgrab",
	Short:         "Extract your personal-finance data from Mint",
	Long:          "Extract accounts, transactions, budgets, investments, trends, and credit data\nfrom Mint through an authenticated browser or REST session.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mode := output.ModeFromFlags(flagPretty, flagCompact)
		app.Printer = output.NewPrinter(os.Stdout, os.Stderr, mode, flagQuiet)

		format, err := output.ParseFormat(flagFormat)
		if err != nil {
			return exitError(ExitUserError, "%v", err)
		}
		app.Format = format
		app.FilePrefix = flagFilename

		if skipInit(cmd) {
			return nil
		}

		_, cfgPath, err := config.Paths(flagConfig)
		if err != nil {
			return exitError(ExitUserError, "config path: %v", err)
		}
		app.ConfigPath = cfgPath

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return exitError(ExitUserError, "loading config: %v", err)
		}
		mergeFlags(cmd, cfg)
		applyArgs(cfg, args)
		app.Config = cfg

		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagPretty, "pretty", false, "force pretty-printed JSON output")
	pf.BoolVar(&flagCompact, "compact", false, "force compact JSON output")
	pf.BoolVar(&flagQuiet, "quiet", false, "suppress informational messages on stderr")
	pf.StringVar(&flagConfig, "config", "", "path to config file")
	pf.StringVar(&flagFormat, "format", "json", "output format: json or csv")
	pf.StringVar(&flagFilename, "filename", "", "write output to <prefix>_<resource>.<ext> instead of stdout")

	pf.StringVar(&flagEmail, "email", "", "Mint account email")
	pf.StringVar(&flagPassword, "password", "", "Mint account password (or MINTGRAB_PASSWORD)")
	pf.StringVar(&flagMFAMethod, "mfa-method", "", "MFA method: soft-token, email, or sms")
	pf.StringVar(&flagTOTPSecret, "totp-secret", "", "base32 shared secret for soft-token MFA")
	pf.StringVar(&flagIntuitAccount, "intuit-account", "", "sub-account to select after sign-in")
	pf.StringVar(&flagIMAPHost, "imap-host", "", "IMAP host for email MFA")
	pf.StringVar(&flagIMAPUser, "imap-user", "", "IMAP username for email MFA")
	pf.StringVar(&flagIMAPPassword, "imap-password", "", "IMAP password for email MFA")
	pf.StringVar(&flagIMAPFolder, "imap-folder", "", "IMAP folder to poll (default INBOX)")
	pf.BoolVar(&flagIMAPDelete, "imap-delete", false, "delete the verification email after use")

	pf.BoolVar(&flagHeadless, "headless", true, "run the browser headless")
	pf.StringVar(&flagSessionPath, "session-path", "", "browser profile directory to persist cookies between runs")
	pf.StringVar(&flagChromePath, "chrome-path", "", "path to the Chrome binary")
	pf.BoolVar(&flagWaitForSync, "wait-for-sync", false, "wait for the account refresh to complete after sign-in")
	pf.IntVar(&flagWaitForSyncTimeout, "wait-for-sync-timeout", 300, "seconds to wait for the account refresh")
	pf.BoolVar(&flagFailIfStale, "fail-if-stale", false, "fail when the account refresh does not complete")

	pf.StringVar(&flagAPIKey, "api-key", "", "use a captured API key instead of a browser sign-in")
	pf.StringVar(&flagCookie, "cookie", "", "use a captured cookie header instead of a browser sign-in")
}

// mergeFlags lets explicitly-set flags override the config file.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if flagEmail != "" {
		cfg.Email = flagEmail
	}
	if flagMFAMethod != "" {
		cfg.MFAMethod = flagMFAMethod
	}
	if flagTOTPSecret != "" {
		cfg.TOTPSecret = flagTOTPSecret
	}
	if flagIntuitAccount != "" {
		cfg.IntuitAccount = flagIntuitAccount
	}
	if flagIMAPHost != "" {
		cfg.IMAP.Host = flagIMAPHost
	}
	if flagIMAPUser != "" {
		cfg.IMAP.Username = flagIMAPUser
	}
	if flagIMAPPassword != "" {
		cfg.IMAP.Password = flagIMAPPassword
	}
	if flagIMAPFolder != "" {
		cfg.IMAP.Folder = flagIMAPFolder
	}
	if set("imap-delete") {
		cfg.IMAP.Delete = flagIMAPDelete
	}
	if set("headless") {
		cfg.Headless = flagHeadless
	}
	if flagSessionPath != "" {
		cfg.SessionPath = flagSessionPath
	}
	if flagChromePath != "" {
		cfg.ChromePath = flagChromePath
	}
	if set("wait-for-sync") {
		cfg.WaitForSync = flagWaitForSync
	}
	if set("wait-for-sync-timeout") {
		cfg.WaitForSyncTimeoutSecs = flagWaitForSyncTimeout
	}
	if set("fail-if-stale") {
		cfg.FailIfStale = flagFailIfStale
	}
}

// applyArgs accepts an optional positional email, as in
// `mintgrab accounts user@example.com`. An explicit --email wins.
func applyArgs(cfg *config.Config, args []string) {
	if flagEmail == "" && len(args) > 0 {
		cfg.Email = args[0]
	}
}

// Execute runs the root command. Called from main.
func Execute(v string) error {
	version = v
	rootCmd.Version = v
	err := rootCmd.Execute()
	closeSession()
	return err
}

// closeSession releases the session no matter how the command ended; cobra
// skips PostRun hooks when RunE returns an error, so cleanup cannot live
// there.
func closeSession() {
	if app.Session == nil {
		return
	}
	if err := app.Session.Close(); err != nil && app.Printer != nil {
		app.Printer.Warn("closing session: %v", err)
	}
	app.Session = nil
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var coded *exitErr
	if errors.As(err, &coded) {
		return coded.code
	}
	var signInErr *browser.SignInError
	var mfaErr *browser.MFAError
	if errors.As(err, &signInErr) || errors.As(err, &mfaErr) || errors.Is(err, api.ErrNotAuthenticated) {
		return ExitAuthError
	}
	var transportErr *api.TransportError
	var schemaErr *api.SchemaMismatchError
	if errors.As(err, &transportErr) || errors.As(err, &schemaErr) || errors.Is(err, api.ErrNotFound) {
		return ExitDataError
	}
	return ExitUserError
}

// skipInit returns true for commands that need no config at all.
func skipInit(cmd *cobra.Command) bool {
	return cmd.Name() == "config"
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// ExitWithError prints an error to stderr and returns an error for the exit
// code.
func ExitWithError(code int, format string, args ...any) error {
	app.Printer.Error(format, args...)
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
