package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mintgrab/mintgrab/internal/api"
	"github.com/mintgrab/mintgrab/internal/browser"
	"github.com/mintgrab/mintgrab/internal/mfa"
)

// ensureSession establishes the authenticated session on first use. With
// --api-key/--cookie it goes straight to the REST transport; otherwise it
// launches the browser and runs the sign-in state machine.
func ensureSession(cmd *cobra.Command) (*api.Session, error) {
	if app.Session != nil {
		return app.Session, nil
	}

	if flagAPIKey != "" || flagCookie != "" {
		if flagAPIKey == "" || flagCookie == "" {
			return nil, ExitWithError(ExitUserError, "--api-key and --cookie must be supplied together")
		}
		app.Session = api.NewRESTSession(flagAPIKey, flagCookie, api.WithLogger(app.Printer.Warn))
		return app.Session, nil
	}

	creds, err := buildCredentials()
	if err != nil {
		return nil, err
	}

	app.Printer.Info("launching browser (headless=%t)", app.Config.Headless)
	driver, err := browser.NewChromeDriver(browser.ChromeOptions{
		Headless:    app.Config.Headless,
		UserDataDir: app.Config.SessionPath,
		ExecPath:    app.Config.ChromePath,
	})
	if err != nil {
		return nil, ExitWithError(ExitAuthError, "starting browser: %v", err)
	}

	opts := browser.SignInOptions{
		Prompt:             &mfa.PromptSource{In: os.Stdin, Out: os.Stderr},
		WaitForSync:        app.Config.WaitForSync,
		WaitForSyncTimeout: time.Duration(app.Config.WaitForSyncTimeoutSecs) * time.Second,
		FailIfStale:        app.Config.FailIfStale,
	}

	app.Printer.Info("signing in as %s", creds.Email)
	session, err := browser.NewSession(cmd.Context(), driver, creds, opts, api.WithLogger(app.Printer.Warn))
	if err != nil {
		app.Printer.Error("sign-in failed: %v", err)
		return nil, err
	}
	if msg := session.StatusMessage(); msg != "" {
		app.Printer.Info("sign-in status: %s", msg)
	}

	app.Session = session
	return session, nil
}

func buildCredentials() (browser.Credentials, error) {
	cfg := app.Config
	if cfg.Email == "" {
		return browser.Credentials{}, ExitWithError(ExitUserError, "no email configured; pass --email or run: mintgrab config --init")
	}

	password, err := resolvePassword()
	if err != nil {
		return browser.Credentials{}, err
	}

	creds := browser.Credentials{
		Email:         cfg.Email,
		Password:      password,
		MFAMethod:     mfa.Method(cfg.MFAMethod),
		TOTPSecret:    cfg.TOTPSecret,
		IntuitAccount: cfg.IntuitAccount,
	}
	if cfg.IMAP.Host != "" {
		creds.Mailbox = &mfa.MailboxConfig{
			Host:     cfg.IMAP.Host,
			Username: cfg.IMAP.Username,
			Password: cfg.IMAP.Password,
			Folder:   cfg.IMAP.Folder,
			Delete:   cfg.IMAP.Delete,
		}
	}
	return creds, nil
}

// resolvePassword checks the flag, then the environment, then prompts.
func resolvePassword() (string, error) {
	if flagPassword != "" {
		return flagPassword, nil
	}
	if v := os.Getenv("MINTGRAB_PASSWORD"); v != "" {
		return v, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", ExitWithError(ExitUserError, "no password supplied; pass --password or set MINTGRAB_PASSWORD")
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", app.Config.Email)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", ExitWithError(ExitUserError, "reading password: %v", err)
	}
	return string(pw), nil
}
