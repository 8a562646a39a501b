// Package browser drives a real browser through the service's sign-in flow
// and exposes the captured session to the API layer.
package browser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Driver abstracts the DOM operations the sign-in state machine needs.
// Probing for elements is a predicate, not an error: Present answers whether
// a branch of the flow applies.
type Driver interface {
	Navigate(url string) error
	CurrentURL() (string, error)
	Present(selector string) bool
	Click(selector string) error
	SendKeys(selector, text string) error
	Text(selector string) (string, error)
	Eval(js string, out any) error
	Cookies() ([]*http.Cookie, error)
	Close() error
}

const chromeOpTimeout = 10 * time.Second

// ChromeOptions configure the Chrome process.
type ChromeOptions struct {
	Headless bool
	// UserDataDir persists the browser profile (cookies included) across
	// runs, which lets the service skip repeat MFA challenges.
	UserDataDir string
	ExecPath    string
}

// ChromeDriver drives a Chrome instance over the DevTools protocol.
type ChromeDriver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChromeDriver launches Chrome and waits for it to come up.
func NewChromeDriver(opts ChromeOptions) (*ChromeDriver, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	d := &ChromeDriver{ctx: ctx, cancel: cancel, allocCancel: allocCancel}
	if err := chromedp.Run(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("starting Chrome: %w", err)
	}
	return d, nil
}

func (d *ChromeDriver) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(d.ctx, chromeOpTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (d *ChromeDriver) Navigate(url string) error {
	return d.run(chromedp.Navigate(url))
}

func (d *ChromeDriver) CurrentURL() (string, error) {
	var u string
	err := d.run(chromedp.Location(&u))
	return u, err
}

// Present evaluates a querySelector probe instead of waiting on the node, so
// "not there" is an immediate false rather than a timeout.
func (d *ChromeDriver) Present(selector string) bool {
	var found bool
	js := fmt.Sprintf("document.querySelector(%q) !== null", selector)
	if err := d.run(chromedp.Evaluate(js, &found)); err != nil {
		return false
	}
	return found
}

func (d *ChromeDriver) Click(selector string) error {
	return d.run(chromedp.Click(selector, chromedp.ByQuery))
}

func (d *ChromeDriver) SendKeys(selector, text string) error {
	return d.run(chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (d *ChromeDriver) Text(selector string) (string, error) {
	var s string
	err := d.run(chromedp.Text(selector, &s, chromedp.ByQuery))
	return s, err
}

func (d *ChromeDriver) Eval(js string, out any) error {
	return d.run(chromedp.Evaluate(js, out))
}

func (d *ChromeDriver) Cookies() ([]*http.Cookie, error) {
	var raw []*network.Cookie
	err := d.run(chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("reading browser cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

// Close quits the browser, releasing the OS-level processes.
func (d *ChromeDriver) Close() error {
	d.cancel()
	d.allocCancel()
	return nil
}
