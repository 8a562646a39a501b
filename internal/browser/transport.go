package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/mintgrab/mintgrab/internal/api"
)

// Transport routes API requests through the browser's cookie state: before
// every request the driver's cookies are copied into the HTTP client's jar,
// so calls carry exactly what the live session carries.
type Transport struct {
	driver Driver
	client *http.Client
	jar    http.CookieJar
}

// NewTransport wraps a signed-in driver.
func NewTransport(d Driver) (*Transport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Transport{
		driver: d,
		jar:    jar,
		client: &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}, nil
}

func (t *Transport) Execute(ctx context.Context, req *api.Request) (*api.Response, error) {
	if err := t.syncCookies(); err != nil {
		return nil, err
	}
	return api.DoHTTP(ctx, t.client, nil, req)
}

// PreloadHost navigates the browser to a host so its cross-domain cookies are
// established before API calls hit it.
func (t *Transport) PreloadHost(ctx context.Context, baseURL string) error {
	if err := t.driver.Navigate(baseURL); err != nil {
		return err
	}
	// Give the page a moment to set its cookies.
	return sleep(ctx, 2*time.Second)
}

// Close quits the browser.
func (t *Transport) Close() error {
	return t.driver.Close()
}

func (t *Transport) syncCookies() error {
	cookies, err := t.driver.Cookies()
	if err != nil {
		return err
	}
	byHost := map[string][]*http.Cookie{}
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			continue
		}
		byHost[host] = append(byHost[host], c)
	}
	for host, cs := range byHost {
		t.jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, cs)
	}
	return nil
}

// NewSession signs in through the driver and returns an API session bound to
// the browser-backed transport. The driver is quit on sign-in failure.
func NewSession(ctx context.Context, d Driver, creds Credentials, opts SignInOptions, sessionOpts ...api.Option) (*api.Session, error) {
	result, err := SignIn(ctx, d, creds, opts)
	if err != nil {
		d.Close()
		return nil, err
	}
	transport, err := NewTransport(d)
	if err != nil {
		d.Close()
		return nil, err
	}
	sessionOpts = append(sessionOpts, api.WithStatusMessage(result.StatusMessage))
	return api.NewSession(transport, result.APIKey, sessionOpts...), nil
}
