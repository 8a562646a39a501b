package mfa

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

const (
	// The service sends verification emails from this address.
	verificationSender = "no_reply@alerts.intuit.com"
	// A code older than this is from an earlier attempt; ignore it.
	maxMessageAge = 180 * time.Second

	maxPolls     = 20
	pollInterval = 10 * time.Second
	// Only the newest few messages are worth inspecting.
	messagesPerPoll = 3
)

var (
	codeRe    = regexp.MustCompile(`(?sm)Verification code:.*?(\d{6})\r?$`)
	subjectRe = regexp.MustCompile(`(?i)verification code`)
)

// MailboxConfig locates the inbox that receives verification emails.
type MailboxConfig struct {
	Host     string // host or host:port; port defaults to 993
	Username string
	Password string
	Folder   string // defaults to INBOX
	// Delete the verification email once its code has been consumed.
	Delete bool
}

// InboxSource polls an IMAP mailbox for a fresh verification email and
// extracts the 6-digit code from its body. All failures are swallowed: Code
// returns an empty string rather than an error, because a missing email and a
// broken mailbox look the same to the sign-in flow.
type InboxSource struct {
	cfg MailboxConfig

	// injectable for tests
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewInbox creates an inbox source for the given mailbox.
func NewInbox(cfg MailboxConfig) *InboxSource {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	return &InboxSource{cfg: cfg, sleep: sleepCtx, now: time.Now}
}

func (s *InboxSource) Code(ctx context.Context) (string, error) {
	return s.poll(ctx), nil
}

func (s *InboxSource) poll(ctx context.Context) string {
	addr := s.cfg.Host
	if !strings.Contains(addr, ":") {
		addr += ":993"
	}

	c, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return ""
	}
	defer c.Close()

	if err := c.Login(s.cfg.Username, s.cfg.Password).Wait(); err != nil {
		return ""
	}
	defer c.Logout()

	for i := 0; i < maxPolls; i++ {
		if err := s.sleep(ctx, pollInterval); err != nil {
			return ""
		}

		sel, err := c.Select(s.cfg.Folder, nil).Wait()
		if err != nil {
			return ""
		}
		if sel.NumMessages == 0 {
			continue
		}

		lo := uint32(1)
		if sel.NumMessages > messagesPerPoll {
			lo = sel.NumMessages - messagesPerPoll + 1
		}
		var seq imap.SeqSet
		seq.AddRange(lo, sel.NumMessages)

		section := &imap.FetchItemBodySection{}
		msgs, err := c.Fetch(seq, &imap.FetchOptions{
			Envelope:    true,
			BodySection: []*imap.FetchItemBodySection{section},
		}).Collect()
		if err != nil {
			continue
		}

		// Newest first.
		for j := len(msgs) - 1; j >= 0; j-- {
			msg := msgs[j]
			if msg.Envelope == nil {
				continue
			}
			from := ""
			if len(msg.Envelope.From) > 0 {
				from = msg.Envelope.From[0].Addr()
			}
			if !MatchVerificationMessage(from, msg.Envelope.Subject, msg.Envelope.Date, s.now()) {
				continue
			}
			code := ExtractCode(string(msg.FindBodySection(section)))
			if code == "" {
				continue
			}
			if s.cfg.Delete {
				s.deleteMessage(c, msg.SeqNum)
			}
			return code
		}
	}
	return ""
}

func (s *InboxSource) deleteMessage(c *imapclient.Client, seqNum uint32) {
	seq := imap.SeqSetNum(seqNum)
	store := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}
	if _, err := c.Store(seq, store, nil).Collect(); err != nil {
		return
	}
	c.Expunge().Collect()
}

// MatchVerificationMessage reports whether a message looks like a fresh
// verification email: right sender, right subject, recent enough.
func MatchVerificationMessage(from, subject string, date, now time.Time) bool {
	if !strings.EqualFold(strings.TrimSpace(from), verificationSender) {
		return false
	}
	if !subjectRe.MatchString(subject) {
		return false
	}
	if date.IsZero() {
		return false
	}
	age := now.Sub(date)
	return age >= 0 && age <= maxMessageAge
}

// ExtractCode pulls the 6-digit code out of a verification email body.
// Returns "" when the body does not match.
func ExtractCode(body string) string {
	m := codeRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
