package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/friendloop/backend/internal/logging"
)

// Dispatcher sends transactional mail. Callers treat delivery as
// fire-and-forget; failures are logged by the caller, never propagated.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPDispatcher delivers mail through a plain SMTP relay.
type SMTPDispatcher struct {
	addr string
	from string
}

// NewSMTPDispatcher constructs a dispatcher for the relay at addr
// (host:port), sending from the given address.
func NewSMTPDispatcher(addr, from string) *SMTPDispatcher {
	return &SMTPDispatcher{addr: addr, from: from}
}

// Send delivers a single HTML message.
func (d *SMTPDispatcher) Send(_ context.Context, to, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", d.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(d.addr, nil, d.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogDispatcher writes outbound mail to the log instead of delivering it.
// Used in development and tests when no SMTP relay is configured.
type LogDispatcher struct{}

// Send records the message without delivering it.
func (LogDispatcher) Send(ctx context.Context, to, subject, _ string) error {
	logging.FromContext(ctx).Info("mail dispatched to log", "to", to, "subject", subject)
	return nil
}

var _ Dispatcher = (*SMTPDispatcher)(nil)
var _ Dispatcher = LogDispatcher{}
