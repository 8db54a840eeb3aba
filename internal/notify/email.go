package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// EmailNotifier implements Notifier over plain SMTP with optional
// per-account recipient override.
type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string

	// sendMail is swappable for tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier creates a new EmailNotifier.
func NewEmailNotifier(host string, port int, username, password, from string, to []string, opts ...EmailOption) *EmailNotifier {
	e := &EmailNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
	e.sendMail = e.sendMailWithDeadline
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmailOption configures an EmailNotifier.
type EmailOption func(*EmailNotifier)

// WithSendMailFunc overrides the SMTP send function, for tests.
func WithSendMailFunc(f func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) EmailOption {
	return func(e *EmailNotifier) {
		e.sendMail = f
	}
}

// Name implements Notifier.
func (e *EmailNotifier) Name() string { return "email" }

// recipients resolves where the alert goes: the account's own address
// when it has one, the configured default list otherwise.
func (e *EmailNotifier) recipients(alert *Alert) []string {
	if alert.Recipient != "" {
		return []string{alert.Recipient}
	}
	return e.to
}

// Send delivers the alert as a plain-text email.
func (e *EmailNotifier) Send(ctx context.Context, alert *Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := e.recipients(alert)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", alert.Title)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	b.WriteString(alert.Message)
	b.WriteString("\r\n")
	for _, f := range alert.Fields {
		fmt.Fprintf(&b, "\r\n%s: %s", f.Name, f.Value)
	}
	if alert.AccountName != "" {
		fmt.Fprintf(&b, "\r\n\r\nAccount: %s", alert.AccountName)
	}
	if !alert.Timestamp.IsZero() {
		fmt.Fprintf(&b, "\r\nTime: %s", alert.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	if err := e.sendMail(addr, auth, e.from, to, []byte(b.String())); err != nil {
		return fmt.Errorf("sending email via %s: %w", addr, err)
	}
	return nil
}

// sendMailWithDeadline mirrors smtp.SendMail but puts a deadline on
// the connection, so an unresponsive SMTP server cannot hang delivery.
func (e *EmailNotifier) sendMailWithDeadline(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", addr, defaultSendTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(defaultSendTimeout)); err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, e.host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
