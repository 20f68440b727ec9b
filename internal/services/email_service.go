package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"trainingcrm/internal/store"
)

// EmailNotifier mails notices and stale digests to a fixed recipient list.
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     []string
	// send is swapped in tests.
	send func(m ...*gomail.Message) error
}

func NewEmailNotifier(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, to []string) *EmailNotifier {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &EmailNotifier{
		dialer: dialer,
		from:   fromEmail,
		to:     to,
		send:   dialer.DialAndSend,
	}
}

func (s *EmailNotifier) Name() string { return "email" }

func (s *EmailNotifier) SendText(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.to) == 0 {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to...)
	m.SetHeader("Subject", subject)

	lines := strings.Split(html.EscapeString(body), "\n")
	m.SetBody("text/html", fmt.Sprintf(`
		<h3>%s</h3>
		<p>%s</p>
		<p>Eğitim CRM</p>
	`, html.EscapeString(subject), strings.Join(lines, "<br>")))
	m.AddAlternative("text/plain", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email %q: %w", subject, err)
	}
	return nil
}

func (s *EmailNotifier) Notify(ctx context.Context, n store.Notice) error {
	return s.SendText(ctx, noticeSubject, n.Message)
}
