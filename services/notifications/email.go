package notifications

import (
	"context"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SMTPSender delivers notification emails over plain SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host, port, user, password, from string) *SMTPSender {
	p, err := strconv.Atoi(port)
	if err != nil {
		p = 587
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(host, p, user, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	// gomail has no context support; bound the send so a hung SMTP server
	// cannot stall a dispatch run past its deadline.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
