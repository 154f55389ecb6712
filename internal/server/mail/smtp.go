package mail

import (
	"context"

	"gopkg.in/gomail.v2"
)

// SMTPSender sends through an SMTP relay. Port 465 uses implicit TLS,
// other ports upgrade with STARTTLS when offered.
type SMTPSender struct {
	send func(m ...*gomail.Message) error
}

func NewSMTPSender(host string, port int, user, password string) *SMTPSender {
	d := gomail.NewDialer(host, port, user, password)
	return &SMTPSender{send: d.DialAndSend}
}

// Send checks ctx before dialing; gomail itself has no cancellation.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	return s.send(m)
}
