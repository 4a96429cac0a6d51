// Package notify sends completion notices for long-running admin jobs.
package notify

import (
	"strings"

	"admin-dashboard/config"

	"gopkg.in/gomail.v2"
)

// Notifier delivers a short HTML notice.
type Notifier interface {
	Notify(subject, body string) error
}

// Mailer sends notices by e-mail through an SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     []string
}

func NewMailer(host string, port int, user, password, from string, to []string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
		to:     to,
	}
}

// Message builds the e-mail without sending it.
func (m *Mailer) Message(subject, body string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return msg
}

func (m *Mailer) Notify(subject, body string) error {
	return m.dialer.DialAndSend(m.Message(subject, body))
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(subject, body string) error { return nil }

// FromConfig returns a Mailer when SMTP_HOST and NOTIFY_EMAIL are set, and
// Discard otherwise.
func FromConfig() Notifier {
	if config.SMTPHost == "" || config.NotifyEmail == "" {
		return Discard{}
	}
	var to []string
	for _, addr := range strings.Split(config.NotifyEmail, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return NewMailer(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPassword, config.SMTPFrom, to)
}
