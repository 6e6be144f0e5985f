// Package mail delivers transactional email. The SMTP implementation is kept
// behind the Mailer interface so handlers can be tested with a stub.
package mail

import (
	"fmt"
	"net/smtp"

	"tourbook/internal/config"
)

// Mailer sends one plain-text message.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers via a plain SMTP relay (mailtrap-style in development).
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPMailer builds a mailer from process config.
func NewSMTPMailer(env config.Env) SMTPMailer {
	return SMTPMailer{
		Host: env.SMTPHost,
		Port: env.SMTPPort,
		User: env.SMTPUser,
		Pass: env.SMTPPass,
		From: env.EmailFrom,
	}
}

func (m SMTPMailer) Send(to, subject, body string) error {
	if m.Host == "" {
		return fmt.Errorf("mail: SMTP_HOST not configured")
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.From, to, subject, body))

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	return smtp.SendMail(addr, auth, m.From, []string{to}, msg)
}
