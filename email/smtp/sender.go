// Package smtpsender delivers verification code emails over SMTP.
package smtpsender

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"strings"

	mail "github.com/go-mail/mail"
)

// Sender implements core.EmailSender over SMTP.
type Sender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

func NewSender(host string, port int, from, user, pass string) *Sender {
	return &Sender{
		Host:    host,
		Port:    port,
		From:    from,
		User:    user,
		Pass:    pass,
		TLSMode: "auto",
	}
}

// SendVerificationCode sends a multipart (text + HTML) email carrying the code.
// The context deadline is not plumbed into the SMTP dial; callers bound the
// call with their own timeout around the dispatcher.
func (s *Sender) SendVerificationCode(ctx context.Context, email, name, code string) error {
	_ = ctx
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("smtp send: empty recipient")
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/plain", textBody(name, code))
	m.AddAlternative("text/html", htmlBody(name, code))

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify,
	}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negotiates STARTTLS when offered.
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hello,"
	}
	return "Hello " + name + ","
}

func textBody(name, code string) string {
	return greeting(name) + "\n\nYour verification code is: " + code + "\n\nIf you did not request this, you can ignore this email.\n"
}

func htmlBody(name, code string) string {
	return "<p>" + html.EscapeString(greeting(name)) + "</p>" +
		"<p>Your verification code is: <strong>" + html.EscapeString(code) + "</strong></p>" +
		"<p>If you did not request this, you can ignore this email.</p>"
}
