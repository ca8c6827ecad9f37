package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`<p>Thank you for registering, {{.Name}}. Please confirm your email by clicking the link below:</p>` +
		`<p><a href="{{.Link}}">Confirm Email</a></p>`,
))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends mail through one SMTP relay using PLAIN auth.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	send     sendFunc
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	if from == "" {
		from = username
	}

	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

// SendConfirmation mails the account confirmation link to the given address.
func (m *SMTPMailer) SendConfirmation(ctx context.Context, to, name, link string) error {
	const op = "mailer.SendConfirmation"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, struct{ Name, Link string }{name, link}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := buildMessage(m.from, to, "Confirm your email", body.String())

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	if err := m.send(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder

	headers := [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
		{"Date", time.Now().Format(time.RFC1123Z)},
	}
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(html)

	return []byte(b.String())
}
