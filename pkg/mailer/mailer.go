// Package mailer sends plain text mail over an implicit TLS SMTP session.
package mailer

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

var ErrDisabled = errors.New("mailer is not configured")

const dialTimeout = 10 * time.Second

type Mailer struct {
	host     string
	port     string
	username string
	password string

	dial func(addr, host string) (net.Conn, error)
}

func New(host, port, username, password string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		dial:     dialTLS,
	}
}

func dialTLS(addr, host string) (net.Conn, error) {
	d := &net.Dialer{Timeout: dialTimeout}
	return tls.DialWithDialer(d, "tcp", addr, &tls.Config{ServerName: host})
}

func (m *Mailer) Enabled() bool {
	return m.host != "" && m.username != ""
}

func (m *Mailer) compose(to, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", m.username)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		return ErrDisabled
	}

	conn, err := m.dial(net.JoinHostPort(m.host, m.port), m.host)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(m.username); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(m.compose(to, subject, body)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
