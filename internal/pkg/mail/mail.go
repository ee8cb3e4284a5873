package mail

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/storynest/core/internal/config"
)

// Message is a single email to send. Text is the plaintext fallback for
// clients that do not render HTML.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender sends emails via SMTP.
type Sender struct {
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Send dispatches an email via net/smtp.
func (s *Sender) Send(msg Message) error {
	if !s.cfg.Enabled() {
		return fmt.Errorf("mail: SMTP is not configured")
	}

	host := s.cfg.Host
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: StoryNest <%s>\r\n", from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	if msg.HTML != "" {
		body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		body.WriteString("\r\n")
		body.WriteString(msg.HTML)
	} else {
		body.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		body.WriteString("\r\n")
		body.WriteString(msg.Text)
	}

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, host)
	return smtp.SendMail(addr, auth, from, msg.To, body.Bytes())
}
