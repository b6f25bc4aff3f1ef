package notify

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"unit-watcher/internal/config"
)

// Emailer delivers composed messages over SMTP. Disabled configurations
// log the subject and drop the body, which keeps local runs quiet.
type Emailer struct {
	cfg  config.EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailer creates an emailer from configuration
func NewEmailer(cfg config.EmailConfig) *Emailer {
	return &Emailer{cfg: cfg, send: smtp.SendMail}
}

// Send delivers one message to every configured recipient.
func (e *Emailer) Send(subject, body string) error {
	if !e.cfg.Enabled {
		log.Printf("[Alerts] email disabled, skipping send: %s", subject)
		return nil
	}
	if e.cfg.Host == "" || len(e.cfg.To) == 0 {
		return fmt.Errorf("email enabled but host or recipients missing")
	}

	msg := e.buildMessage(subject, body)
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)

	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Host)
	}

	if err := e.send(addr, auth, e.cfg.From, e.cfg.To, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("[Alerts] sent %q to %d recipients", subject, len(e.cfg.To))
	return nil
}

func (e *Emailer) buildMessage(subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
