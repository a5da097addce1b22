package contact

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the mail settings for SMTPRelay.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	To       string
}

// ErrSMTPNotConfigured is returned when credentials are missing.
var ErrSMTPNotConfigured = errors.New("contact: SMTP credentials not configured")

// SMTPRelay mails submissions to the site owner.
type SMTPRelay struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPRelay(cfg SMTPConfig) *SMTPRelay {
	return &SMTPRelay{cfg: cfg, send: smtp.SendMail}
}

func (r *SMTPRelay) Deliver(ctx context.Context, sub Submission) error {
	if r.cfg.User == "" || r.cfg.Password == "" {
		return ErrSMTPNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", r.cfg.User, r.cfg.Password, r.cfg.Host)
	if err := r.send(r.cfg.Host+":"+r.cfg.Port, auth, r.cfg.User, []string{r.cfg.To}, r.message(sub)); err != nil {
		return fmt.Errorf("contact: send mail: %w", err)
	}
	return nil
}

// headerSafe drops line breaks so visitor input cannot start a new header.
var headerSafe = strings.NewReplacer("\r", " ", "\n", " ")

func (r *SMTPRelay) message(sub Submission) []byte {
	subject := mime.QEncoding.Encode("utf-8", "Portfolio Contact: "+headerSafe.Replace(sub.Name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, sub.Name, sub.Email, sub.Message)

	var hdr strings.Builder
	hdr.WriteString("To: " + r.cfg.To + "\r\n")
	hdr.WriteString("Subject: " + subject + "\r\n")
	hdr.WriteString("From: " + r.cfg.User + "\r\n")
	// An address that does not parse is left out rather than forwarded raw.
	if addr, err := mail.ParseAddress(sub.Email); err == nil {
		hdr.WriteString("Reply-To: " + (&mail.Address{Address: addr.Address}).String() + "\r\n")
	}
	hdr.WriteString("\r\n")

	return []byte(hdr.String() + body + "\r\n")
}
