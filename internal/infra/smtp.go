package infra

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
)

// Mailer sends plain-text notifications over SMTP.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	from     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:     fmt.Sprintf("%s <%s>", cfg.BusinessName, cfg.SMTPUser),
	}
}

// Configurado reports whether an SMTP host was provided.
func (m *Mailer) Configurado() bool {
	return strings.TrimSpace(m.host) != ""
}

// Enviar sends a text message to one or more comma-separated recipients.
func (m *Mailer) Enviar(to, subject, body string) error {
	e := email.NewEmail()
	e.From = m.from
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			e.To = append(e.To, addr)
		}
	}
	if len(e.To) == 0 {
		return fmt.Errorf("mailer: sin destinatarios")
	}
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
