package infra

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/joaquin771/rentalia/internal/config"
)

// Mailer sends transactional mail for the identity provider (password reset).
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// SendPasswordReset delivers the single-use reset link to the account email.
func (m *Mailer) SendPasswordReset(to, link string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = "Restablecer tu contraseña"
	e.Text = []byte(fmt.Sprintf(
		"Recibimos un pedido para restablecer tu contraseña.\n\n"+
			"Entrá al siguiente enlace para elegir una nueva:\n%s\n\n"+
			"Si no fuiste vos, ignorá este correo.\n", link))

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
