package utils

import (
	"fmt"
	"net/smtp"

	"github.com/rajivgeraev/deklata-api/internal/config"
)

// Mailer отправляет письма с magic-ссылками для входа
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer создаёт новый экземпляр Mailer
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendMagicLink отправляет письмо со ссылкой для входа
func (m *Mailer) SendMagicLink(to, link string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("SMTP не настроен")
	}

	subject := "Вход в Deklata"
	body := fmt.Sprintf("Для входа перейдите по ссылке (действует 15 минут):\r\n\r\n%s\r\n", link)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.cfg.From, to, subject, body))

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
}
