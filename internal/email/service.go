package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Service sends the email reminder channel. It is best-effort: failures are
// reported to the caller for logging but never change a push outcome.
type Service interface {
	SendReminder(ctx context.Context, to string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type service struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewService(cfg Config) Service {
	return &service{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *service) SendReminder(ctx context.Context, to string) error {
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your plants need some care")
	m.SetBody("text/html", reminderBody)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send reminder email: %w", err)
		}
		return nil
	}
}

const reminderBody = `
	<h2>Time to check on your plants</h2>
	<p>One or more of your plants is due for care today.</p>
	<p><a href="https://app.plantona.io/plants">Open your plant list</a></p>
`
