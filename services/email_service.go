package services

import (
	"context"
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"

	"github.com/sistema-zara/zara-backend/models"
)

// EmailService delivers notifications over SMTP using gomail. The channel
// is enabled only when SMTP credentials are present in the environment;
// without them the adapter is skipped entirely.
type EmailService struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewEmailService reads the SMTP configuration from the environment.
func NewEmailService() *EmailService {
	smtpPort := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}

	s := &EmailService{
		host: os.Getenv("SMTP_HOST"),
		port: smtpPort,
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
		from: from,
	}
	if !s.Enabled() {
		log.Println("SMTP credentials not configured, email channel disabled")
	}
	return s
}

func (s *EmailService) Name() string {
	return models.ChannelEmail
}

func (s *EmailService) Enabled() bool {
	return s.host != "" && s.user != ""
}

// Send delivers one notification to one recipient. Users who opted out of
// email are skipped silently. gomail has no context support, so the send
// runs in a goroutine and the deadline is enforced here.
func (s *EmailService) Send(ctx context.Context, notification *models.Notification, user *models.User) error {
	if !user.NotificationPrefs.Email || user.Email == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", fmt.Sprintf("[%s] %s", notification.Priority, notification.Title))
	m.SetBody("text/plain", fmt.Sprintf("Dear %s,\n\n%s\n\nSistema ZARA", user.FullName, notification.Message))

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", user.Email, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email to %s timed out: %w", user.Email, ctx.Err())
	}
}
