package internal_notify

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
)

// EmailSender delivers transactional mail: review links and researcher
// login links.
type EmailSender interface {
	Send(to, subject, body string) error
}

type sendgridSender struct {
	apiKey string
	from   *sgmail.Email
	logger commons.Logger
}

func NewSendgridSender(cfg *config.AppConfig, logger commons.Logger) EmailSender {
	return &sendgridSender{
		apiKey: cfg.SendgridApiKey,
		from:   sgmail.NewEmail("Teacher Moments", cfg.FromEmail),
		logger: logger,
	}
}

func (s *sendgridSender) Send(to, subject, body string) error {
	message := sgmail.NewSingleEmail(s.from, subject, sgmail.NewEmail("", to), body, body)
	client := sendgrid.NewSendClient(s.apiKey)

	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email to %s: status=%d", to, response.StatusCode)
	}

	s.logger.Infof("sent email: to=%s subject=%q", to, subject)
	return nil
}

// ConsoleSender logs mail instead of sending it, for development.
type ConsoleSender struct {
	Logger commons.Logger
}

func (s *ConsoleSender) Send(to, subject, body string) error {
	s.Logger.Infof("console email: to=%s subject=%q body=%s", to, subject, body)
	return nil
}
