// Package sender реализует воркер доставки писем: забирает задания из
// очереди и отправляет их по SMTP.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/studio-directory/internal/config"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
	"github.com/magabrotheeeer/studio-directory/internal/lib/smtp"
	"github.com/magabrotheeeer/studio-directory/internal/models"
)

// Service отправляет письма по заданиям из очереди.
type Service struct {
	transport smtp.TransportInterface
	baseURL   string
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(cfg *config.Config, log *slog.Logger, transport smtp.TransportInterface) *Service {
	return &Service{
		transport: transport,
		baseURL:   cfg.SMTP.BaseURL,
		log:       log,
	}
}

// SendEmailJob разбирает задание из очереди и отправляет письмо нужного вида.
func (s *Service) SendEmailJob(body []byte) error {
	var job models.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.log.Error("failed to unmarshal email job", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	switch job.Kind {
	case models.EmailKindVerification:
		return s.sendVerification(job)
	case models.EmailKindPasswordReset:
		return s.sendPasswordReset(job)
	default:
		s.log.Error("unknown email kind", slog.String("kind", job.Kind))
		return fmt.Errorf("unknown email kind: %s", job.Kind)
	}
}

func (s *Service) sendVerification(job models.EmailJob) error {
	link := fmt.Sprintf("%s/api/v1/verify-email?token=%s", s.baseURL, job.Token)
	subject := "Подтверждение адреса электронной почты"
	bodyText := fmt.Sprintf(`Здравствуйте, %s!

Вы зарегистрировались в каталоге студий. Чтобы подтвердить адрес электронной почты, перейдите по ссылке: %s

Ссылка действительна ограниченное время. Если вы не регистрировались, просто проигнорируйте это письмо.`,
		job.DisplayName, link)

	return s.sendEmail([]string{job.To}, subject, bodyText)
}

func (s *Service) sendPasswordReset(job models.EmailJob) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, job.Token)
	subject := "Восстановление пароля"
	bodyText := fmt.Sprintf(`Здравствуйте, %s!

Поступил запрос на смену пароля вашей учётной записи. Чтобы задать новый пароль, перейдите по ссылке: %s

Если вы не запрашивали смену пароля, проигнорируйте это письмо — пароль останется прежним.`,
		job.DisplayName, link)

	return s.sendEmail([]string{job.To}, subject, bodyText)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
