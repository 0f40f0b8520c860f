package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Dosada05/bracket-pool/config"
	"github.com/Dosada05/bracket-pool/models"
)

// EmailService отправляет письма пула через SMTP. Доставка не критична для
// регистрации и подсчёта очков: вызывающий слой логирует ошибку и идёт дальше.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	client, err := s.dial()
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}

// dial устанавливает SMTP-соединение: прямой TLS на 465, иначе STARTTLS.
func (s *EmailService) dial() (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsconfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.cfg.SMTPHost,
	}

	if s.cfg.SMTPPort == 465 {
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return nil, fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
		return client, nil
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("ошибка соединения SMTP: %w", err)
	}
	if err = client.StartTLS(tlsconfig); err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка команды STARTTLS: %w", err)
	}
	return client, nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("ошибка парсинга шаблона %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", templatePath, err)
	}
	return body.String(), nil
}

// SendWelcomeEmail сообщает новому участнику его связку команд.
func (s *EmailService) SendWelcomeEmail(participant *models.Participant, teams []models.Team) error {
	subject := "Добро пожаловать в Bracket Pool!"
	templateData := struct {
		Name         string
		Teams        []models.Team
		StandingsURL string
	}{
		Name:         participant.Name,
		Teams:        teams,
		StandingsURL: fmt.Sprintf("%s/standings", s.cfg.PublicURL),
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/welcome_email.html", templateData)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела приветственного письма: %w", err)
	}
	return s.SendEmail([]string{participant.Email}, subject, htmlBody)
}

// SendStandingsDigest отправляет участнику текущую таблицу лидеров.
func (s *EmailService) SendStandingsDigest(email string, entries []models.LeaderboardEntry) error {
	subject := "Bracket Pool: текущая таблица лидеров"
	templateData := struct {
		Entries      []models.LeaderboardEntry
		StandingsURL string
	}{
		Entries:      entries,
		StandingsURL: fmt.Sprintf("%s/standings", s.cfg.PublicURL),
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/standings_digest_email.html", templateData)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела дайджеста: %w", err)
	}
	return s.SendEmail([]string{email}, subject, htmlBody)
}

// SendAllocationAlert предупреждает оператора о деградировавшей раздаче:
// пул связок почти исчерпан, новые связки могут нарушать ограничения.
func (s *EmailService) SendAllocationAlert(participant *models.Participant) error {
	if s.cfg.AdminEmail == "" {
		return nil
	}
	subject := "Bracket Pool: деградация раздачи команд"
	templateData := struct {
		ParticipantID    int
		ParticipantEmail string
	}{
		ParticipantID:    participant.ID,
		ParticipantEmail: participant.Email,
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/allocation_alert_email.html", templateData)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела алерта: %w", err)
	}
	return s.SendEmail([]string{s.cfg.AdminEmail}, subject, htmlBody)
}
