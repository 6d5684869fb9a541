package email

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// EmailService defines the interface for sending emails
type EmailService interface {
	SendPayslip(to string, data PayslipEmail, attachment Attachment) error
	SendLoanStatusChanged(to string, data LoanStatusEmail) error
	SendAdvanceStatusChanged(to string, data AdvanceStatusEmail) error
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	sendMail  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	backoff   time.Duration
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
		sendMail:  smtp.SendMail,
		backoff:   time.Second,
	}, nil
}

type PayslipEmail struct {
	EmployeeName string
	Period       string
	NetSalary    string
	PaidAt       string
}

// SendPayslip sends the payslip workbook of one paid payroll item
func (s *emailServiceImpl) SendPayslip(to string, data PayslipEmail, attachment Attachment) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "payslip.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.send(to, fmt.Sprintf("Payslip %s", data.Period), body.String(), &attachment)
}

type LoanStatusEmail struct {
	EmployeeName       string
	Amount             string
	MonthlyInstallment string
	RemainingBalance   string
	Status             string
	Reason             string
}

// SendLoanStatusChanged notifies the employee that a loan was approved, rejected or fully repaid
func (s *emailServiceImpl) SendLoanStatusChanged(to string, data LoanStatusEmail) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "loan_status.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.send(to, fmt.Sprintf("Loan %s", data.Status), body.String(), nil)
}

type AdvanceStatusEmail struct {
	EmployeeName  string
	Amount        string
	RepaymentDate string
	Status        string
	Reason        string
}

// SendAdvanceStatusChanged notifies the employee that a salary advance was approved or rejected
func (s *emailServiceImpl) SendAdvanceStatusChanged(to string, data AdvanceStatusEmail) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "advance_status.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.send(to, fmt.Sprintf("Salary advance %s", data.Status), body.String(), nil)
}

func (s *emailServiceImpl) send(to, subject, htmlBody string, attachment *Attachment) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	message, err := buildMessage(s.cfg.FromName, s.cfg.From, to, subject, htmlBody, attachment)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := s.sendMail(addr, auth, s.cfg.From, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Wait before retrying (exponential backoff: 1s, 2s, 4s)
		if attempt < maxRetries {
			time.Sleep(time.Duration(1<<(attempt-1)) * s.backoff)
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

func buildMessage(fromName, from, to, subject, htmlBody string, attachment *Attachment) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", mime.QEncoding.Encode("UTF-8", fromName)+" <"+from+">")
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if attachment == nil {
		buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		buf.WriteString(htmlBody)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=\"UTF-8\""},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create html part: %w", err)
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return nil, fmt.Errorf("failed to write html part: %w", err)
	}

	filePart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {attachment.ContentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Filename})},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(attachment.Content)
	for len(encoded) > 76 {
		if _, err := filePart.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return nil, fmt.Errorf("failed to write attachment: %w", err)
		}
		encoded = encoded[76:]
	}
	if _, err := filePart.Write([]byte(encoded + "\r\n")); err != nil {
		return nil, fmt.Errorf("failed to write attachment: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), nil
}
