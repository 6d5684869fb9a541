package payslip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/storage"
)

var ErrNoRecipient = errors.New("employee has no email address")

// Notifier renders a paid item's payslip, archives it and emails it to the employee.
type Notifier struct {
	storage      storage.FileStorage
	emailService email.EmailService
}

func NewNotifier(fileStorage storage.FileStorage, emailService email.EmailService) payroll.PayslipNotifier {
	return &Notifier{
		storage:      fileStorage,
		emailService: emailService,
	}
}

// ArchivePath is where a payslip workbook is stored.
func ArchivePath(run payroll.Run, item payroll.Item) string {
	return fmt.Sprintf("payslips/%s/%s/%s.xlsx", run.CompanyID, run.ID, item.ID)
}

// Notify returns an error wrapping payroll.ErrNotificationFailure when any step fails.
func (n *Notifier) Notify(ctx context.Context, run payroll.Run, item payroll.Item) error {
	content, err := spreadsheet.Payslip(run, item)
	if err != nil {
		return fmt.Errorf("%w: render payslip: %w", payroll.ErrNotificationFailure, err)
	}

	if n.storage != nil {
		path, err := n.storage.Upload(ctx, bytes.NewReader(content), ArchivePath(run, item), spreadsheet.ContentType)
		if err != nil {
			return fmt.Errorf("%w: archive payslip: %w", payroll.ErrNotificationFailure, err)
		}
		slog.Debug("payslip archived", "run_id", run.ID, "item_id", item.ID, "path", path)
	}

	if item.EmployeeEmail == nil || *item.EmployeeEmail == "" {
		return fmt.Errorf("%w: %w", payroll.ErrNotificationFailure, ErrNoRecipient)
	}

	data := email.PayslipEmail{
		Period:    run.Period().String(),
		NetSalary: item.NetSalary.StringFixed(2),
	}
	if item.EmployeeName != nil {
		data.EmployeeName = *item.EmployeeName
	}
	if item.PaidAt != nil {
		data.PaidAt = item.PaidAt.Format(time.DateOnly)
	}

	err = n.emailService.SendPayslip(*item.EmployeeEmail, data, email.Attachment{
		Filename:    spreadsheet.PayslipFilename(run, item),
		ContentType: spreadsheet.ContentType,
		Content:     content,
	})
	if err != nil {
		return fmt.Errorf("%w: send payslip email: %w", payroll.ErrNotificationFailure, err)
	}
	return nil
}
