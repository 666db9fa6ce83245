package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/email"
)

type emailNotifier struct {
	email email.EmailService
}

// NewEmailNotifier delivers receipts synchronously so the caller only moves
// a receipt to SENT once the message has left.
func NewEmailNotifier(emailService email.EmailService) notification.ReceiptNotifier {
	return &emailNotifier{email: emailService}
}

func (n *emailNotifier) DeliverReceipt(ctx context.Context, d notification.ReceiptDelivery) error {
	if d.Email == "" {
		return fmt.Errorf("%s: %w", d.EmployeeID, notification.ErrRecipientMissing)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := email.ReceiptEmailData{
		EmployeeName: d.EmployeeName,
		Kind:         string(d.Kind),
		Period:       d.Period,
		Amount:       d.Amount,
		ReceiptID:    d.ReceiptID,
	}
	if d.PaymentDate != nil {
		data.PaymentDate = d.PaymentDate.Format("2006-01-02")
	}

	if err := n.email.SendReceipt(ctx, d.Email, data); err != nil {
		return fmt.Errorf("%w: %w", notification.ErrDeliveryFailed, err)
	}

	slog.Info("Receipt delivered",
		"receipt_id", d.ReceiptID,
		"kind", d.Kind,
		"employee_id", d.EmployeeID,
	)
	return nil
}
