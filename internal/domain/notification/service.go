package notification

import "context"

// ReceiptNotifier delivers a receipt to its employee. It is only called by
// the explicit deliver actions of the payroll services.
type ReceiptNotifier interface {
	DeliverReceipt(ctx context.Context, d ReceiptDelivery) error
}
