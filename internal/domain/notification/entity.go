package notification

import "time"

type ReceiptKind string

const (
	ReceiptKindSalary     ReceiptKind = "salary"
	ReceiptKindCommission ReceiptKind = "commission"
)

// ReceiptDelivery is everything a channel needs to tell an employee a receipt is ready.
type ReceiptDelivery struct {
	ReceiptID    string
	Kind         ReceiptKind
	EmployeeID   string
	EmployeeName string
	Email        string
	Period       string
	Amount       string
	PaymentDate  *time.Time
}
