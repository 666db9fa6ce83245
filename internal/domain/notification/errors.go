package notification

import "errors"

var (
	ErrRecipientMissing = errors.New("employee has no email address for delivery")
	ErrDeliveryFailed   = errors.New("receipt delivery failed")
)
