package alert

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid notifier configuration")
	ErrDeliveryFailed = errors.New("failed to deliver alert")
	ErrNoRecipient    = errors.New("no admin recipient configured")
	ErrEmptyAlert     = errors.New("alert has no category")
)
