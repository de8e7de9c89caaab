package webhook

import "errors"

var (
	ErrInvalidConfiguration = errors.New("webhook: invalid configuration")
	ErrInvalidPayload       = errors.New("webhook: invalid payload")
	ErrInvalidSignature     = errors.New("webhook: invalid signature")
	ErrInvalidURL           = errors.New("webhook: invalid URL")
	ErrStaleEvent           = errors.New("webhook: event timestamp outside accepted window")

	ErrDeliveryFailed   = errors.New("webhook: delivery failed")
	ErrPermanentFailure = errors.New("webhook: permanent failure")

	ErrQueueFull         = errors.New("webhook: dispatch queue is full")
	ErrDispatcherStopped = errors.New("webhook: dispatcher is stopped")
)
