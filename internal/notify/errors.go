package notify

import (
	"fmt"
	"net/http"

	"teknologiumum.com/pesto/models"
)

type DeliveryKind string

const (
	BadRequest          DeliveryKind = "bad_request"
	Unauthorized        DeliveryKind = "unauthorized"
	Forbidden           DeliveryKind = "forbidden"
	NotFound            DeliveryKind = "not_found"
	RequestTimeout      DeliveryKind = "request_timeout"
	UnprocessableEntity DeliveryKind = "unprocessable_entity"
	TooManyRequests     DeliveryKind = "too_many_requests"
	InternalServerError DeliveryKind = "internal_server_error"
	UnderMaintenance    DeliveryKind = "under_maintenance"
	Network             DeliveryKind = "network"
)

var deliveryMessages = map[DeliveryKind]string{
	BadRequest:          "the mail provider rejected the request",
	Unauthorized:        "the mail provider API key is invalid",
	Forbidden:           "the mail provider denied the action for this account or key",
	NotFound:            "the mail provider resource does not exist",
	RequestTimeout:      "the mail provider timed out",
	UnprocessableEntity: "the mail provider found a validation error",
	TooManyRequests:     "too many requests were made to the mail provider",
	InternalServerError: "the mail provider failed internally",
	UnderMaintenance:    "the mail provider is unavailable, try again later",
	Network:             "could not reach the mail provider",
}

// DeliveryError describes why a message could not be handed to the provider.
type DeliveryError struct {
	Kind   DeliveryKind
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify: %s (status %d): %v", deliveryMessages[e.Kind], e.Status, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is makes provider outages match models.ErrBackendUnavailable.
func (e *DeliveryError) Is(target error) bool {
	return target == models.ErrBackendUnavailable && e.Retryable()
}

// Retryable reports whether sending the same message again may succeed.
func (e *DeliveryError) Retryable() bool {
	switch e.Kind {
	case Network, RequestTimeout, TooManyRequests, InternalServerError, UnderMaintenance:
		return true
	}
	return false
}

func classify(status int, err error) *DeliveryError {
	kind := Network
	switch status {
	case http.StatusBadRequest:
		kind = BadRequest
	case http.StatusUnauthorized:
		kind = Unauthorized
	case http.StatusForbidden:
		kind = Forbidden
	case http.StatusNotFound:
		kind = NotFound
	case http.StatusRequestTimeout:
		kind = RequestTimeout
	case http.StatusUnprocessableEntity:
		kind = UnprocessableEntity
	case http.StatusTooManyRequests:
		kind = TooManyRequests
	case http.StatusInternalServerError:
		kind = InternalServerError
	case http.StatusServiceUnavailable:
		kind = UnderMaintenance
	}
	return &DeliveryError{Kind: kind, Status: status, Err: err}
}
