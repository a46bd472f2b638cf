// Package errs defines the error kinds shared across the delivery engine.
// Handlers map kinds to HTTP statuses; business logic wraps these sentinels
// with fmt.Errorf so callers can classify failures with errors.Is.
package errs

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation indicates a malformed or incomplete input, as opposed
	// to an entitlement problem.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized indicates a missing or unidentifiable caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller without sufficient
	// permissions for the requested tenant level.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrNotConfigured indicates no usable SMS credential or provider
	// exists at any tier of the tenant hierarchy. This is a configuration
	// problem, not a transient carrier failure.
	ErrNotConfigured = errors.New("sms not configured")

	// ErrDecryptFailed indicates a stored credential secret could not be
	// decrypted: the stored configuration is corrupt or the process key
	// rotated without re-encryption.
	ErrDecryptFailed = errors.New("credential decryption failed")

	// ErrWebhookConfig indicates the carrier rejected or could not satisfy
	// a webhook provisioning call (number not found, remote error).
	ErrWebhookConfig = errors.New("webhook configuration failed")

	// ErrSMSFailed indicates every eligible provider was attempted and
	// all of them failed.
	ErrSMSFailed = errors.New("sms delivery failed")

	// ErrDatabase indicates a storage-layer failure surfaced to the caller.
	ErrDatabase = errors.New("database error")

	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// Code returns the stable machine-readable code for an error kind.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "INSUFFICIENT_PERMISSIONS"
	case errors.Is(err, ErrNotConfigured):
		return "NOT_CONFIGURED"
	case errors.Is(err, ErrDecryptFailed):
		return "DECRYPT_FAILED"
	case errors.Is(err, ErrWebhookConfig):
		return "WEBHOOK_CONFIG_FAILED"
	case errors.Is(err, ErrSMSFailed):
		return "SMS_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDatabase):
		return "DATABASE_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus maps an error kind to the status the API layer should return.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotConfigured):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDecryptFailed), errors.Is(err, ErrWebhookConfig),
		errors.Is(err, ErrSMSFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrDatabase):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
