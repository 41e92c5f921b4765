package apperr

import (
	"errors"
	"fmt"
)

// AuthError means a stored credential is expired or invalid and could not be
// refreshed. The caller must surface it so the user can re-consent.
type AuthError struct {
	Provider string
	Reason   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Provider, e.Reason)
}

// ProviderAPIError is a non-2xx response from an external provider.
type ProviderAPIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// MappingError means a single fetched record could not be mapped into the
// local schema. It is collected per batch, never fatal.
type MappingError struct {
	Entity     string
	ExternalID string
	Field      string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping error: %s %q missing %s", e.Entity, e.ExternalID, e.Field)
}

// InvalidModelResponse means the LLM reply was not the JSON shape we asked
// for. The analysis is aborted and nothing is written.
type InvalidModelResponse struct {
	Kind string
	Raw  string
}

func (e *InvalidModelResponse) Error() string {
	raw := e.Raw
	if len(raw) > 120 {
		raw = raw[:120] + "..."
	}
	return fmt.Sprintf("invalid model response for %s: %q", e.Kind, raw)
}

// QuotaExceededError is a soft-stop condition: the orchestrator halts further
// batches and reports partial progress.
type QuotaExceededError struct {
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d/%d units used", e.Used, e.Limit)
}

func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsProviderAPIError(err error) bool {
	var target *ProviderAPIError
	return errors.As(err, &target)
}

func IsMappingError(err error) bool {
	var target *MappingError
	return errors.As(err, &target)
}

func IsInvalidModelResponse(err error) bool {
	var target *InvalidModelResponse
	return errors.As(err, &target)
}

func IsQuotaExceeded(err error) bool {
	var target *QuotaExceededError
	return errors.As(err, &target)
}
