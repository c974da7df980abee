package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// Common error types for the node upgrader
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInventory indicates the account inventory could not be read
	ErrInventory = errors.New("account inventory unavailable")

	// ErrCredential indicates a role could not be assumed for an account
	ErrCredential = errors.New("credential error")

	// ErrScan indicates a control-plane enumeration call failed
	ErrScan = errors.New("scan error")

	// ErrDispatch indicates an upgrade could not be started
	ErrDispatch = errors.New("dispatch error")

	// ErrPoll indicates an upgrade status read failed
	ErrPoll = errors.New("poll error")

	// ErrInvalidTransition indicates a job state change that would move backwards
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrShutdown indicates the system is shutting down
	ErrShutdown = errors.New("system shutting down")
)

// AccountRegionError wraps an error with account and region context
type AccountRegionError struct {
	AccountID string
	Region    string
	Err       error
}

// Error implements the error interface
func (e *AccountRegionError) Error() string {
	return fmt.Sprintf("account %s region %s: %v", e.AccountID, e.Region, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *AccountRegionError) Unwrap() error {
	return e.Err
}

// WrapAccountRegionError wraps an error with account and region context
func WrapAccountRegionError(accountID, region string, err error) error {
	if err == nil {
		return nil
	}
	return &AccountRegionError{
		AccountID: accountID,
		Region:    region,
		Err:       err,
	}
}

// TargetError wraps an error with cluster and node group context
type TargetError struct {
	Cluster   string
	NodeGroup string
	Err       error
}

// Error implements the error interface
func (e *TargetError) Error() string {
	if e.NodeGroup == "" {
		return fmt.Sprintf("cluster %q: %v", e.Cluster, e.Err)
	}
	return fmt.Sprintf("nodegroup %q in cluster %q: %v", e.NodeGroup, e.Cluster, e.Err)
}

// Unwrap returns the wrapped error
func (e *TargetError) Unwrap() error {
	return e.Err
}

// WrapTargetError wraps an error with cluster and node group context.
// An empty nodeGroup reports the error against the cluster only.
func WrapTargetError(cluster, nodeGroup string, err error) error {
	if err == nil {
		return nil
	}
	return &TargetError{
		Cluster:   cluster,
		NodeGroup: nodeGroup,
		Err:       err,
	}
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 { // Limit to first 10 errors in the message
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else if i == 10 {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Len returns the number of collected errors
func (m *MultiError) Len() int {
	return len(m.Errors)
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("validation failed for field %q (value: %v): %s", v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("validation failed for field %q: %s", v.Field, v.Message)
}

// Unwrap ties every validation failure to ErrInvalidConfig
func (v *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsCredentialError checks if an error came from role assumption
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrCredential)
}

// IsScanError checks if an error came from control-plane enumeration
func IsScanError(err error) bool {
	return errors.Is(err, ErrScan)
}

// IsDispatchError checks if an error came from starting an upgrade
func IsDispatchError(err error) bool {
	return errors.Is(err, ErrDispatch)
}

// IsPollError checks if an error came from reading upgrade status
func IsPollError(err error) bool {
	return errors.Is(err, ErrPoll)
}

// APIErrorCode returns the AWS error code carried by err, or "" when err did
// not come from an AWS API response.
func APIErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInventory):
		return "Could not read the account inventory. Please check --accounts-file or the accounts list in your config."
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags."
	case IsCredentialError(err):
		return "Could not obtain AWS credentials. Please check your AWS profile and the assumed role's trust relationship."
	case errors.Is(err, ErrShutdown):
		return "Operation was interrupted by a shutdown signal."
	default:
		return err.Error()
	}
}
