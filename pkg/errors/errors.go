package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"warehouse-ledger/internal/domain"
)

// StandardError represents a standardized error response
type StandardError struct {
	Code    string `json:"error"`   // Error code/type (e.g., "InvalidRequest", "InsufficientStock")
	Message string `json:"message"` // Human-readable error message
	Details string `json:"details"` // Additional details (field name, quantities, etc.)
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case "InvalidRequest", "ValidationError", "InvalidQuantity", "InvalidGoodsReceipt", "InvalidStockKey":
		return http.StatusBadRequest
	case "Unauthorized":
		return http.StatusUnauthorized
	case "StockLevelNotFound", "ReservationNotFound", "PurchaseOrderNotFound", "PurchaseOrderLineNotFound", "ResourceNotFound":
		return http.StatusNotFound
	case "InsufficientStock", "InvalidReservationState", "CountBelowCommitted", "Conflict":
		return http.StatusConflict
	case "OverReceipt":
		return http.StatusUnprocessableEntity
	case "TooManyRequests":
		return http.StatusTooManyRequests
	case "BrokerConnectionError", "ServiceUnavailable":
		return http.StatusServiceUnavailable
	case "SerializationError", "DatabaseError", "InternalError", "LedgerWriteFailure":
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewStandardError creates a new StandardError
func NewStandardError(errorCode, message, details string) *StandardError {
	return &StandardError{
		Code:    errorCode,
		Message: message,
		Details: details,
	}
}

// FromDomain maps a domain error, possibly wrapped, to a StandardError.
// Anything that is not a domain error becomes an InternalError.
func FromDomain(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	var domainErr *domain.DomainError
	if stderrors.As(err, &domainErr) {
		return NewStandardError(domainErr.Code, domainErr.Message, err.Error())
	}
	return NewInternalError("internal server error", err)
}

// Common error constructors
func NewInvalidRequest(message, details string) *StandardError {
	return NewStandardError("InvalidRequest", message, details)
}

func NewValidationError(message, field string) *StandardError {
	return NewStandardError("ValidationError", message, fmt.Sprintf("Field: %s", field))
}

func NewUnauthorized(message string) *StandardError {
	return NewStandardError("Unauthorized", message, "")
}

func NewConflict(message string, err error) *StandardError {
	return NewStandardError("Conflict", message, err.Error())
}

func NewDatabaseError(operation string, err error) *StandardError {
	return NewStandardError("DatabaseError", fmt.Sprintf("database operation failed: %s", operation), err.Error())
}

func NewBrokerConnectionError(err error) *StandardError {
	return NewStandardError("BrokerConnectionError", "failed to connect to event broker", err.Error())
}

func NewServiceUnavailable(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return NewStandardError("ServiceUnavailable", message, details)
}

func NewInternalError(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return NewStandardError("InternalError", message, details)
}
