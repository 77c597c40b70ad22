package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrUnsupportedChain    = errors.New("unsupported chain")
	ErrSignerNotConfigured = errors.New("signer wallet is not configured")
)

// Contract execution errors
var (
	ErrInvalidAbiDocument = errors.New("invalid abi document")
	ErrInvalidAbiEncoding = errors.New("invalid abi encoding")
	ErrInvalidAddress     = errors.New("invalid contract address")
	ErrUnknownFunction    = errors.New("unknown function")
	ErrEncodingFailed     = errors.New("encoding failed")
	ErrEmptyResponse      = errors.New("empty response")
	ErrDecodingFailed     = errors.New("decoding failed")
	ErrInvalidNonce       = errors.New("invalid nonce")
	ErrTxNotRecorded      = errors.New("transaction sent but not recorded")
)

// AppError represents application error with HTTP status
type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, "ERR_NOT_FOUND", message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "ERR_BAD_REQUEST", message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, "ERR_UNAUTHORIZED", message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, "ERR_FORBIDDEN", message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, "ERR_CONFLICT", message, ErrAlreadyExists)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "ERR_INTERNAL", "internal server error", err)
}

func BadGateway(err error) *AppError {
	return NewAppError(http.StatusBadGateway, "ERR_NODE", "node request failed", err)
}

// Known reports whether err wraps one of the domain sentinels.
func Known(err error) bool {
	for _, sentinel := range []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthorized, ErrForbidden,
		ErrUnsupportedChain, ErrSignerNotConfigured, ErrInvalidAbiDocument, ErrInvalidAbiEncoding,
		ErrInvalidAddress, ErrUnknownFunction, ErrEncodingFailed, ErrEmptyResponse,
		ErrDecodingFailed, ErrInvalidNonce, ErrTxNotRecorded,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// FromContractError maps contract execution failures onto HTTP-facing errors.
// Errors outside the contract taxonomy are treated as upstream node failures.
func FromContractError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, "ERR_NOT_FOUND", err.Error(), err)
	case errors.Is(err, ErrAlreadyExists):
		return NewAppError(http.StatusConflict, "ERR_CONFLICT", err.Error(), err)
	case errors.Is(err, ErrUnknownFunction):
		return NewAppError(http.StatusNotFound, "ERR_UNKNOWN_FUNCTION", err.Error(), err)
	case errors.Is(err, ErrInvalidAbiDocument), errors.Is(err, ErrInvalidAbiEncoding):
		return NewAppError(http.StatusBadRequest, "ERR_INVALID_ABI", err.Error(), err)
	case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidInput):
		return NewAppError(http.StatusBadRequest, "ERR_BAD_REQUEST", err.Error(), err)
	case errors.Is(err, ErrEncodingFailed):
		return NewAppError(http.StatusUnprocessableEntity, "ERR_ENCODING_FAILED", err.Error(), err)
	case errors.Is(err, ErrSignerNotConfigured), errors.Is(err, ErrUnsupportedChain):
		return NewAppError(http.StatusUnprocessableEntity, "ERR_NOT_CONFIGURED", err.Error(), err)
	case errors.Is(err, ErrTxNotRecorded):
		return NewAppError(http.StatusInternalServerError, "ERR_TX_NOT_RECORDED", err.Error(), err)
	case errors.Is(err, ErrEmptyResponse), errors.Is(err, ErrDecodingFailed), errors.Is(err, ErrInvalidNonce):
		return NewAppError(http.StatusBadGateway, "ERR_BAD_NODE_RESPONSE", err.Error(), err)
	default:
		return BadGateway(err)
	}
}
