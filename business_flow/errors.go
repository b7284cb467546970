// Package businessflow contains the core business logic for queue and ticket management
package businessflow

import (
	"errors"
	"fmt"

	"github.com/arvand/waitline/models"
)

// Business flow error constants
var (
	// Queue-related errors
	ErrQueueNotFound     = errors.New("queue not found")
	ErrQueueInactive     = errors.New("queue is inactive")
	ErrQueueAccessDenied = errors.New("queue access denied")
	ErrQueueNameTaken    = errors.New("queue name already in use")

	// Ticket-related errors
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrIllegalTransition  = errors.New("operation not allowed in current status")
	ErrServingConflict    = errors.New("another ticket is being served")
	ErrInvariantViolation = errors.New("queue invariant violated")

	// Analytics errors
	ErrInvalidPeriod = errors.New("invalid analytics period")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// ServingConflictError is returned by Assign when the queue already has a
// serving ticket. It carries the blocking ticket so the caller can show who
// must finish first.
type ServingConflictError struct {
	ServingTicket *models.Ticket
}

func (e *ServingConflictError) Error() string {
	return fmt.Sprintf("ticket %d is already being served", e.ServingTicket.Number)
}

func (e *ServingConflictError) Unwrap() error {
	return ErrServingConflict
}

func IsQueueNotFound(err error) bool {
	return errors.Is(err, ErrQueueNotFound)
}

func IsQueueInactive(err error) bool {
	return errors.Is(err, ErrQueueInactive)
}

func IsQueueAccessDenied(err error) bool {
	return errors.Is(err, ErrQueueAccessDenied)
}

func IsQueueNameTaken(err error) bool {
	return errors.Is(err, ErrQueueNameTaken)
}

func IsTicketNotFound(err error) bool {
	return errors.Is(err, ErrTicketNotFound)
}

func IsIllegalTransition(err error) bool {
	return errors.Is(err, ErrIllegalTransition)
}

func IsServingConflict(err error) bool {
	return errors.Is(err, ErrServingConflict)
}

func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

func IsInvalidPeriod(err error) bool {
	return errors.Is(err, ErrInvalidPeriod)
}
