package iot

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnknownSensor
	KindUnknownAlert
	KindUnauthorized
	KindDuplicateName
	KindInvalidInput
	KindConflict
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindUnknownSensor:
		return "unknown_sensor"
	case KindUnknownAlert:
		return "unknown_alert"
	case KindUnauthorized:
		return "unauthorized"
	case KindDuplicateName:
		return "duplicate_name"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

// Error is the only error type the core surfaces to its callers. The context
// fields are optional and only set when they help the caller act.
type Error struct {
	Kind          Kind
	Message       string
	SensorID      string
	AlertID       string
	Name          string
	State         string
	CorrelationID string
	Err           error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrUnknownSensor = &Error{Kind: KindUnknownSensor}
	ErrUnknownAlert  = &Error{Kind: KindUnknownAlert}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrDuplicateName = &Error{Kind: KindDuplicateName}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrTransient     = &Error{Kind: KindTransient}
	ErrInternal      = &Error{Kind: KindInternal}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.CorrelationID != "" {
		fmt.Fprintf(&b, " (correlation_id=%s)", e.CorrelationID)
	}
	if e.Err != nil && e.Kind != KindInternal {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

func (e *Error) Code() string { return e.Kind.String() }

// KindOf reports the kind of err. Errors that are not *Error are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func unknownSensor(sensorID string) *Error {
	return &Error{Kind: KindUnknownSensor, Message: "sensor not found", SensorID: sensorID}
}

func unknownAlert(alertID string) *Error {
	return &Error{Kind: KindUnknownAlert, Message: "alert not found", AlertID: alertID}
}

func unauthorized(sensorID string) *Error {
	return &Error{Kind: KindUnauthorized, Message: "owner does not match", SensorID: sensorID}
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func duplicateName(name string, err error) *Error {
	return &Error{Kind: KindDuplicateName, Message: fmt.Sprintf("a sensor named %q already exists", name), Name: name, Err: err}
}

func conflict(alertID, state, msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg, AlertID: alertID, State: state}
}

func NewInvalidInput(format string, args ...any) error {
	return invalidInput(format, args...)
}

// classifyStoreError maps a persistence failure onto the taxonomy. Internal
// errors get a correlation id and are logged here so callers need not.
func classifyStoreError(logger *zap.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTransient, Message: op + " interrupted", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindDuplicateName, Message: op + " violates uniqueness", Err: err}
	case isTransientStoreError(err):
		return &Error{Kind: KindTransient, Message: "store temporarily unavailable", Err: err}
	}

	correlationID := uuid.NewString()
	logger.Error("Store operation failed",
		zap.String("op", op),
		zap.String("correlation_id", correlationID),
		zap.Error(err),
	)
	return &Error{Kind: KindInternal, Message: op + " failed", CorrelationID: correlationID, Err: err}
}

func isTransientStoreError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"sql: database is closed",
		"connection refused",
		"connection reset",
		"too many connections",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
