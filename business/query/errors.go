package query

import "fmt"

// Query errors (spec C9/7): a caller-facing request can fail to resolve into
// solver inputs at all, distinct from the solver simply finding no journey.
var (
	ErrMissingOrigin      = fmt.Errorf("query: request has no origin place")
	ErrMissingDestination = fmt.Errorf("query: request has no destination place")
	ErrMaxDurationTooLarge = fmt.Errorf("query: max journey duration exceeds the calendar's span")
)

// UnresolvedPlaceError reports a stop-point URI that does not resolve
// against the loaded base model's stop registry.
type UnresolvedPlaceError struct {
	StopPointId string
}

func (e *UnresolvedPlaceError) Error() string {
	return fmt.Sprintf("query: stop point %q does not resolve against the loaded base model", e.StopPointId)
}

// TimestampOutOfCalendarError reports a requested departure/arrival time
// falling outside the loaded base model's calendar range.
type TimestampOutOfCalendarError struct {
	Err error
}

func (e *TimestampOutOfCalendarError) Error() string {
	return fmt.Sprintf("query: requested time is outside the calendar range: %s", e.Err)
}

func (e *TimestampOutOfCalendarError) Unwrap() error { return e.Err }

// ErrorId names the RPC-surface error id (spec.md §6, §7) a Response.Error
// carries when a request could not be answered.
type ErrorId int

const (
	// NoError means Response.Journeys holds the answer; Response.Error is
	// the zero value and should be ignored.
	NoError ErrorId = iota
	// InternalError means the request itself could not be resolved into a
	// solver search (unresolved place, out-of-calendar time, bad duration).
	InternalError
	// NoSolution means the solver ran to completion but found no
	// Pareto-optimal journey satisfying the request's constraints.
	NoSolution
)

func (id ErrorId) String() string {
	switch id {
	case InternalError:
		return "InternalError"
	case NoSolution:
		return "NoSolution"
	default:
		return "NoError"
	}
}

// ResponseError is the structured error a failed Response carries, mirroring
// the RPC surface's error{id, message}.
type ResponseError struct {
	Id      ErrorId
	Message string
}
