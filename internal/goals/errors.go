package goals

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports field problems caught before the request is
// sent. A goal that fails validation never reaches the network.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "goal validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "goal validation failed: " + strings.Join(parts, "; ")
}

// NetworkError wraps transport failures, timeouts included. The remote
// server was never reached or never answered.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("goal %s request failed: %s", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NotFoundError means the server no longer knows the goal id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("goal %d not found", e.ID)
}

// ConflictError means a conditional update lost the race, the goal
// changed on the server after it was last fetched.
type ConflictError struct {
	ID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("goal %d was modified concurrently", e.ID)
}

// ServerError carries any other non-2xx answer.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("goal server returned %d: %s", e.StatusCode, e.Body)
}
