package models

import "strings"

// ActivityEvent is a normalized visibility or focus signal from a client.
type ActivityEvent int

const (
	EventVisible ActivityEvent = iota
	EventHidden
	EventFocus
	EventBlur
)

func (e ActivityEvent) String() string {
	switch e {
	case EventVisible:
		return "visible"
	case EventHidden:
		return "hidden"
	case EventFocus:
		return "focus"
	case EventBlur:
		return "blur"
	}
	return "unknown"
}

// Resumes reports whether the event should start (or keep) the timer
// accruing. The other two events flush it.
func (e ActivityEvent) Resumes() bool {
	return e == EventVisible || e == EventFocus
}

// ParseActivityEvent maps a wire state name onto an event.
func ParseActivityEvent(state string) (ActivityEvent, bool) {
	switch strings.ToLower(state) {
	case "visible":
		return EventVisible, true
	case "hidden":
		return EventHidden, true
	case "focus":
		return EventFocus, true
	case "blur":
		return EventBlur, true
	}
	return 0, false
}
