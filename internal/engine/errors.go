package engine

import "strings"

// Kind classifies an engine failure so the transport layer can pick a status
// code without parsing messages.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindFull                Kind = "full"
	KindClosed              Kind = "closed"
	KindLocked              Kind = "locked"
	KindUnavailable         Kind = "unavailable"
	KindInsufficientPlayers Kind = "insufficient_players"
	KindAlreadyStarted      Kind = "already_started"
	KindNotStarted          Kind = "not_started"
	KindAlreadyDistributed  Kind = "already_distributed"
	KindNotDistributed      Kind = "not_distributed"
	KindOutOfTurn           Kind = "out_of_turn"
	KindInvalidAttribute    Kind = "invalid_attribute"
	KindAttributeNotChosen  Kind = "attribute_not_chosen"
	KindIncomplete          Kind = "incomplete"
)

// Error is a business-rule violation. It carries every message that applied to
// the rejected call, not just the first one.
type Error struct {
	Kind     Kind
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, "; ")
}

// NewError builds a single-rule failure.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Messages: []string{msg}}
}

// Violations accumulates the failures of one operation so the caller receives
// all of them together. The first recorded kind wins.
type Violations struct {
	kind     Kind
	messages []string
}

// Add records one failed rule.
func (v *Violations) Add(kind Kind, msg string) {
	if len(v.messages) == 0 {
		v.kind = kind
	}
	v.messages = append(v.messages, msg)
}

// Empty reports whether no rule has failed.
func (v *Violations) Empty() bool {
	return len(v.messages) == 0
}

// Err returns the accumulated failure, or nil when every rule passed.
func (v *Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Kind: v.kind, Messages: v.messages}
}

// AsError unwraps err into an engine Error, or nil if it is not one.
func AsError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return nil
}
