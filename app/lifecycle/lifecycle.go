// Package lifecycle holds the order state machine.
package lifecycle

import (
	"strings"

	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/apperr"
)

// Status is an order state.
type Status string

const (
	Pending   Status = "PENDING"
	Approved  Status = "APPROVED"
	Completed Status = "COMPLETED"
	Cancelled Status = "CANCELLED"
)

// Statuses lists every state in display order.
var Statuses = []Status{Pending, Approved, Completed, Cancelled}

var transitions = map[Status][]Status{
	Pending:  {Approved, Cancelled},
	Approved: {Completed},
}

// Parse accepts a status name in any case.
func Parse(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

func (s Status) String() string { return string(s) }

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Allowed reports whether from → to is in the transition table.
func Allowed(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next lists the states reachable from s.
func Next(s Status) []Status {
	return append([]Status(nil), transitions[s]...)
}

// Policy decides whether a requested transition is accepted.
type Policy interface {
	Check(from, to Status) error
}

// Strict only accepts transitions from the table.
type Strict struct{}

func (Strict) Check(from, to Status) error {
	if !Allowed(from, to) {
		return apperr.InvalidTransition("lifecycle.Check", from.String(), to.String())
	}
	return nil
}

// Lenient accepts any known status from any state, including terminal ones.
// Admins use it to correct mistakes.
type Lenient struct{}

func (Lenient) Check(_, to Status) error {
	if _, ok := Parse(string(to)); !ok {
		return apperr.Validation("lifecycle.Check", "unknown order status "+string(to), nil)
	}
	return nil
}

// PolicyFromConfig returns the policy named by ORDER_TRANSITION_POLICY.
func PolicyFromConfig() Policy {
	if config.OrderTransitionPolicy() == config.PolicyLenient {
		return Lenient{}
	}
	return Strict{}
}
