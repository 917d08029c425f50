package expense

import (
	"strings"

	"github.com/frahmantamala/expenseflow/internal"
)

// Status is the lifecycle tag of an expense. Approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is what an approver does to a pending expense.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func ParseStatus(value string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, true
	default:
		return "", false
	}
}

func (s Status) String() string {
	return string(s)
}

// Transition returns the status reached by applying d to from. Only pending
// expenses can be decided; every other combination is ErrInvalidExpenseStatus.
func Transition(from Status, d Decision) (Status, error) {
	switch from {
	case StatusPending:
		switch d {
		case DecisionApprove:
			return StatusApproved, nil
		case DecisionReject:
			return StatusRejected, nil
		default:
			return from, internal.ErrInvalidExpenseStatus
		}
	case StatusApproved, StatusRejected:
		return from, internal.ErrInvalidExpenseStatus
	default:
		return from, internal.ErrInvalidExpenseStatus
	}
}
