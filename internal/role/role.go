package role

import "strings"

// Role is the access tier attached to a user.
type Role string

const (
	Admin    Role = "admin"
	Manager  Role = "manager"
	Employee Role = "employee"
)

// Capability names a single action a principal may perform.
type Capability string

const (
	CapSubmitExpense     Capability = "submit_expense"
	CapViewOwnExpenses   Capability = "view_own_expenses"
	CapViewPending       Capability = "view_pending_expenses"
	CapViewAllExpenses   Capability = "view_all_expenses"
	CapDecideExpense     Capability = "decide_expense"
	CapViewUserDirectory Capability = "view_user_directory"
)

var capabilities = map[Role][]Capability{
	Employee: {CapSubmitExpense, CapViewOwnExpenses},
	Manager:  {CapSubmitExpense, CapViewOwnExpenses, CapViewPending, CapViewAllExpenses, CapDecideExpense},
	Admin: {
		CapSubmitExpense, CapViewOwnExpenses, CapViewPending, CapViewAllExpenses, CapDecideExpense,
		CapViewUserDirectory,
	},
}

// Parse maps a stored role value to a Role. Anything unrecognised is an employee.
func Parse(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case Admin:
		return Admin
	case Manager:
		return Manager
	default:
		return Employee
	}
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Can(c Capability) bool {
	for _, granted := range capabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}
