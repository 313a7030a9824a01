package domain

import "time"

// Role enumerates the fixed account roles.
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleOperator  Role = "OPERATOR"
	RoleExecutor  Role = "EXECUTOR"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleOperator, RoleExecutor:
		return true
	}
	return false
}

// Display returns the human-readable role label.
func (r Role) Display() string {
	switch r {
	case RoleRequester:
		return "Requester"
	case RoleOperator:
		return "Operator"
	case RoleExecutor:
		return "Executor"
	}
	return string(r)
}

// User is the domain model for accounts across all three roles.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	Phone        *string
	Department   *string
	JoinedAt     time.Time
	UpdatedAt    time.Time
}
