package domain

import "time"

// AccountRole enumerates portal access levels.
type AccountRole string

const (
	RoleAdmin  AccountRole = "admin"
	RoleBoard  AccountRole = "board"
	RoleMember AccountRole = "member"
)

// Account is a login for the admin console or the member portal.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         AccountRole
	MemberID     string // empty for staff accounts without a member record
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Staff reports whether the account may use the admin endpoints.
func (a Account) Staff() bool {
	return a.Role == RoleAdmin || a.Role == RoleBoard
}

// CanManageBilling reports whether the account may touch invoices,
// batches and amendments. Board members read, admins write.
func (a Account) CanManageBilling() bool {
	return a.Role == RoleAdmin
}
