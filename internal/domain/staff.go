package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAgent   StaffRole = "AGENT"
	StaffRoleManager StaffRole = "MANAGER"
	StaffRoleAuditor StaffRole = "AUDITOR"
	StaffRoleAdmin   StaffRole = "ADMIN"
)

// StaffMember models an operator who can receive escalation notifications.
type StaffMember struct {
	ID        string
	Name      string
	Email     string
	Role      StaffRole
	Active    bool
	CreatedAt time.Time
}
