package domain

// Role differentiates end-users from department admins.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Caller is the identity resolved for an inbound request.
type Caller struct {
	ID         int64
	Role       Role
	Department Department
}

// IsAdmin reports whether the caller acts with admin scope.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
