package domain

import "time"

// UserRole is the staff role controlling what a user may do.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleCashier UserRole = "CASHIER"
)

// AtLeast reports whether r grants the privileges of required.
// ADMIN > MANAGER > CASHIER.
func (r UserRole) AtLeast(required UserRole) bool {
	rank := map[UserRole]int{RoleCashier: 1, RoleManager: 2, RoleAdmin: 3}
	return rank[r] >= rank[required]
}

// User is a staff member and the actor identity on every mutation.
type User struct {
	UserID       string   `json:"userID"` // Primary key (UUID)
	Username     string   `json:"username"` // Unique login name
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	PasswordHash string   `json:"-"`
	IsActive     bool     `json:"isActive"`
	AuditFields

	// Refresh token state; only the hash is stored.
	RefreshTokenHash       *string    `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`
}
