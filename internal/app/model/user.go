package model

type UserRole string

const (
	RoleSuperAdmin     UserRole = "super_admin"
	RoleProductManager UserRole = "product_manager"
	RoleCustomer       UserRole = "customer"
)

// Principal is the authenticated user as returned by the API.
type Principal struct {
	ID    uint     `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Email string   `json:"email" yaml:"email"`
	Role  UserRole `json:"role" yaml:"role"`
}

// HasRole reports whether the principal's role is in the allowed set.
func (p *Principal) HasRole(roles ...UserRole) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
