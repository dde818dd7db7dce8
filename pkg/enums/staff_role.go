package enums

import "fmt"

// StaffRole captures the capability set of a staff member.
type StaffRole string

const (
	StaffRoleAdmin     StaffRole = "admin"
	StaffRoleStylist   StaffRole = "stylist"
	StaffRoleFrontDesk StaffRole = "front_desk"
)

var validStaffRoles = []StaffRole{
	StaffRoleAdmin,
	StaffRoleStylist,
	StaffRoleFrontDesk,
}

// String implements fmt.Stringer.
func (r StaffRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known StaffRole.
func (r StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanProvideServices reports whether the role may be booked for appointments.
func (r StaffRole) CanProvideServices() bool {
	return r == StaffRoleStylist || r == StaffRoleAdmin
}

// CanSell reports whether the role may act as the seller on a sale.
func (r StaffRole) CanSell() bool {
	return r == StaffRoleFrontDesk || r == StaffRoleStylist || r == StaffRoleAdmin
}

// ParseStaffRole converts raw input into a StaffRole.
func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
