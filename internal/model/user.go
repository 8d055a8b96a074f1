package model

import "time"

// DefaultDepartment is assigned to every officer account
const DefaultDepartment = "Andhra Pradesh Police"

// Role is an officer's position in the station hierarchy
type Role string

const (
	RoleSHO   Role = "SHO"   // Station House Officer
	RoleIO    Role = "IO"    // Investigating Officer
	RoleSP    Role = "SP"    // Superintendent of Police
	RoleAdmin Role = "Admin" // System administrator
)

// Valid reports whether r is one of the fixed roles
func (r Role) Valid() bool {
	switch r {
	case RoleSHO, RoleIO, RoleSP, RoleAdmin:
		return true
	}
	return false
}

// User is an officer account
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	Role         Role       `json:"role"`
	BadgeNumber  string     `json:"badgeNumber"`
	StationID    string     `json:"stationId,omitempty"`
	Department   string     `json:"department"`
	Designation  string     `json:"designation,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	PasswordHash string     `json:"-"`
}
