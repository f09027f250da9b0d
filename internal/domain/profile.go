package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleEmployee   Role = "employee"
	RoleSuperAdmin Role = "super_admin"
)

type Profile struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Nickname     string    `json:"nickname,omitempty"`
	ClientName   string    `json:"client_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsStaff reports whether the profile may triage orders.
func (p *Profile) IsStaff() bool {
	return p.Role == RoleEmployee || p.Role == RoleSuperAdmin
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleSuperAdmin
}
