package model

import (
	"time"
)

// User roles. Clients own CRM data (origins, funnels, leads); admins manage
// users and may inspect any client's data.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User account statuses. Inactive users cannot log in.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User represents an account stored in the database. A client user is also
// the tenant that owns its origins, funnels and leads.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	Name      string    `json:"name" gorm:"type:varchar(100)"`
	Role      string    `json:"role" gorm:"type:varchar(20);default:client"`
	Status    string    `json:"status" gorm:"type:varchar(20);default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleClient
}

// ValidStatus reports whether status is one of the known account statuses.
func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusInactive
}
