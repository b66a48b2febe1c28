package model

import (
	"time"
)

// Origin is a per-client tag describing where a lead came from. The
// (client_id, name) pair is unique per tenant. Seeded defaults carry
// is_default=true and cannot be deleted, only renamed.
type Origin struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ClientID  uint      `json:"client_id" gorm:"not null;uniqueIndex:idx_origins_client_name"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_origins_client_name"`
	Color     string    `json:"color" gorm:"type:varchar(20)"`
	IsDefault bool      `json:"is_default" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
