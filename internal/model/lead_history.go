package model

import (
	"time"
)

// LeadHistory is one append-only entry in a lead's stage-transition ledger.
// A row with a null from_stage records the lead's creation; every later row
// records one observed stage change. Rows are never updated, and are removed
// only when their lead is deleted.
type LeadHistory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	LeadID    uint      `json:"lead_id" gorm:"index;not null"`
	Lead      *Lead     `json:"-" gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
	FromStage *string   `json:"from_stage" gorm:"type:varchar(50)"`
	ToStage   string    `json:"to_stage" gorm:"type:varchar(50);not null"`
	ChangedBy *uint     `json:"changed_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the original singular table name.
func (LeadHistory) TableName() string {
	return "lead_history"
}

// LeadHistoryRow is a history entry joined with the name of the user who
// made the change. The join is a left join: a deleted user leaves a null
// name, not an error.
type LeadHistoryRow struct {
	LeadHistory
	ChangedByName *string `json:"changed_by_name"`
}
