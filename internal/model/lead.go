package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringList stores a set of free-text tags as a JSON array.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("incompatible type for StringList")
}

// Lead represents a sales lead owned by a client. Its stage column holds a
// stage slug belonging to the referenced funnel; origin is a denormalized
// string, not a foreign key, so renaming or deleting an Origin never touches
// existing leads.
type Lead struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	ClientID  uint       `json:"client_id" gorm:"index;not null"`
	FunnelID  uint       `json:"funnel_id" gorm:"index;not null"`
	Funnel    *Funnel    `json:"-" gorm:"foreignKey:FunnelID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Name      string     `json:"name" gorm:"type:varchar(100);not null"`
	Email     *string    `json:"email" gorm:"type:varchar(100)"`
	Phone     *string    `json:"phone" gorm:"type:varchar(30)"`
	Origin    string     `json:"origin" gorm:"type:varchar(100)"`
	Stage     string     `json:"stage" gorm:"type:varchar(50);not null"`
	Tags      StringList `json:"tags" gorm:"type:jsonb"`
	Notes     *string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LeadRow is a lead joined with its funnel's display name, the shape list
// and get endpoints return.
type LeadRow struct {
	Lead
	FunnelName string `json:"funnel_name"`
}
