package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Stage is one step of a funnel pipeline. Its ID is a slug local to the
// funnel; leads store this slug in their stage column.
type Stage struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// StageList is the ordered stage definitions of a funnel, persisted as a
// single JSON document in the funnels.stages column.
type StageList []Stage

// Value implements driver.Valuer, serializing the stages to JSON.
func (s StageList) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner, deserializing the stages from JSON.
func (s *StageList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return errors.New("incompatible type for StageList")
}

// Contains reports whether the funnel defines a stage with the given id.
func (s StageList) Contains(stageID string) bool {
	for _, stage := range s {
		if stage.ID == stageID {
			return true
		}
	}
	return false
}

// Funnel is a per-client pipeline of ordered stages. Each client has exactly
// one funnel with is_default=true, provisioned at seeding time; the default
// funnel cannot be deleted.
type Funnel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ClientID  uint      `json:"client_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Stages    StageList `json:"stages" gorm:"type:jsonb"`
	IsDefault bool      `json:"is_default" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
