package internal_evidence

import (
	"encoding/json"
	"time"
)

// Evidence is one logged record of a user action. The payload shape is
// determined by its type; everything lands in the same table with a jsonb
// column, which is the durability mechanism for session responses.
type Evidence struct {
	Id        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	App       string    `json:"app" gorm:"column:app;type:varchar(100);not null"`
	Type      string    `json:"type" gorm:"column:type;type:varchar(100);not null"`
	Version   int       `json:"version" gorm:"column:version;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp;type:timestamp;not null;default:NOW()"`
	JSON      string    `json:"json" gorm:"column:json;type:jsonb;not null"`
}

func (Evidence) TableName() string {
	return "evidence"
}

// Payload unmarshals the stored JSON document.
func (e *Evidence) Payload() (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(e.JSON), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
