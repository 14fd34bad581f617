package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SystemLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventType string         `gorm:"not null;index;column:event_type" json:"event_type"`
	Message   string         `gorm:"not null;column:message" json:"message"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	Metadata  datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_log" }
