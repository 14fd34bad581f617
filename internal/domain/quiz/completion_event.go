package quiz

import (
	"time"

	"github.com/google/uuid"
)

// CompletionEvent is the exactly-once record of an attempt reaching
// completed or expired. The row is inserted in the same transaction as the
// terminal state transition; the unique attempt_id makes a second insert
// impossible, so downstream delivery can be retried safely.
type CompletionEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AttemptID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"attempt_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	QuizID    uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`

	FinalScorePercent float64          `gorm:"not null;column:final_score_percent" json:"final_score_percent"`
	Passed            bool             `gorm:"not null;column:passed" json:"passed"`
	CompletedAt       time.Time        `gorm:"not null;column:completed_at" json:"completed_at"`
	Reason            CompletionReason `gorm:"not null;column:reason" json:"completion_reason"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (CompletionEvent) TableName() string { return "quiz_completion_event" }
