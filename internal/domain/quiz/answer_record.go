package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AnswerRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AttemptID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_answer_attempt_question" json:"attempt_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_answer_attempt_question" json:"question_id"`

	SubmittedValue datatypes.JSON `gorm:"type:jsonb;column:submitted_value" json:"submitted_value"`
	SubmittedAt    time.Time      `gorm:"not null;column:submitted_at" json:"submitted_at"`
	IsCorrect      bool           `gorm:"not null;column:is_correct" json:"is_correct"`
	PointsAwarded  float64        `gorm:"not null;default:0;column:points_awarded" json:"points_awarded"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (AnswerRecord) TableName() string { return "quiz_answer_record" }
