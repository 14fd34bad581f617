package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeText           QuestionType = "text"
)

type Question struct {
	ID         uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"quiz_id"`
	OrderIndex int          `gorm:"not null;column:order_index" json:"order_index"`
	Type       QuestionType `gorm:"not null;default:'multiple_choice';column:type" json:"type"`
	Prompt     string       `gorm:"not null;column:prompt" json:"prompt"`

	// Options is a JSON array of option strings (multiple choice only).
	Options datatypes.JSON `gorm:"type:jsonb;column:options" json:"options,omitempty"`
	// CorrectOptions is a JSON array of indexes into Options (multiple choice).
	CorrectOptions datatypes.JSON `gorm:"type:jsonb;column:correct_options" json:"-"`
	// AcceptedAnswers is a JSON array of accepted strings (text questions).
	AcceptedAnswers datatypes.JSON `gorm:"type:jsonb;column:accepted_answers" json:"-"`

	Points      float64 `gorm:"not null;default:1;column:points" json:"points"`
	Explanation string  `gorm:"column:explanation" json:"explanation,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string { return "quiz_question" }
