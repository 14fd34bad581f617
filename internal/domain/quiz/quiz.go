package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ScoringMode string

const (
	// ScoringModeExactSet awards full points only when the selected option
	// set equals the correct option set.
	ScoringModeExactSet ScoringMode = "exact_set"
)

type Quiz struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title               string         `gorm:"not null;column:title" json:"title"`
	Description         string         `gorm:"column:description" json:"description"`
	Instructions        string         `gorm:"column:instructions" json:"instructions"`
	IsActive            bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	TimeLimitSeconds    *int           `gorm:"column:time_limit_seconds" json:"time_limit_seconds,omitempty"`
	MaxAttempts         int            `gorm:"not null;default:1;column:max_attempts" json:"max_attempts"`
	PassingScorePercent float64        `gorm:"not null;default:0;column:passing_score_percent" json:"passing_score_percent"`
	ScoringMode         ScoringMode    `gorm:"not null;default:'exact_set';column:scoring_mode" json:"scoring_mode"`
	ShowFeedback        bool           `gorm:"not null;default:true;column:show_feedback" json:"show_feedback"`
	NotificationEmails  datatypes.JSON `gorm:"type:jsonb;column:notification_emails" json:"notification_emails,omitempty"`
	CreatedBy           string         `gorm:"column:created_by" json:"created_by"`

	Questions []*Question `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"questions,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Quiz) TableName() string { return "quiz" }
