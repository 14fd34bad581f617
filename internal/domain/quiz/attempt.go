package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AttemptState string

const (
	AttemptStateInProgress AttemptState = "in_progress"
	AttemptStateCompleted  AttemptState = "completed"
	AttemptStateExpired    AttemptState = "expired"
	AttemptStateAbandoned  AttemptState = "abandoned"
)

func (s AttemptState) Terminal() bool {
	return s == AttemptStateCompleted || s == AttemptStateExpired || s == AttemptStateAbandoned
}

type CompletionReason string

const (
	CompletionReasonAnswered CompletionReason = "answered"
	CompletionReasonExpired  CompletionReason = "expired"
)

// Attempt is one user's run through a quiz. The session engine holds
// exclusive write authority over a row while it is in progress; terminal
// rows are immutable history.
type Attempt struct {
	ID            uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;index:idx_attempt_user_quiz" json:"user_id"`
	QuizID        uuid.UUID    `gorm:"type:uuid;not null;index:idx_attempt_user_quiz" json:"quiz_id"`
	AttemptNumber int          `gorm:"not null;column:attempt_number" json:"attempt_number"`
	State         AttemptState `gorm:"not null;default:'in_progress';index;column:state" json:"state"`

	StartedAt time.Time  `gorm:"not null;column:started_at" json:"started_at"`
	ExpiresAt *time.Time `gorm:"index;column:expires_at" json:"expires_at,omitempty"`

	CurrentQuestionIndex int `gorm:"not null;default:0;column:current_question_index" json:"current_question_index"`

	// QuizSnapshot is the serialized Snapshot captured at start time.
	QuizSnapshot datatypes.JSON `gorm:"type:jsonb;not null;column:quiz_snapshot" json:"-"`

	FinalScorePercent *float64          `gorm:"column:final_score_percent" json:"final_score_percent,omitempty"`
	Passed            *bool             `gorm:"column:passed" json:"passed,omitempty"`
	CompletedAt       *time.Time        `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CompletionReason  *CompletionReason `gorm:"column:completion_reason" json:"completion_reason,omitempty"`
	TimeTakenSeconds  *int              `gorm:"column:time_taken_seconds" json:"time_taken_seconds,omitempty"`

	Answers []*AnswerRecord `gorm:"constraint:OnDelete:CASCADE;foreignKey:AttemptID;references:ID" json:"answers,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Attempt) TableName() string { return "quiz_attempt" }

func (a *Attempt) Snapshot() (*Snapshot, error) {
	return SnapshotFromJSON(a.QuizSnapshot)
}
