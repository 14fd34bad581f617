package quiz

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the immutable view of a quiz an attempt is scored against.
// It is captured when the attempt starts and stored on the attempt row, so
// in-flight attempts are unaffected by later edits to the quiz definition.
type Snapshot struct {
	QuizID              uuid.UUID          `json:"quiz_id"`
	Title               string             `json:"title"`
	TimeLimitSeconds    *int               `json:"time_limit_seconds,omitempty"`
	MaxAttempts         int                `json:"max_attempts"`
	PassingScorePercent float64            `json:"passing_score_percent"`
	ScoringMode         ScoringMode        `json:"scoring_mode"`
	ShowFeedback        bool               `json:"show_feedback"`
	Questions           []SnapshotQuestion `json:"questions"`
}

type SnapshotQuestion struct {
	ID              uuid.UUID    `json:"id"`
	Type            QuestionType `json:"type"`
	Prompt          string       `json:"prompt"`
	Options         []string     `json:"options,omitempty"`
	CorrectOptions  []int        `json:"correct_options,omitempty"`
	AcceptedAnswers []string     `json:"accepted_answers,omitempty"`
	Points          float64      `json:"points"`
	Explanation     string       `json:"explanation,omitempty"`
}

func (s *Snapshot) TimeLimit() (time.Duration, bool) {
	if s.TimeLimitSeconds == nil || *s.TimeLimitSeconds <= 0 {
		return 0, false
	}
	return time.Duration(*s.TimeLimitSeconds) * time.Second, true
}

func (s *Snapshot) TotalPoints() float64 {
	var total float64
	for _, q := range s.Questions {
		total += q.Points
	}
	return total
}

// Validate enforces the quiz invariants the engine depends on.
func (s *Snapshot) Validate() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("quiz %s has no questions", s.QuizID)
	}
	if s.PassingScorePercent < 0 || s.PassingScorePercent > 100 {
		return fmt.Errorf("quiz %s passing score %.2f out of range", s.QuizID, s.PassingScorePercent)
	}
	if s.MaxAttempts < 1 {
		return fmt.Errorf("quiz %s max attempts %d below 1", s.QuizID, s.MaxAttempts)
	}
	for i, q := range s.Questions {
		if q.Points <= 0 {
			return fmt.Errorf("quiz %s question %d has non-positive points", s.QuizID, i)
		}
		switch q.Type {
		case QuestionTypeMultipleChoice:
			if len(q.Options) < 2 {
				return fmt.Errorf("quiz %s question %d needs at least two options", s.QuizID, i)
			}
			if len(q.CorrectOptions) == 0 {
				return fmt.Errorf("quiz %s question %d has no correct option", s.QuizID, i)
			}
			for _, idx := range q.CorrectOptions {
				if idx < 0 || idx >= len(q.Options) {
					return fmt.Errorf("quiz %s question %d correct option %d out of range", s.QuizID, i, idx)
				}
			}
		case QuestionTypeText:
			if len(q.AcceptedAnswers) == 0 {
				return fmt.Errorf("quiz %s question %d has no accepted answers", s.QuizID, i)
			}
		default:
			return fmt.Errorf("quiz %s question %d has unknown type %q", s.QuizID, i, q.Type)
		}
	}
	return nil
}

func (s *Snapshot) QuestionAt(index int) (SnapshotQuestion, bool) {
	if index < 0 || index >= len(s.Questions) {
		return SnapshotQuestion{}, false
	}
	return s.Questions[index], true
}

func SnapshotFromJSON(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode quiz snapshot: %w", err)
	}
	return &s, nil
}

// SubmittedAnswer is the payload a caller submits for one question.
// Multiple choice answers select option indexes; text answers carry a string.
type SubmittedAnswer struct {
	Selected []int  `json:"selected,omitempty"`
	Text     string `json:"text,omitempty"`
}
