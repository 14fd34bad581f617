package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	quizrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/quiz"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
)

// CatalogEntry is one row of the quiz listing: the quiz plus the caller's
// standing against its attempt limit.
type CatalogEntry struct {
	QuizID              uuid.UUID  `json:"quiz_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	QuestionCount       int        `json:"question_count"`
	TimeLimitSeconds    *int       `json:"time_limit_seconds,omitempty"`
	PassingScorePercent float64    `json:"passing_score_percent"`
	MaxAttempts         int        `json:"max_attempts"`
	AttemptsUsed        int        `json:"attempts_used"`
	AttemptsLeft        int        `json:"attempts_left"`
	InProgressAttemptID *uuid.UUID `json:"in_progress_attempt_id,omitempty"`
}

type AttemptResult struct {
	AttemptID         uuid.UUID              `json:"attempt_id"`
	QuizID            uuid.UUID              `json:"quiz_id"`
	QuizTitle         string                 `json:"quiz_title"`
	AttemptNumber     int                    `json:"attempt_number"`
	State             types.AttemptState     `json:"state"`
	FinalScorePercent *float64               `json:"final_score_percent,omitempty"`
	Passed            *bool                  `json:"passed,omitempty"`
	CompletionReason  types.CompletionReason `json:"completion_reason,omitempty"`
	StartedAt         time.Time              `json:"started_at"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
	TimeTakenSeconds  int                    `json:"time_taken_seconds"`
	Answers           []AnswerDetail         `json:"answers,omitempty"`
}

type AnswerDetail struct {
	QuestionID    uuid.UUID `json:"question_id"`
	Prompt        string    `json:"prompt"`
	IsCorrect     bool      `json:"is_correct"`
	PointsAwarded float64   `json:"points_awarded"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ResultsService serves the read side: the quiz catalog and a user's
// finished attempts.
type ResultsService interface {
	Catalog(ctx context.Context, userID uuid.UUID) ([]CatalogEntry, error)
	MyResults(ctx context.Context, userID uuid.UUID) ([]AttemptResult, error)
	AttemptDetail(ctx context.Context, userID, attemptID uuid.UUID) (*AttemptResult, error)
}

type resultsService struct {
	log      *logger.Logger
	bank     BankService
	attempts quizrepos.AttemptRepo
	answers  quizrepos.AnswerRepo
}

func NewResultsService(baseLog *logger.Logger, bank BankService, attempts quizrepos.AttemptRepo, answers quizrepos.AnswerRepo) ResultsService {
	return &resultsService{
		log:      baseLog.With("service", "ResultsService"),
		bank:     bank,
		attempts: attempts,
		answers:  answers,
	}
}

func (s *resultsService) Catalog(ctx context.Context, userID uuid.UUID) ([]CatalogEntry, error) {
	quizzes, err := s.bank.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]CatalogEntry, 0, len(quizzes))
	for _, q := range quizzes {
		used, err := s.attempts.CountByUserAndQuiz(ctx, nil, userID, q.ID)
		if err != nil {
			return nil, err
		}
		left := q.MaxAttempts - int(used)
		if left < 0 {
			left = 0
		}
		entry := CatalogEntry{
			QuizID:              q.ID,
			Title:               q.Title,
			Description:         q.Description,
			QuestionCount:       len(q.Questions),
			TimeLimitSeconds:    q.TimeLimitSeconds,
			PassingScorePercent: q.PassingScorePercent,
			MaxAttempts:         q.MaxAttempts,
			AttemptsUsed:        int(used),
			AttemptsLeft:        left,
		}
		inProgress, err := s.attempts.FindInProgress(ctx, nil, userID, q.ID)
		if err != nil {
			return nil, err
		}
		if inProgress != nil {
			entry.InProgressAttemptID = &inProgress.ID
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *resultsService) MyResults(ctx context.Context, userID uuid.UUID) ([]AttemptResult, error) {
	attempts, err := s.attempts.ListTerminalByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	results := make([]AttemptResult, 0, len(attempts))
	for _, a := range attempts {
		results = append(results, *summarizeAttempt(a))
	}
	return results, nil
}

// AttemptDetail adds per-answer rows to the summary. Only the owner can see
// an attempt.
func (s *resultsService) AttemptDetail(ctx context.Context, userID, attemptID uuid.UUID) (*AttemptResult, error) {
	a, err := s.attempts.GetByID(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}
	if a == nil || a.UserID != userID {
		return nil, ErrAttemptNotFound
	}

	result := summarizeAttempt(a)
	snap, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	prompts := make(map[uuid.UUID]string, len(snap.Questions))
	for _, q := range snap.Questions {
		prompts[q.ID] = q.Prompt
	}

	records, err := s.answers.GetByAttemptID(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		result.Answers = append(result.Answers, AnswerDetail{
			QuestionID:    rec.QuestionID,
			Prompt:        prompts[rec.QuestionID],
			IsCorrect:     rec.IsCorrect,
			PointsAwarded: rec.PointsAwarded,
			SubmittedAt:   rec.SubmittedAt,
		})
	}
	return result, nil
}

func summarizeAttempt(a *types.Attempt) *AttemptResult {
	result := &AttemptResult{
		AttemptID:         a.ID,
		QuizID:            a.QuizID,
		AttemptNumber:     a.AttemptNumber,
		State:             a.State,
		FinalScorePercent: a.FinalScorePercent,
		Passed:            a.Passed,
		StartedAt:         a.StartedAt,
		CompletedAt:       a.CompletedAt,
	}
	if a.CompletionReason != nil {
		result.CompletionReason = *a.CompletionReason
	}
	if a.TimeTakenSeconds != nil {
		result.TimeTakenSeconds = *a.TimeTakenSeconds
	}
	if snap, err := a.Snapshot(); err == nil {
		result.QuizTitle = snap.Title
	}
	return result
}
