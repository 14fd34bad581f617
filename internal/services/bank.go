package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	quizrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/quiz"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// BankService is the engine's read-only view over quiz definitions. GetQuiz
// returns a self-contained snapshot; the engine stores it on the attempt so
// later edits to the quiz never touch an in-flight attempt.
type BankService interface {
	GetQuiz(ctx context.Context, quizID uuid.UUID) (*types.Snapshot, error)
	IsActive(ctx context.Context, quizID uuid.UUID) (bool, error)
	ListActive(ctx context.Context) ([]*types.Quiz, error)
	// SetActive toggles availability for new attempts. Running attempts
	// keep their snapshot and finish normally.
	SetActive(ctx context.Context, quizID uuid.UUID, active bool) error
}

type bankService struct {
	db       *gorm.DB
	log      *logger.Logger
	quizRepo quizrepos.QuizRepo
}

func NewBankService(db *gorm.DB, baseLog *logger.Logger, quizRepo quizrepos.QuizRepo) BankService {
	return &bankService{
		db:       db,
		log:      baseLog.With("service", "BankService"),
		quizRepo: quizRepo,
	}
}

func (s *bankService) GetQuiz(ctx context.Context, quizID uuid.UUID) (*types.Snapshot, error) {
	q, err := s.quizRepo.GetByID(ctx, nil, quizID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrQuizNotFound
	}
	return BuildSnapshot(q)
}

func (s *bankService) IsActive(ctx context.Context, quizID uuid.UUID) (bool, error) {
	q, err := s.quizRepo.GetByID(ctx, nil, quizID)
	if err != nil {
		return false, err
	}
	if q == nil {
		return false, ErrQuizNotFound
	}
	return q.IsActive, nil
}

func (s *bankService) ListActive(ctx context.Context) ([]*types.Quiz, error) {
	return s.quizRepo.ListActive(ctx, nil)
}

func (s *bankService) SetActive(ctx context.Context, quizID uuid.UUID, active bool) error {
	q, err := s.quizRepo.GetByID(ctx, nil, quizID)
	if err != nil {
		return err
	}
	if q == nil {
		return ErrQuizNotFound
	}
	if err := s.quizRepo.UpdateFields(ctx, nil, quizID, map[string]any{"is_active": active}); err != nil {
		return err
	}
	s.log.Info("quiz availability changed", "quiz_id", quizID, "active", active)
	return nil
}

// BuildSnapshot converts a stored quiz row into the immutable form the
// engine scores against, validating the quiz invariants on the way.
func BuildSnapshot(q *types.Quiz) (*types.Snapshot, error) {
	snap := &types.Snapshot{
		QuizID:              q.ID,
		Title:               q.Title,
		TimeLimitSeconds:    q.TimeLimitSeconds,
		MaxAttempts:         q.MaxAttempts,
		PassingScorePercent: q.PassingScorePercent,
		ScoringMode:         q.ScoringMode,
		ShowFeedback:        q.ShowFeedback,
	}
	for i, question := range q.Questions {
		sq := types.SnapshotQuestion{
			ID:          question.ID,
			Type:        question.Type,
			Prompt:      question.Prompt,
			Points:      question.Points,
			Explanation: question.Explanation,
		}
		if len(question.Options) > 0 {
			if err := json.Unmarshal(question.Options, &sq.Options); err != nil {
				return nil, fmt.Errorf("quiz %s question %d: bad options: %w", q.ID, i, err)
			}
		}
		if len(question.CorrectOptions) > 0 {
			if err := json.Unmarshal(question.CorrectOptions, &sq.CorrectOptions); err != nil {
				return nil, fmt.Errorf("quiz %s question %d: bad correct options: %w", q.ID, i, err)
			}
		}
		if len(question.AcceptedAnswers) > 0 {
			if err := json.Unmarshal(question.AcceptedAnswers, &sq.AcceptedAnswers); err != nil {
				return nil, fmt.Errorf("quiz %s question %d: bad accepted answers: %w", q.ID, i, err)
			}
		}
		snap.Questions = append(snap.Questions, sq)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}
