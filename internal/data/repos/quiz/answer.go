package quiz

import (
	"context"

	"github.com/google/uuid"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type AnswerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *types.AnswerRecord) (*types.AnswerRecord, error)
	GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.AnswerRecord, error)
}

type answerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
	repoLog := baseLog.With("repo", "AnswerRepo")
	return &answerRepo{db: db, log: repoLog}
}

func (r *answerRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.AnswerRecord) (*types.AnswerRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *answerRepo) GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.AnswerRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.AnswerRecord
	if err := transaction.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("submitted_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
