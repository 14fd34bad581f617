package quiz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type CompletionEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ev *types.CompletionEvent) (*types.CompletionEvent, error)
	GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) (*types.CompletionEvent, error)
}

type completionEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletionEventRepo(db *gorm.DB, baseLog *logger.Logger) CompletionEventRepo {
	repoLog := baseLog.With("repo", "CompletionEventRepo")
	return &completionEventRepo{db: db, log: repoLog}
}

func (r *completionEventRepo) Create(ctx context.Context, tx *gorm.DB, ev *types.CompletionEvent) (*types.CompletionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *completionEventRepo) GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) (*types.CompletionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ev types.CompletionEvent
	if err := transaction.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}
