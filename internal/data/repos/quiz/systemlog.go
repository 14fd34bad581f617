package quiz

import (
	"context"

	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type SystemLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.SystemLog) (*types.SystemLog, error)
}

type systemLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSystemLogRepo(db *gorm.DB, baseLog *logger.Logger) SystemLogRepo {
	repoLog := baseLog.With("repo", "SystemLogRepo")
	return &systemLogRepo{db: db, log: repoLog}
}

func (r *systemLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.SystemLog) (*types.SystemLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}
