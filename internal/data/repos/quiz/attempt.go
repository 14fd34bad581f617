package quiz

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInProgressExists is returned when creating an attempt would violate the
// one-in-progress-per-(user, quiz) unique index.
var ErrInProgressExists = errors.New("an in-progress attempt already exists for this user and quiz")

type AttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, a *types.Attempt) (*types.Attempt, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Attempt, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Attempt, error)
	FindInProgress(ctx context.Context, tx *gorm.DB, userID, quizID uuid.UUID) (*types.Attempt, error)
	CountByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID, quizID uuid.UUID) (int64, error)
	ListTerminalByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Attempt, error)
	TransitionState(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.AttemptState, updates map[string]any) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	FindPendingTimers(ctx context.Context, tx *gorm.DB) ([]*types.Attempt, error)
	FindDue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]uuid.UUID, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	repoLog := baseLog.With("repo", "AttemptRepo")
	return &attemptRepo{db: db, log: repoLog}
}

func (r *attemptRepo) Create(ctx context.Context, tx *gorm.DB, a *types.Attempt) (*types.Attempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrInProgressExists
		}
		return nil, err
	}
	return a, nil
}

func (r *attemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Attempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var a types.Attempt
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// GetByIDForUpdate takes a row lock so transitions touching one attempt
// serialize. Must be called inside a transaction.
func (r *attemptRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Attempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var a types.Attempt
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *attemptRepo) FindInProgress(ctx context.Context, tx *gorm.DB, userID, quizID uuid.UUID) (*types.Attempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var a types.Attempt
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND state = ?", userID, quizID, types.AttemptStateInProgress).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *attemptRepo) CountByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID, quizID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Attempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *attemptRepo) ListTerminalByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Attempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Attempt
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND state <> ?", userID, types.AttemptStateInProgress).
		Order("started_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// TransitionState applies updates only if the row is still in the `from`
// state. Returns false when another transition won the race; the caller
// treats that as a stale no-op.
func (r *attemptRepo) TransitionState(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.AttemptState, updates map[string]any) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	merged := map[string]any{
		"state":      to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range updates {
		merged[k] = v
	}

	res := transaction.WithContext(ctx).
		Model(&types.Attempt{}).
		Where("id = ? AND state = ?", id, from).
		Updates(merged)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *attemptRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(updates) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.Attempt{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// FindPendingTimers returns all in-progress attempts carrying a deadline,
// due or not. The timer manager calls this once at startup to rebuild its
// schedule from durable state.
func (r *attemptRepo) FindPendingTimers(ctx context.Context, tx *gorm.DB) ([]*types.Attempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Attempt
	if err := transaction.WithContext(ctx).
		Where("state = ? AND expires_at IS NOT NULL", types.AttemptStateInProgress).
		Order("expires_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FindDue returns ids of in-progress attempts whose deadline has passed.
// Used by the sweep loop as a safety net behind the in-memory timers.
func (r *attemptRepo) FindDue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if limit <= 0 {
		limit = 100
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Attempt{}).
		Where("state = ? AND expires_at IS NOT NULL AND expires_at <= ?", types.AttemptStateInProgress, now).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite driver surfaces constraint failures as plain errors
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
