package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	userrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/user"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/apierr"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"gorm.io/gorm"
)

var errUserNotFound = apierr.New(http.StatusNotFound, "user_not_found", gorm.ErrRecordNotFound)

// UserProfile is the chat identity the transport layer hands over on every
// request. TelegramID is the stable key; everything else is mutable.
type UserProfile struct {
	TelegramID string `json:"telegram_id"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

type UserService interface {
	// EnsureUser upserts a user row keyed by telegram id and refreshes the
	// mutable profile fields.
	EnsureUser(ctx context.Context, profile UserProfile) (*types.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.User, error)
	TouchActivity(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo userrepos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo userrepos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      baseLog.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (s *userService) EnsureUser(ctx context.Context, profile UserProfile) (*types.User, error) {
	telegramID := strings.TrimSpace(profile.TelegramID)
	if telegramID == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_telegram_id", gorm.ErrInvalidData)
	}

	var out *types.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.userRepo.GetByTelegramID(ctx, tx, telegramID)
		if err != nil {
			return err
		}
		if existing == nil {
			created, err := s.userRepo.Create(ctx, tx, &types.User{
				ID:         uuid.New(),
				TelegramID: telegramID,
				Username:   profile.Username,
				FirstName:  profile.FirstName,
				LastName:   profile.LastName,
				IsActive:   true,
			})
			if err != nil {
				return err
			}
			s.log.Info("user created", "user_id", created.ID, "telegram_id", telegramID)
			out = created
			return nil
		}

		updates := map[string]any{}
		if profile.Username != "" && profile.Username != existing.Username {
			updates["username"] = profile.Username
		}
		if profile.FirstName != "" && profile.FirstName != existing.FirstName {
			updates["first_name"] = profile.FirstName
		}
		if profile.LastName != "" && profile.LastName != existing.LastName {
			updates["last_name"] = profile.LastName
		}
		if len(updates) > 0 {
			if err := s.userRepo.UpdateFields(ctx, tx, existing.ID, updates); err != nil {
				return err
			}
		}
		if err := s.userRepo.TouchActivity(ctx, tx, existing.ID); err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := s.userRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errUserNotFound
	}
	return u, nil
}

func (s *userService) TouchActivity(ctx context.Context, id uuid.UUID) error {
	return s.userRepo.TouchActivity(ctx, nil, id)
}
