package db

import (
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.UserToken{},

		&types.Quiz{},
		&types.Question{},
		&types.Attempt{},
		&types.AnswerRecord{},
		&types.CompletionEvent{},

		&types.SystemLog{},
	); err != nil {
		return err
	}

	// At most one in-progress attempt per (user, quiz). The partial unique
	// index is what makes concurrent starts race-safe; AutoMigrate cannot
	// express it.
	return gdb.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_attempt_one_in_progress
		ON quiz_attempt (user_id, quiz_id)
		WHERE state = 'in_progress'
	`).Error
}

func (s *Service) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
