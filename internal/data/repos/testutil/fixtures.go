package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, telegramID string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:         uuid.New(),
		TelegramID: telegramID,
		Username:   "u_" + telegramID,
		FirstName:  "Test",
		LastName:   "User",
		IsActive:   true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedQuiz creates a quiz with n two-option multiple choice questions worth
// one point each; option 0 is always the correct one.
func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, n int, timeLimitSeconds *int, maxAttempts int, passingScore float64) *types.Quiz {
	tb.Helper()
	q := &types.Quiz{
		ID:                  uuid.New(),
		Title:               "quiz-" + uuid.NewString(),
		IsActive:            true,
		TimeLimitSeconds:    timeLimitSeconds,
		MaxAttempts:         maxAttempts,
		PassingScorePercent: passingScore,
		ScoringMode:         types.ScoringModeExactSet,
		ShowFeedback:        true,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	for i := 0; i < n; i++ {
		question := &types.Question{
			ID:             uuid.New(),
			QuizID:         q.ID,
			OrderIndex:     i,
			Type:           types.QuestionTypeMultipleChoice,
			Prompt:         fmt.Sprintf("question %d", i+1),
			Options:        datatypes.JSON([]byte(`["right","wrong"]`)),
			CorrectOptions: datatypes.JSON([]byte(`[0]`)),
			Points:         1,
		}
		if err := tx.WithContext(ctx).Create(question).Error; err != nil {
			tb.Fatalf("seed question %d: %v", i, err)
		}
		q.Questions = append(q.Questions, question)
	}
	return q
}

// CleanupQuizData removes everything a quiz-engine test created outside a
// rollback-able transaction.
func CleanupQuizData(tb testing.TB, gdb *gorm.DB, quizID uuid.UUID, userIDs ...uuid.UUID) {
	tb.Helper()
	tb.Cleanup(func() {
		ctx := context.Background()
		var attemptIDs []uuid.UUID
		_ = gdb.WithContext(ctx).
			Model(&types.Attempt{}).
			Where("quiz_id = ?", quizID).
			Pluck("id", &attemptIDs).Error
		if len(attemptIDs) > 0 {
			_ = gdb.WithContext(ctx).Where("attempt_id IN ?", attemptIDs).Delete(&types.AnswerRecord{}).Error
			_ = gdb.WithContext(ctx).Where("attempt_id IN ?", attemptIDs).Delete(&types.CompletionEvent{}).Error
		}
		_ = gdb.WithContext(ctx).Where("quiz_id = ?", quizID).Delete(&types.Attempt{}).Error
		_ = gdb.WithContext(ctx).Unscoped().Where("quiz_id = ?", quizID).Delete(&types.Question{}).Error
		_ = gdb.WithContext(ctx).Unscoped().Where("id = ?", quizID).Delete(&types.Quiz{}).Error
		for _, id := range userIDs {
			_ = gdb.WithContext(ctx).Where("user_id = ?", id).Delete(&types.SystemLog{}).Error
			_ = gdb.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&types.User{}).Error
		}
	})
}
