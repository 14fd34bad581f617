package quiz_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	quizrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/quiz"
	"github.com/yungbote/quizdesk-backend/internal/data/repos/testutil"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedAttempt(t *testing.T, ctx context.Context, tx *gorm.DB, repo quizrepos.AttemptRepo, userID, quizID uuid.UUID, expiresAt *time.Time) *types.Attempt {
	t.Helper()
	snap, err := json.Marshal(types.Snapshot{QuizID: quizID, MaxAttempts: 3, Questions: []types.SnapshotQuestion{{ID: uuid.New(), Type: types.QuestionTypeText, AcceptedAnswers: []string{"x"}, Points: 1}}})
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	a := &types.Attempt{
		ID:            uuid.New(),
		UserID:        userID,
		QuizID:        quizID,
		AttemptNumber: 1,
		State:         types.AttemptStateInProgress,
		StartedAt:     time.Now().UTC(),
		ExpiresAt:     expiresAt,
		QuizSnapshot:  datatypes.JSON(snap),
	}
	if _, err := repo.Create(ctx, tx, a); err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	return a
}

func TestAttemptRepoOneInProgressPerUserAndQuiz(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := quizrepos.NewAttemptRepo(gdb, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, uuid.NewString())
	quiz := testutil.SeedQuiz(t, ctx, tx, 1, nil, 3, 0)

	first := seedAttempt(t, ctx, tx, repo, user.ID, quiz.ID, nil)

	dup := *first
	dup.ID = uuid.New()
	dup.AttemptNumber = 2
	if _, err := repo.Create(ctx, tx, &dup); !errors.Is(err, quizrepos.ErrInProgressExists) {
		t.Fatalf("second in-progress attempt: want ErrInProgressExists, got %v", err)
	}

	// a terminal attempt frees the slot
	applied, err := repo.TransitionState(ctx, tx, first.ID, types.AttemptStateInProgress, types.AttemptStateAbandoned, map[string]any{})
	if err != nil || !applied {
		t.Fatalf("abandon transition: applied=%v err=%v", applied, err)
	}
	if _, err := repo.Create(ctx, tx, &dup); err != nil {
		t.Fatalf("attempt after terminal: %v", err)
	}
}

func TestAttemptRepoTransitionStateFirstWriterWins(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := quizrepos.NewAttemptRepo(gdb, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, uuid.NewString())
	quiz := testutil.SeedQuiz(t, ctx, tx, 1, nil, 3, 0)
	a := seedAttempt(t, ctx, tx, repo, user.ID, quiz.ID, nil)

	now := time.Now().UTC()
	applied, err := repo.TransitionState(ctx, tx, a.ID, types.AttemptStateInProgress, types.AttemptStateCompleted, map[string]any{
		"final_score_percent": 100.0,
		"passed":              true,
		"completed_at":        now,
		"completion_reason":   types.CompletionReasonAnswered,
	})
	if err != nil || !applied {
		t.Fatalf("first transition: applied=%v err=%v", applied, err)
	}

	// losing writer sees applied=false, row untouched
	applied, err = repo.TransitionState(ctx, tx, a.ID, types.AttemptStateInProgress, types.AttemptStateExpired, map[string]any{
		"completion_reason": types.CompletionReasonExpired,
	})
	if err != nil {
		t.Fatalf("second transition err: %v", err)
	}
	if applied {
		t.Fatalf("second transition should not apply on terminal row")
	}

	got, err := repo.GetByID(ctx, tx, a.ID)
	if err != nil || got == nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if got.State != types.AttemptStateCompleted {
		t.Fatalf("state: got %s want completed", got.State)
	}
	if got.CompletionReason == nil || *got.CompletionReason != types.CompletionReasonAnswered {
		t.Fatalf("completion reason changed by losing writer: %v", got.CompletionReason)
	}
}

func TestAttemptRepoFindDueAndPendingTimers(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := quizrepos.NewAttemptRepo(gdb, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, uuid.NewString())
	quizPast := testutil.SeedQuiz(t, ctx, tx, 1, nil, 3, 0)
	quizFuture := testutil.SeedQuiz(t, ctx, tx, 1, nil, 3, 0)
	quizUntimed := testutil.SeedQuiz(t, ctx, tx, 1, nil, 3, 0)

	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Hour)
	overdue := seedAttempt(t, ctx, tx, repo, user.ID, quizPast.ID, &past)
	pending := seedAttempt(t, ctx, tx, repo, user.ID, quizFuture.ID, &future)
	seedAttempt(t, ctx, tx, repo, user.ID, quizUntimed.ID, nil)

	due, err := repo.FindDue(ctx, tx, time.Now().UTC(), 10)
	if err != nil {
		t.Fatalf("FindDue: %v", err)
	}
	if len(due) != 1 || due[0] != overdue.ID {
		t.Fatalf("FindDue: got %v, want just %s", due, overdue.ID)
	}

	timers, err := repo.FindPendingTimers(ctx, tx)
	if err != nil {
		t.Fatalf("FindPendingTimers: %v", err)
	}
	ids := map[uuid.UUID]bool{}
	for _, a := range timers {
		ids[a.ID] = true
	}
	if !ids[overdue.ID] || !ids[pending.ID] {
		t.Fatalf("FindPendingTimers missing timed attempts: %v", ids)
	}
}

func TestAttemptRepoCountAndList(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := quizrepos.NewAttemptRepo(gdb, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, uuid.NewString())
	quiz := testutil.SeedQuiz(t, ctx, tx, 1, nil, 5, 0)

	a := seedAttempt(t, ctx, tx, repo, user.ID, quiz.ID, nil)
	if _, err := repo.TransitionState(ctx, tx, a.ID, types.AttemptStateInProgress, types.AttemptStateCompleted, map[string]any{}); err != nil {
		t.Fatalf("transition: %v", err)
	}
	b := seedAttempt(t, ctx, tx, repo, user.ID, quiz.ID, nil)

	count, err := repo.CountByUserAndQuiz(ctx, tx, user.ID, quiz.ID)
	if err != nil || count != 2 {
		t.Fatalf("count: got %d err=%v, want 2", count, err)
	}

	inProgress, err := repo.FindInProgress(ctx, tx, user.ID, quiz.ID)
	if err != nil || inProgress == nil || inProgress.ID != b.ID {
		t.Fatalf("FindInProgress: got %v err=%v", inProgress, err)
	}

	terminal, err := repo.ListTerminalByUser(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("ListTerminalByUser: %v", err)
	}
	if len(terminal) != 1 || terminal[0].ID != a.ID {
		t.Fatalf("terminal list: got %d rows", len(terminal))
	}
}
