package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	quizrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/quiz"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TimerScheduler is the session engine's handle on the timer manager.
// Scheduling is an optimization; expiry correctness comes from the durable
// expires_at column and the sweep, so failures here are never fatal.
type TimerScheduler interface {
	Schedule(attemptID uuid.UUID, fireAt time.Time)
	Cancel(attemptID uuid.UUID)
}

// CompletionNotifier receives the exactly-once completion event after the
// terminal transition has committed.
type CompletionNotifier interface {
	AttemptCompleted(ctx context.Context, ev *types.CompletionEvent)
}

// NextQuestion is what the transport layer renders to the user. Correct
// answer data never leaves the engine.
type NextQuestion struct {
	AttemptID        uuid.UUID          `json:"attempt_id"`
	QuestionID       uuid.UUID          `json:"question_id"`
	Index            int                `json:"index"`
	Total            int                `json:"total"`
	Type             types.QuestionType `json:"type"`
	Prompt           string             `json:"prompt"`
	Options          []string           `json:"options,omitempty"`
	RemainingSeconds *int               `json:"remaining_seconds,omitempty"`
}

type AnswerFeedback struct {
	IsCorrect     bool    `json:"is_correct"`
	PointsAwarded float64 `json:"points_awarded"`
	Explanation   string  `json:"explanation,omitempty"`
}

type CompletionResult struct {
	AttemptID         uuid.UUID              `json:"attempt_id"`
	QuizID            uuid.UUID              `json:"quiz_id"`
	FinalScorePercent float64                `json:"final_score_percent"`
	Passed            bool                   `json:"passed"`
	Reason            types.CompletionReason `json:"completion_reason"`
	CompletedAt       time.Time              `json:"completed_at"`
	TimeTakenSeconds  int                    `json:"time_taken_seconds"`
}

type StartResult struct {
	AttemptID     uuid.UUID     `json:"attempt_id"`
	AttemptNumber int           `json:"attempt_number"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
	Question      *NextQuestion `json:"question"`
}

// SubmitResult carries exactly one of Next or Completion. Feedback is set
// only when the quiz asks for per-question feedback.
type SubmitResult struct {
	Feedback   *AnswerFeedback   `json:"feedback,omitempty"`
	Next       *NextQuestion     `json:"next,omitempty"`
	Completion *CompletionResult `json:"completion,omitempty"`
}

// SessionService drives the attempt state machine:
// in_progress -> completed | expired | abandoned, terminal states are sinks.
// Every transition runs in one transaction holding the attempt row lock, so
// a submission racing a timer resolves first-writer-wins.
type SessionService interface {
	Start(ctx context.Context, userID, quizID uuid.UUID) (*StartResult, error)
	SubmitAnswer(ctx context.Context, attemptID, questionID uuid.UUID, answer types.SubmittedAnswer) (*SubmitResult, error)
	Expire(ctx context.Context, attemptID uuid.UUID) error
	Abandon(ctx context.Context, attemptID uuid.UUID) error
}

type sessionService struct {
	db       *gorm.DB
	log      *logger.Logger
	bank     BankService
	attempts quizrepos.AttemptRepo
	answers  quizrepos.AnswerRepo
	events   quizrepos.CompletionEventRepo
	syslog   quizrepos.SystemLogRepo
	timers   TimerScheduler
	notify   CompletionNotifier
}

func NewSessionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bank BankService,
	attempts quizrepos.AttemptRepo,
	answers quizrepos.AnswerRepo,
	events quizrepos.CompletionEventRepo,
	syslog quizrepos.SystemLogRepo,
	timers TimerScheduler,
	notify CompletionNotifier,
) SessionService {
	return &sessionService{
		db:       db,
		log:      baseLog.With("service", "SessionService"),
		bank:     bank,
		attempts: attempts,
		answers:  answers,
		events:   events,
		syslog:   syslog,
		timers:   timers,
		notify:   notify,
	}
}

func (s *sessionService) Start(ctx context.Context, userID, quizID uuid.UUID) (*StartResult, error) {
	snap, err := s.bank.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	active, err := s.bank.IsActive(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrQuizInactive
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode quiz snapshot: %w", err)
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if limit, ok := snap.TimeLimit(); ok {
		t := now.Add(limit)
		expiresAt = &t
	}

	var attempt *types.Attempt
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.attempts.CountByUserAndQuiz(ctx, tx, userID, quizID)
		if err != nil {
			return err
		}
		if count >= int64(snap.MaxAttempts) {
			return ErrAttemptLimitExceeded
		}

		attempt = &types.Attempt{
			ID:                   uuid.New(),
			UserID:               userID,
			QuizID:               quizID,
			AttemptNumber:        int(count) + 1,
			State:                types.AttemptStateInProgress,
			StartedAt:            now,
			ExpiresAt:            expiresAt,
			CurrentQuestionIndex: 0,
			QuizSnapshot:         datatypes.JSON(raw),
		}
		if _, err := s.attempts.Create(ctx, tx, attempt); err != nil {
			// the partial unique index is the authority on concurrent starts
			if errors.Is(err, quizrepos.ErrInProgressExists) {
				return ErrAttemptAlreadyInProgress
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if expiresAt != nil && s.timers != nil {
		s.timers.Schedule(attempt.ID, *expiresAt)
	}
	s.logEvent(ctx, "attempt_started", userID, map[string]any{
		"attempt_id":     attempt.ID,
		"quiz_id":        quizID,
		"attempt_number": attempt.AttemptNumber,
	})
	s.log.Info("attempt started",
		"attempt_id", attempt.ID,
		"user_id", userID,
		"quiz_id", quizID,
		"attempt_number", attempt.AttemptNumber,
	)

	return &StartResult{
		AttemptID:     attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
		ExpiresAt:     expiresAt,
		Question:      s.buildNextQuestion(attempt.ID, snap, 0, expiresAt, now),
	}, nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, attemptID, questionID uuid.UUID, answer types.SubmittedAnswer) (*SubmitResult, error) {
	var (
		result = &SubmitResult{}
		ev     *types.CompletionEvent
		userID uuid.UUID
	)

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.attempts.GetByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if attempt == nil {
			return ErrAttemptNotFound
		}
		if attempt.State.Terminal() {
			return ErrStaleTransition
		}
		userID = attempt.UserID

		snap, err := attempt.Snapshot()
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		// Deadline already passed but the timer has not fired yet: finish
		// the attempt as expired instead of accepting the answer.
		if attempt.ExpiresAt != nil && !now.Before(*attempt.ExpiresAt) {
			expiredEv, err := s.expireLocked(ctx, tx, attempt, snap, now)
			if err != nil {
				return err
			}
			ev = expiredEv
			result.Completion = completionFromEvent(ev, attempt)
			return nil
		}

		current, ok := snap.QuestionAt(attempt.CurrentQuestionIndex)
		if !ok {
			return fmt.Errorf("attempt %s: question index %d out of range", attempt.ID, attempt.CurrentQuestionIndex)
		}
		if current.ID != questionID {
			return ErrUnexpectedQuestion
		}

		isCorrect, points := ScoreAnswer(current, answer)
		submitted, err := json.Marshal(answer)
		if err != nil {
			return fmt.Errorf("encode submitted answer: %w", err)
		}
		rec := &types.AnswerRecord{
			ID:             uuid.New(),
			AttemptID:      attempt.ID,
			QuestionID:     questionID,
			SubmittedValue: datatypes.JSON(submitted),
			SubmittedAt:    now,
			IsCorrect:      isCorrect,
			PointsAwarded:  points,
		}
		if _, err := s.answers.Create(ctx, tx, rec); err != nil {
			return err
		}

		if snap.ShowFeedback {
			result.Feedback = &AnswerFeedback{
				IsCorrect:     isCorrect,
				PointsAwarded: points,
				Explanation:   current.Explanation,
			}
		}

		newIndex := attempt.CurrentQuestionIndex + 1
		if newIndex < len(snap.Questions) {
			if err := s.attempts.UpdateFields(ctx, tx, attempt.ID, map[string]any{
				"current_question_index": newIndex,
				"updated_at":             now,
			}); err != nil {
				return err
			}
			result.Next = s.buildNextQuestion(attempt.ID, snap, newIndex, attempt.ExpiresAt, now)
			return nil
		}

		// Last question answered: complete the attempt.
		records, err := s.answers.GetByAttemptID(ctx, tx, attempt.ID)
		if err != nil {
			return err
		}
		percent, passed := Aggregate(snap, records)
		taken := int(now.Sub(attempt.StartedAt).Seconds())

		applied, err := s.attempts.TransitionState(ctx, tx, attempt.ID,
			types.AttemptStateInProgress, types.AttemptStateCompleted,
			map[string]any{
				"current_question_index": newIndex,
				"final_score_percent":    percent,
				"passed":                 passed,
				"completed_at":           now,
				"completion_reason":      types.CompletionReasonAnswered,
				"time_taken_seconds":     taken,
			})
		if err != nil {
			return err
		}
		if !applied {
			// cannot happen while we hold the row lock, but never emit twice
			return ErrStaleTransition
		}

		ev = &types.CompletionEvent{
			ID:                uuid.New(),
			AttemptID:         attempt.ID,
			UserID:            attempt.UserID,
			QuizID:            attempt.QuizID,
			FinalScorePercent: percent,
			Passed:            passed,
			CompletedAt:       now,
			Reason:            types.CompletionReasonAnswered,
		}
		if _, err := s.events.Create(ctx, tx, ev); err != nil {
			return err
		}
		result.Completion = &CompletionResult{
			AttemptID:         attempt.ID,
			QuizID:            attempt.QuizID,
			FinalScorePercent: percent,
			Passed:            passed,
			Reason:            types.CompletionReasonAnswered,
			CompletedAt:       now,
			TimeTakenSeconds:  taken,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if ev != nil {
		s.afterCompletion(ctx, userID, ev)
	}
	return result, nil
}

// Expire is invoked by the timer manager. Replays and races with a
// submission are expected: a terminal attempt makes this a logged no-op.
func (s *sessionService) Expire(ctx context.Context, attemptID uuid.UUID) error {
	var (
		ev     *types.CompletionEvent
		userID uuid.UUID
	)

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.attempts.GetByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if attempt == nil {
			return ErrAttemptNotFound
		}
		if attempt.State.Terminal() {
			s.log.Debug("expire on terminal attempt ignored", "attempt_id", attemptID, "state", attempt.State)
			return nil
		}
		userID = attempt.UserID

		snap, err := attempt.Snapshot()
		if err != nil {
			return err
		}
		expiredEv, err := s.expireLocked(ctx, tx, attempt, snap, time.Now().UTC())
		if err != nil {
			return err
		}
		ev = expiredEv
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if ev != nil {
		s.afterCompletion(ctx, userID, ev)
	}
	return nil
}

// Abandon cancels an attempt on behalf of the user. The attempt keeps its
// number slot but is not scored and emits no completion event.
func (s *sessionService) Abandon(ctx context.Context, attemptID uuid.UUID) error {
	var (
		abandoned bool
		userID    uuid.UUID
	)

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.attempts.GetByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if attempt == nil {
			return ErrAttemptNotFound
		}
		if attempt.State.Terminal() {
			s.log.Debug("abandon on terminal attempt ignored", "attempt_id", attemptID, "state", attempt.State)
			return nil
		}
		userID = attempt.UserID

		applied, err := s.attempts.TransitionState(ctx, tx, attempt.ID,
			types.AttemptStateInProgress, types.AttemptStateAbandoned,
			map[string]any{
				"completed_at": time.Now().UTC(),
			})
		if err != nil {
			return err
		}
		abandoned = applied
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if abandoned {
		if s.timers != nil {
			s.timers.Cancel(attemptID)
		}
		s.logEvent(ctx, "attempt_abandoned", userID, map[string]any{"attempt_id": attemptID})
		s.log.Info("attempt abandoned", "attempt_id", attemptID, "user_id", userID)
	}
	return nil
}

// expireLocked finishes an in-progress attempt as expired. Caller must hold
// the row lock inside tx. Unanswered questions score zero but keep their
// weight in the denominator.
func (s *sessionService) expireLocked(ctx context.Context, tx *gorm.DB, attempt *types.Attempt, snap *types.Snapshot, now time.Time) (*types.CompletionEvent, error) {
	records, err := s.answers.GetByAttemptID(ctx, tx, attempt.ID)
	if err != nil {
		return nil, err
	}
	percent, passed := Aggregate(snap, records)
	taken := int(now.Sub(attempt.StartedAt).Seconds())

	applied, err := s.attempts.TransitionState(ctx, tx, attempt.ID,
		types.AttemptStateInProgress, types.AttemptStateExpired,
		map[string]any{
			"final_score_percent": percent,
			"passed":              passed,
			"completed_at":        now,
			"completion_reason":   types.CompletionReasonExpired,
			"time_taken_seconds":  taken,
		})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, nil
	}

	ev := &types.CompletionEvent{
		ID:                uuid.New(),
		AttemptID:         attempt.ID,
		UserID:            attempt.UserID,
		QuizID:            attempt.QuizID,
		FinalScorePercent: percent,
		Passed:            passed,
		CompletedAt:       now,
		Reason:            types.CompletionReasonExpired,
	}
	if _, err := s.events.Create(ctx, tx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *sessionService) afterCompletion(ctx context.Context, userID uuid.UUID, ev *types.CompletionEvent) {
	if s.timers != nil {
		s.timers.Cancel(ev.AttemptID)
	}
	if s.notify != nil {
		s.notify.AttemptCompleted(ctx, ev)
	}
	s.logEvent(ctx, "attempt_"+string(ev.Reason), userID, map[string]any{
		"attempt_id": ev.AttemptID,
		"quiz_id":    ev.QuizID,
		"score":      ev.FinalScorePercent,
		"passed":     ev.Passed,
	})
	s.log.Info("attempt finished",
		"attempt_id", ev.AttemptID,
		"user_id", userID,
		"quiz_id", ev.QuizID,
		"reason", ev.Reason,
		"score", ev.FinalScorePercent,
		"passed", ev.Passed,
	)
}

func (s *sessionService) buildNextQuestion(attemptID uuid.UUID, snap *types.Snapshot, index int, expiresAt *time.Time, now time.Time) *NextQuestion {
	q, ok := snap.QuestionAt(index)
	if !ok {
		return nil
	}
	next := &NextQuestion{
		AttemptID:  attemptID,
		QuestionID: q.ID,
		Index:      index,
		Total:      len(snap.Questions),
		Type:       q.Type,
		Prompt:     q.Prompt,
		Options:    q.Options,
	}
	if expiresAt != nil {
		remaining := int(expiresAt.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		next.RemainingSeconds = &remaining
	}
	return next
}

func completionFromEvent(ev *types.CompletionEvent, attempt *types.Attempt) *CompletionResult {
	if ev == nil {
		return nil
	}
	return &CompletionResult{
		AttemptID:         ev.AttemptID,
		QuizID:            ev.QuizID,
		FinalScorePercent: ev.FinalScorePercent,
		Passed:            ev.Passed,
		Reason:            ev.Reason,
		CompletedAt:       ev.CompletedAt,
		TimeTakenSeconds:  int(ev.CompletedAt.Sub(attempt.StartedAt).Seconds()),
	}
}

// logEvent writes a best-effort system log row outside the transition
// transaction.
func (s *sessionService) logEvent(ctx context.Context, eventType string, userID uuid.UUID, metadata map[string]any) {
	if s.syslog == nil {
		return
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		raw = []byte("{}")
	}
	uid := userID
	entry := &types.SystemLog{
		ID:        uuid.New(),
		EventType: eventType,
		Message:   eventType,
		UserID:    &uid,
		Metadata:  datatypes.JSON(raw),
	}
	if _, err := s.syslog.Create(ctx, nil, entry); err != nil {
		s.log.Warn("system log write failed", "event_type", eventType, "error", err)
	}
}
