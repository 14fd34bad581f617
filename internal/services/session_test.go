package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	quizrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/quiz"
	"github.com/yungbote/quizdesk-backend/internal/data/repos/testutil"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/services"
	"gorm.io/gorm"
)

type stubTimers struct {
	mu        sync.Mutex
	scheduled map[uuid.UUID]time.Time
	cancelled map[uuid.UUID]int
}

func newStubTimers() *stubTimers {
	return &stubTimers{
		scheduled: make(map[uuid.UUID]time.Time),
		cancelled: make(map[uuid.UUID]int),
	}
}

func (s *stubTimers) Schedule(id uuid.UUID, fireAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[id] = fireAt
}

func (s *stubTimers) Cancel(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled[id]++
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []*types.CompletionEvent
}

func (n *recordingNotifier) AttemptCompleted(ctx context.Context, ev *types.CompletionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type engineFixture struct {
	gdb      *gorm.DB
	session  services.SessionService
	attempts quizrepos.AttemptRepo
	answers  quizrepos.AnswerRepo
	events   quizrepos.CompletionEventRepo
	timers   *stubTimers
	notify   *recordingNotifier
}

// newEngineFixture builds the engine against the shared test database. The
// engine opens its own transactions, so fixtures commit for real and are
// removed via cleanup hooks.
func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	quizRepo := quizrepos.NewQuizRepo(gdb, log)
	attempts := quizrepos.NewAttemptRepo(gdb, log)
	answers := quizrepos.NewAnswerRepo(gdb, log)
	events := quizrepos.NewCompletionEventRepo(gdb, log)
	syslog := quizrepos.NewSystemLogRepo(gdb, log)

	bank := services.NewBankService(gdb, log, quizRepo)
	timers := newStubTimers()
	notify := &recordingNotifier{}
	session := services.NewSessionService(gdb, log, bank, attempts, answers, events, syslog, timers, notify)

	return &engineFixture{
		gdb:      gdb,
		session:  session,
		attempts: attempts,
		answers:  answers,
		events:   events,
		timers:   timers,
		notify:   notify,
	}
}

func (f *engineFixture) seed(t *testing.T, questions int, timeLimitSeconds *int, maxAttempts int, passingScore float64) (*types.User, *types.Quiz) {
	t.Helper()
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.gdb, uuid.NewString())
	quiz := testutil.SeedQuiz(t, ctx, f.gdb, questions, timeLimitSeconds, maxAttempts, passingScore)
	testutil.CleanupQuizData(t, f.gdb, quiz.ID, user.ID)
	return user, quiz
}

func answerFor(q *services.NextQuestion, correct bool) types.SubmittedAnswer {
	idx := 0
	if !correct {
		idx = 1
	}
	return types.SubmittedAnswer{Selected: []int{idx}}
}

func TestSessionHappyPathCompletion(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user, quiz := f.seed(t, 3, nil, 1, 60)

	start, err := f.session.Start(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.AttemptNumber != 1 || start.Question == nil || start.Question.Index != 0 {
		t.Fatalf("unexpected start result: %+v", start)
	}
	if start.ExpiresAt != nil {
		t.Fatalf("untimed quiz should have no deadline")
	}

	// two correct, one wrong -> 2/3 points, above the 60 percent threshold
	q := start.Question
	for i := 0; i < 3; i++ {
		res, err := f.session.SubmitAnswer(ctx, start.AttemptID, q.QuestionID, answerFor(q, i != 1))
		if err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
		if res.Feedback == nil {
			t.Fatalf("show_feedback quiz should return feedback")
		}
		if i < 2 {
			if res.Next == nil || res.Completion != nil {
				t.Fatalf("mid-quiz submit %d: next=%v completion=%v", i, res.Next, res.Completion)
			}
			q = res.Next
		} else {
			if res.Completion == nil || res.Next != nil {
				t.Fatalf("final submit: expected completion, got %+v", res)
			}
			wantScore := 100 * 2.0 / 3.0
			if diff := res.Completion.FinalScorePercent - wantScore; diff > 0.01 || diff < -0.01 {
				t.Fatalf("score: got %v want %v", res.Completion.FinalScorePercent, wantScore)
			}
			if !res.Completion.Passed || res.Completion.Reason != types.CompletionReasonAnswered {
				t.Fatalf("completion: %+v", res.Completion)
			}
		}
	}

	got, err := f.attempts.GetByID(ctx, nil, start.AttemptID)
	if err != nil || got == nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if got.State != types.AttemptStateCompleted {
		t.Fatalf("state: got %s", got.State)
	}
	ev, err := f.events.GetByAttemptID(ctx, nil, start.AttemptID)
	if err != nil || ev == nil {
		t.Fatalf("completion event missing: %v", err)
	}
	if f.notify.count() != 1 {
		t.Fatalf("notifier calls: got %d want 1", f.notify.count())
	}
}

func TestSessionRejectsOutOfOrderAnswer(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user, quiz := f.seed(t, 2, nil, 1, 0)

	start, err := f.session.Start(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	wrongQuestion := quiz.Questions[1].ID
	if _, err := f.session.SubmitAnswer(ctx, start.AttemptID, wrongQuestion, types.SubmittedAnswer{Selected: []int{0}}); !errors.Is(err, services.ErrUnexpectedQuestion) {
		t.Fatalf("want ErrUnexpectedQuestion, got %v", err)
	}

	// attempt is still on question 0 and can proceed normally
	res, err := f.session.SubmitAnswer(ctx, start.AttemptID, start.Question.QuestionID, types.SubmittedAnswer{Selected: []int{0}})
	if err != nil || res.Next == nil {
		t.Fatalf("submit after rejection: res=%+v err=%v", res, err)
	}
}

func TestSessionAttemptLimitAndInProgressGuard(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user, quiz := f.seed(t, 1, nil, 2, 0)

	first, err := f.session.Start(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := f.session.Start(ctx, user.ID, quiz.ID); !errors.Is(err, services.ErrAttemptAlreadyInProgress) {
		t.Fatalf("second start: want ErrAttemptAlreadyInProgress, got %v", err)
	}

	// abandoning keeps the slot used
	if err := f.session.Abandon(ctx, first.AttemptID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	second, err := f.session.Start(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("start after abandon: %v", err)
	}
	if second.AttemptNumber != 2 {
		t.Fatalf("attempt number: got %d want 2", second.AttemptNumber)
	}
	if err := f.session.Abandon(ctx, second.AttemptID); err != nil {
		t.Fatalf("Abandon second: %v", err)
	}

	if _, err := f.session.Start(ctx, user.ID, quiz.ID); !errors.Is(err, services.ErrAttemptLimitExceeded) {
		t.Fatalf("third start: want ErrAttemptLimitExceeded, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	limit := 1
	user, quiz := f.seed(t, 2, &limit, 1, 50)

	start, err := f.session.Start(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.ExpiresAt == nil {
		t.Fatalf("timed quiz must carry a deadline")
	}
	if _, ok := f.timers.scheduled[start.AttemptID]; !ok {
		t.Fatalf("timer was not scheduled")
	}

	// answer one of two, then let the deadline pass
	if _, err := f.session.SubmitAnswer(ctx, start.AttemptID, start.Question.QuestionID, types.SubmittedAnswer{Selected: []int{0}}); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	time.Sleep(time.Until(*start.ExpiresAt) + 50*time.Millisecond)

	if err := f.session.Expire(ctx, start.AttemptID); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	got, err := f.attempts.GetByID(ctx, nil, start.AttemptID)
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if got.State != types.AttemptStateExpired {
		t.Fatalf("state: got %s want expired", got.State)
	}
	// 1 of 2 points, passing score 50 -> passed at the boundary
	if got.FinalScorePercent == nil || *got.FinalScorePercent != 50 {
		t.Fatalf("score: got %v want 50", got.FinalScorePercent)
	}
	if got.Passed == nil || !*got.Passed {
		t.Fatalf("boundary score should pass")
	}

	// replayed expiry and late abandon are no-ops
	if err := f.session.Expire(ctx, start.AttemptID); err != nil {
		t.Fatalf("second Expire should be a no-op, got %v", err)
	}
	if err := f.session.Abandon(ctx, start.AttemptID); err != nil {
		t.Fatalf("Abandon on expired should be a no-op, got %v", err)
	}
	if f.notify.count() != 1 {
		t.Fatalf("completion events delivered: got %d want 1", f.notify.count())
	}

	// submitting into a terminal attempt is rejected
	if _, err := f.session.SubmitAnswer(ctx, start.AttemptID, quiz.Questions[1].ID, types.SubmittedAnswer{Selected: []int{0}}); !errors.Is(err, services.ErrStaleTransition) {
		t.Fatalf("submit on expired: want ErrStaleTransition, got %v", err)
	}
}

func TestSessionSubmitPastDeadlineExpiresInline(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	limit := 1
	user, quiz := f.seed(t, 2, &limit, 1, 0)

	start, err := f.session.Start(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(time.Until(*start.ExpiresAt) + 50*time.Millisecond)

	res, err := f.session.SubmitAnswer(ctx, start.AttemptID, start.Question.QuestionID, types.SubmittedAnswer{Selected: []int{0}})
	if err != nil {
		t.Fatalf("SubmitAnswer past deadline: %v", err)
	}
	if res.Completion == nil || res.Completion.Reason != types.CompletionReasonExpired {
		t.Fatalf("want inline expiry completion, got %+v", res)
	}

	// the late answer must not have been recorded
	records, err := f.answers.GetByAttemptID(ctx, nil, start.AttemptID)
	if err != nil {
		t.Fatalf("load answers: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("late answer was recorded: %d rows", len(records))
	}
}

func TestSessionConcurrentStartSingleWinner(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	user, quiz := f.seed(t, 1, nil, 10, 0)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.session.Start(ctx, user.ID, quiz.ID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, services.ErrAttemptAlreadyInProgress):
		default:
			t.Fatalf("unexpected race error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("concurrent starts: got %d winners, want 1", winners)
	}

	count, err := f.attempts.CountByUserAndQuiz(ctx, nil, user.ID, quiz.ID)
	if err != nil || count != 1 {
		t.Fatalf("attempt rows: got %d err=%v, want 1", count, err)
	}
}

func TestSessionConcurrentSubmitAndExpire(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	limit := 3600
	user, quiz := f.seed(t, 1, &limit, 1, 0)

	start, err := f.session.Start(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// force the expiry path to race a final-answer submission
	var wg sync.WaitGroup
	var submitErr, expireErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, submitErr = f.session.SubmitAnswer(ctx, start.AttemptID, start.Question.QuestionID, types.SubmittedAnswer{Selected: []int{0}})
	}()
	go func() {
		defer wg.Done()
		expireErr = f.session.Expire(ctx, start.AttemptID)
	}()
	wg.Wait()

	if expireErr != nil {
		t.Fatalf("Expire during race must be a no-op or win cleanly, got %v", expireErr)
	}
	if submitErr != nil && !errors.Is(submitErr, services.ErrStaleTransition) {
		t.Fatalf("Submit during race: %v", submitErr)
	}

	got, err := f.attempts.GetByID(ctx, nil, start.AttemptID)
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.State.Terminal() {
		t.Fatalf("attempt must be terminal after race, got %s", got.State)
	}
	if got.State == types.AttemptStateInProgress {
		t.Fatalf("attempt still in progress")
	}
	if f.notify.count() != 1 {
		t.Fatalf("exactly one completion event expected, got %d", f.notify.count())
	}
	ev, err := f.events.GetByAttemptID(ctx, nil, start.AttemptID)
	if err != nil || ev == nil {
		t.Fatalf("durable completion event missing: %v", err)
	}
}
