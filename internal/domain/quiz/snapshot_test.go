package quiz

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validSnapshot() *Snapshot {
	return &Snapshot{
		QuizID:              uuid.New(),
		Title:               "t",
		MaxAttempts:         1,
		PassingScorePercent: 60,
		ScoringMode:         ScoringModeExactSet,
		Questions: []SnapshotQuestion{
			{
				ID:             uuid.New(),
				Type:           QuestionTypeMultipleChoice,
				Options:        []string{"a", "b"},
				CorrectOptions: []int{0},
				Points:         1,
			},
			{
				ID:              uuid.New(),
				Type:            QuestionTypeText,
				AcceptedAnswers: []string{"x"},
				Points:          2,
			},
		},
	}
}

func TestSnapshotValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Snapshot)
		wantErr string
	}{
		{"valid", func(s *Snapshot) {}, ""},
		{"no questions", func(s *Snapshot) { s.Questions = nil }, "no questions"},
		{"passing score negative", func(s *Snapshot) { s.PassingScorePercent = -1 }, "passing score"},
		{"passing score above 100", func(s *Snapshot) { s.PassingScorePercent = 100.5 }, "passing score"},
		{"max attempts zero", func(s *Snapshot) { s.MaxAttempts = 0 }, "max attempts"},
		{"zero points", func(s *Snapshot) { s.Questions[0].Points = 0 }, "points"},
		{"mc one option", func(s *Snapshot) { s.Questions[0].Options = []string{"a"} }, "two options"},
		{"mc no correct option", func(s *Snapshot) { s.Questions[0].CorrectOptions = nil }, "no correct option"},
		{"mc correct out of range", func(s *Snapshot) { s.Questions[0].CorrectOptions = []int{5} }, "out of range"},
		{"text no accepted answers", func(s *Snapshot) { s.Questions[1].AcceptedAnswers = nil }, "accepted answers"},
		{"unknown type", func(s *Snapshot) { s.Questions[0].Type = "essay" }, "unknown type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSnapshot()
			tc.mutate(s)
			err := s.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSnapshotTimeLimit(t *testing.T) {
	s := validSnapshot()
	if _, ok := s.TimeLimit(); ok {
		t.Fatalf("untimed quiz should report no limit")
	}

	limit := 90
	s.TimeLimitSeconds = &limit
	d, ok := s.TimeLimit()
	if !ok || d != 90*time.Second {
		t.Fatalf("got %v ok=%v, want 90s", d, ok)
	}

	zero := 0
	s.TimeLimitSeconds = &zero
	if _, ok := s.TimeLimit(); ok {
		t.Fatalf("zero limit should mean untimed")
	}
}

func TestSnapshotRoundTripAndQuestionAt(t *testing.T) {
	s := validSnapshot()
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := SnapshotFromJSON(raw)
	if err != nil {
		t.Fatalf("SnapshotFromJSON: %v", err)
	}
	if got.TotalPoints() != 3 {
		t.Fatalf("total points: got %v want 3", got.TotalPoints())
	}

	if _, ok := got.QuestionAt(-1); ok {
		t.Fatalf("negative index should be out of range")
	}
	if _, ok := got.QuestionAt(2); ok {
		t.Fatalf("index past end should be out of range")
	}
	q, ok := got.QuestionAt(1)
	if !ok || q.ID != s.Questions[1].ID {
		t.Fatalf("QuestionAt(1) mismatch")
	}
}
