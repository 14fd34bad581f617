package services

import (
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
)

func mcQuestion(points float64, correct ...int) types.SnapshotQuestion {
	return types.SnapshotQuestion{
		ID:             uuid.New(),
		Type:           types.QuestionTypeMultipleChoice,
		Options:        []string{"a", "b", "c", "d"},
		CorrectOptions: correct,
		Points:         points,
	}
}

func textQuestion(points float64, accepted ...string) types.SnapshotQuestion {
	return types.SnapshotQuestion{
		ID:              uuid.New(),
		Type:            types.QuestionTypeText,
		AcceptedAnswers: accepted,
		Points:          points,
	}
}

func TestScoreAnswerMultipleChoice(t *testing.T) {
	cases := []struct {
		name        string
		question    types.SnapshotQuestion
		selected    []int
		wantCorrect bool
		wantPoints  float64
	}{
		{"single correct", mcQuestion(2, 1), []int{1}, true, 2},
		{"single wrong", mcQuestion(2, 1), []int{0}, false, 0},
		{"multi exact match", mcQuestion(3, 0, 2), []int{2, 0}, true, 3},
		{"multi order irrelevant", mcQuestion(3, 0, 2), []int{0, 2}, true, 3},
		{"multi subset gets nothing", mcQuestion(3, 0, 2), []int{0}, false, 0},
		{"multi superset gets nothing", mcQuestion(3, 0, 2), []int{0, 1, 2}, false, 0},
		{"duplicate selections collapse", mcQuestion(1, 1), []int{1, 1}, true, 1},
		{"empty selection", mcQuestion(1, 1), nil, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotCorrect, gotPoints := ScoreAnswer(tc.question, types.SubmittedAnswer{Selected: tc.selected})
			if gotCorrect != tc.wantCorrect || gotPoints != tc.wantPoints {
				t.Fatalf("got correct=%v points=%v, want correct=%v points=%v",
					gotCorrect, gotPoints, tc.wantCorrect, tc.wantPoints)
			}
		})
	}
}

func TestScoreAnswerText(t *testing.T) {
	cases := []struct {
		name        string
		question    types.SnapshotQuestion
		text        string
		wantCorrect bool
	}{
		{"exact match", textQuestion(1, "gofmt"), "gofmt", true},
		{"case insensitive", textQuestion(1, "GoFmt"), "gofmt", true},
		{"surrounding whitespace", textQuestion(1, "gofmt"), "  gofmt \n", true},
		{"second accepted answer", textQuestion(1, "gofmt", "go fmt"), "go fmt", true},
		{"no match", textQuestion(1, "gofmt"), "golint", false},
		{"empty answer never matches", textQuestion(1, ""), "", false},
		{"internal whitespace preserved", textQuestion(1, "go fmt"), "gofmt", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotCorrect, gotPoints := ScoreAnswer(tc.question, types.SubmittedAnswer{Text: tc.text})
			if gotCorrect != tc.wantCorrect {
				t.Fatalf("got correct=%v, want %v", gotCorrect, tc.wantCorrect)
			}
			if gotCorrect && gotPoints != tc.question.Points {
				t.Fatalf("correct answer awarded %v points, want %v", gotPoints, tc.question.Points)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	q1 := mcQuestion(2, 0)
	q2 := mcQuestion(3, 1)
	q3 := textQuestion(5, "yes")
	snap := &types.Snapshot{
		PassingScorePercent: 50,
		Questions:           []types.SnapshotQuestion{q1, q2, q3},
	}

	cases := []struct {
		name        string
		answers     []*types.AnswerRecord
		wantPercent float64
		wantPassed  bool
	}{
		{"all correct", []*types.AnswerRecord{
			{QuestionID: q1.ID, PointsAwarded: 2},
			{QuestionID: q2.ID, PointsAwarded: 3},
			{QuestionID: q3.ID, PointsAwarded: 5},
		}, 100, true},
		{"half earned passes at threshold", []*types.AnswerRecord{
			{QuestionID: q3.ID, PointsAwarded: 5},
		}, 50, true},
		{"unanswered questions count in denominator", []*types.AnswerRecord{
			{QuestionID: q1.ID, PointsAwarded: 2},
		}, 20, false},
		{"no answers", nil, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotPercent, gotPassed := Aggregate(snap, tc.answers)
			if gotPercent != tc.wantPercent || gotPassed != tc.wantPassed {
				t.Fatalf("got percent=%v passed=%v, want percent=%v passed=%v",
					gotPercent, gotPassed, tc.wantPercent, tc.wantPassed)
			}
		})
	}
}

func TestAggregateZeroPassingScoreAlwaysPasses(t *testing.T) {
	snap := &types.Snapshot{
		PassingScorePercent: 0,
		Questions:           []types.SnapshotQuestion{mcQuestion(1, 0)},
	}
	percent, passed := Aggregate(snap, nil)
	if percent != 0 || !passed {
		t.Fatalf("got percent=%v passed=%v, want 0 and true", percent, passed)
	}
}
