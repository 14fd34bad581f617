package seed

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/quizdesk-backend/internal/domain"
)

const sampleQuizYAML = `
title: Go Basics
description: Warm-up questions
time_limit_seconds: 120
max_attempts: 3
passing_score_percent: 60
questions:
  - type: multiple_choice
    prompt: Which keyword declares a variable?
    options: [var, let, def, dim]
    correct_options: [0]
    points: 2
  - type: text
    prompt: What command formats Go source files?
    accepted_answers: [gofmt, "go fmt"]
    explanation: gofmt ships with the toolchain.
`

func TestBuildFromYAML(t *testing.T) {
	var file QuizFile
	if err := yaml.Unmarshal([]byte(sampleQuizYAML), &file); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}

	quiz, questions, err := Build(&file)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if quiz.Title != "Go Basics" {
		t.Errorf("title: got %q", quiz.Title)
	}
	if quiz.MaxAttempts != 3 {
		t.Errorf("max attempts: got %d want 3", quiz.MaxAttempts)
	}
	if quiz.TimeLimitSeconds == nil || *quiz.TimeLimitSeconds != 120 {
		t.Errorf("time limit: got %v want 120", quiz.TimeLimitSeconds)
	}
	if !quiz.IsActive || !quiz.ShowFeedback {
		t.Errorf("defaults: active=%v show_feedback=%v, both should default true", quiz.IsActive, quiz.ShowFeedback)
	}
	if len(questions) != 2 {
		t.Fatalf("questions: got %d want 2", len(questions))
	}
	if questions[0].Type != types.QuestionTypeMultipleChoice || questions[0].Points != 2 {
		t.Errorf("q1: type=%s points=%v", questions[0].Type, questions[0].Points)
	}
	if questions[1].Type != types.QuestionTypeText || questions[1].Points != 1 {
		t.Errorf("q2: type=%s points=%v, points should default to 1", questions[1].Type, questions[1].Points)
	}
	if questions[0].OrderIndex != 0 || questions[1].OrderIndex != 1 {
		t.Errorf("order: got %d,%d", questions[0].OrderIndex, questions[1].OrderIndex)
	}
}

func TestBuildRejectsBadDefinitions(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*QuizFile)
		wantErr string
	}{
		{
			name:    "missing title",
			mutate:  func(f *QuizFile) { f.Title = " " },
			wantErr: "title",
		},
		{
			name:    "no questions",
			mutate:  func(f *QuizFile) { f.Questions = nil },
			wantErr: "question",
		},
		{
			name: "mc with one option",
			mutate: func(f *QuizFile) {
				f.Questions[0].Options = []string{"only"}
				f.Questions[0].CorrectOptions = []int{0}
			},
			wantErr: "option",
		},
		{
			name: "correct index out of range",
			mutate: func(f *QuizFile) {
				f.Questions[0].CorrectOptions = []int{9}
			},
			wantErr: "correct",
		},
		{
			name: "text without accepted answers",
			mutate: func(f *QuizFile) {
				f.Questions[1].AcceptedAnswers = nil
			},
			wantErr: "accepted",
		},
		{
			name: "unknown question type",
			mutate: func(f *QuizFile) {
				f.Questions[0].Type = "essay"
			},
			wantErr: "unknown question type",
		},
		{
			name: "passing score above 100",
			mutate: func(f *QuizFile) {
				f.PassingScorePercent = 101
			},
			wantErr: "passing",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var file QuizFile
			if err := yaml.Unmarshal([]byte(sampleQuizYAML), &file); err != nil {
				t.Fatalf("yaml.Unmarshal: %v", err)
			}
			tc.mutate(&file)
			_, _, err := Build(&file)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(strings.ToLower(err.Error()), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}
