package domain

import (
	"github.com/yungbote/quizdesk-backend/internal/domain/quiz"
	"github.com/yungbote/quizdesk-backend/internal/domain/user"
)

type (
	User      = user.User
	UserToken = user.UserToken

	Quiz             = quiz.Quiz
	Question         = quiz.Question
	Attempt          = quiz.Attempt
	AnswerRecord     = quiz.AnswerRecord
	CompletionEvent  = quiz.CompletionEvent
	SystemLog        = quiz.SystemLog
	Snapshot         = quiz.Snapshot
	SnapshotQuestion = quiz.SnapshotQuestion
	SubmittedAnswer  = quiz.SubmittedAnswer

	AttemptState     = quiz.AttemptState
	CompletionReason = quiz.CompletionReason
	QuestionType     = quiz.QuestionType
	ScoringMode      = quiz.ScoringMode
)

const (
	AttemptStateInProgress = quiz.AttemptStateInProgress
	AttemptStateCompleted  = quiz.AttemptStateCompleted
	AttemptStateExpired    = quiz.AttemptStateExpired
	AttemptStateAbandoned  = quiz.AttemptStateAbandoned

	CompletionReasonAnswered = quiz.CompletionReasonAnswered
	CompletionReasonExpired  = quiz.CompletionReasonExpired

	QuestionTypeMultipleChoice = quiz.QuestionTypeMultipleChoice
	QuestionTypeText           = quiz.QuestionTypeText

	ScoringModeExactSet = quiz.ScoringModeExactSet
)
