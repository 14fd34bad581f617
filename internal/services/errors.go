package services

import (
	"errors"
	"net/http"

	"github.com/yungbote/quizdesk-backend/internal/platform/apierr"
)

// Engine error taxonomy. Validation failures surface to the caller; stale
// transitions on expire/abandon are no-ops and never reach the caller.
var (
	ErrQuizNotFound    = apierr.New(http.StatusNotFound, "quiz_not_found", errors.New("quiz not available"))
	ErrAttemptNotFound = apierr.New(http.StatusNotFound, "attempt_not_found", errors.New("attempt not found"))

	ErrQuizInactive             = apierr.New(http.StatusConflict, "quiz_inactive", errors.New("quiz is not active"))
	ErrAttemptLimitExceeded     = apierr.New(http.StatusConflict, "attempt_limit_exceeded", errors.New("maximum number of attempts reached"))
	ErrAttemptAlreadyInProgress = apierr.New(http.StatusConflict, "attempt_already_in_progress", errors.New("an attempt is already in progress"))
	ErrUnexpectedQuestion       = apierr.New(http.StatusConflict, "unexpected_question", errors.New("answer does not match the current question"))
	ErrStaleTransition          = apierr.New(http.StatusConflict, "stale_transition", errors.New("attempt is already finished"))
)
