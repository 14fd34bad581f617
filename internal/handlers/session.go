package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/ctxutil"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"github.com/yungbote/quizdesk-backend/internal/services"
)

type SessionHandler struct {
	log        *logger.Logger
	sessionSvc services.SessionService
}

func NewSessionHandler(baseLog *logger.Logger, sessionSvc services.SessionService) *SessionHandler {
	return &SessionHandler{
		log:        baseLog.With("handler", "SessionHandler"),
		sessionSvc: sessionSvc,
	}
}

// POST /api/quizzes/:id/attempts
func (h *SessionHandler) Start(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_quiz_id", err)
		return
	}
	result, err := h.sessionSvc.Start(c.Request.Context(), rd.UserID, quizID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type submitAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Selected   []int     `json:"selected"`
	Text       string    `json:"text"`
}

// POST /api/attempts/:id/answers
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_attempt_id", err)
		return
	}
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := h.sessionSvc.SubmitAnswer(c.Request.Context(), attemptID, req.QuestionID, types.SubmittedAnswer{
		Selected: req.Selected,
		Text:     req.Text,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// POST /api/attempts/:id/abandon
func (h *SessionHandler) Abandon(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_attempt_id", err)
		return
	}
	if err := h.sessionSvc.Abandon(c.Request.Context(), attemptID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
