package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yungbote/quizdesk-backend/internal/platform/ctxutil"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"github.com/yungbote/quizdesk-backend/internal/services"
)

type ResultsHandler struct {
	log        *logger.Logger
	resultsSvc services.ResultsService
}

func NewResultsHandler(baseLog *logger.Logger, resultsSvc services.ResultsService) *ResultsHandler {
	return &ResultsHandler{
		log:        baseLog.With("handler", "ResultsHandler"),
		resultsSvc: resultsSvc,
	}
}

// GET /api/quizzes
func (h *ResultsHandler) Catalog(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	entries, err := h.resultsSvc.Catalog(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, entries)
}

// GET /api/results
func (h *ResultsHandler) MyResults(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	results, err := h.resultsSvc.MyResults(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, results)
}

// GET /api/attempts/:id
func (h *ResultsHandler) AttemptDetail(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_attempt_id", err)
		return
	}
	result, err := h.resultsSvc.AttemptDetail(c.Request.Context(), rd.UserID, attemptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
