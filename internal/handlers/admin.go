package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"github.com/yungbote/quizdesk-backend/internal/seed"
	"github.com/yungbote/quizdesk-backend/internal/services"
)

type AdminHandler struct {
	log     *logger.Logger
	bankSvc services.BankService
	loader  *seed.Loader
	seedDir string
}

func NewAdminHandler(baseLog *logger.Logger, bankSvc services.BankService, loader *seed.Loader, seedDir string) *AdminHandler {
	return &AdminHandler{
		log:     baseLog.With("handler", "AdminHandler"),
		bankSvc: bankSvc,
		loader:  loader,
		seedDir: seedDir,
	}
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// PATCH /api/admin/quizzes/:id/active
func (h *AdminHandler) SetQuizActive(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_quiz_id", err)
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.bankSvc.SetActive(c.Request.Context(), quizID, *req.Active); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/seed/reload
// Re-scans the seed directory and loads quizzes that are not in the DB yet.
func (h *AdminHandler) ReloadSeeds(c *gin.Context) {
	if h.loader == nil || h.seedDir == "" {
		RespondError(c, http.StatusServiceUnavailable, "seed_disabled", nil)
		return
	}
	created, err := h.loader.LoadDir(c.Request.Context(), h.seedDir)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"created": created})
}
