package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yungbote/quizdesk-backend/internal/platform/ctxutil"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"github.com/yungbote/quizdesk-backend/internal/services"
)

type UserHandler struct {
	log     *logger.Logger
	userSvc services.UserService
}

func NewUserHandler(baseLog *logger.Logger, userSvc services.UserService) *UserHandler {
	return &UserHandler{
		log:     baseLog.With("handler", "UserHandler"),
		userSvc: userSvc,
	}
}

// GET /api/user
func (h *UserHandler) GetMe(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	user, err := h.userSvc.GetByID(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}
