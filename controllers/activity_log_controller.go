package controllers

import (
	"net/http"
	"strconv"

	"github.com/Mzhdi/Nounou-sub000/services"

	"github.com/gin-gonic/gin"
)

type ActivityLogController struct {
	Svc *services.ActivityLogService
}

func NewActivityLogController(svc *services.ActivityLogService) *ActivityLogController {
	return &ActivityLogController{Svc: svc}
}

func (h *ActivityLogController) ListActivity(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	logs, err := h.Svc.ListRecent(userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
