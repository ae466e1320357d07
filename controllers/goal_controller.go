package controllers

import (
	"net/http"
	"time"

	"github.com/Mzhdi/Nounou-sub000/models"
	"github.com/Mzhdi/Nounou-sub000/services"

	"github.com/gin-gonic/gin"
)

type GoalController struct {
	Goals     *services.GoalService
	Summaries *services.SummaryService
}

func NewGoalController(goals *services.GoalService, summaries *services.SummaryService) *GoalController {
	return &GoalController{Goals: goals, Summaries: summaries}
}

// GetGoals returns the active goal together with today's progress.
func (h *GoalController) GetGoals(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	date := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, date.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format. Use YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	goal, err := h.Goals.GetActiveGoal(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.Summaries.GetDailySummary(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"goals":    goal,
		"progress": services.ComputeProgress(summary.Total, goal),
	})
}

func (h *GoalController) UpdateGoals(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Carbs    float64 `json:"carbs"`
		Fat      float64 `json:"fat"`
		Fiber    float64 `json:"fiber"`
		Sugar    float64 `json:"sugar"`
		Sodium   float64 `json:"sodium"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, err := h.Goals.UpsertGoal(c.Request.Context(), userID, models.DailyGoal{
		Calories: req.Calories,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fat:      req.Fat,
		Fiber:    req.Fiber,
		Sugar:    req.Sugar,
		Sodium:   req.Sodium,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}
