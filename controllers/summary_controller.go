package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Mzhdi/Nounou-sub000/services"

	"github.com/gin-gonic/gin"
)

type SummaryController struct {
	Svc *services.SummaryService
}

func NewSummaryController(svc *services.SummaryService) *SummaryController {
	return &SummaryController{Svc: svc}
}

func (h *SummaryController) GetDailySummary(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	date := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.Now().Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format. Use YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	summary, err := h.Svc.GetDailySummary(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetRangeSummary serves custom and named ranges. period=week|month|year
// overrides from/to; group_by=week|month re-buckets the daily totals.
func (h *SummaryController) GetRangeSummary(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var from, to time.Time
	if period := c.Query("period"); period != "" {
		var err error
		from, to, err = services.RangeForPeriod(period, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}
	} else {
		var err error
		from, to, err = dateRangeQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	out, err := h.Svc.Range(c.Request.Context(), userID, from, to, c.Query("group_by"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *SummaryController) GetTopItems(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	window := c.DefaultQuery("window", "week")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	items, err := h.Svc.TopItems(c.Request.Context(), userID, window, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *SummaryController) GetTrends(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	from, to, err := dateRangeQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metric := c.DefaultQuery("metric", "calories")
	window, _ := strconv.Atoi(c.DefaultQuery("window", "7"))

	points, err := h.Svc.Trends(c.Request.Context(), userID, metric, from, to, window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}
