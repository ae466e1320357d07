package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Mzhdi/Nounou-sub000/services"

	"github.com/gin-gonic/gin"
)

func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case uint:
		return id, true
	case int:
		return uint(id), true
	case int64:
		return uint(id), true
	default:
		return 0, false
	}
}

func isAdminFromCtx(c *gin.Context) bool {
	v, ok := c.Get("isAdmin")
	if !ok {
		return false
	}
	admin, _ := v.(bool)
	return admin
}

// respondError maps the service error taxonomy onto HTTP statuses.
// Database errors stay generic so storage details never leak.
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	var nf *services.NotFoundError
	var de *services.DatabaseError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &de):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func dateRangeQuery(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	fromStr := c.DefaultQuery("from", now.Format("2006-01-02"))
	toStr := c.DefaultQuery("to", now.Format("2006-01-02"))

	from, err := time.ParseInLocation("2006-01-02", fromStr, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date")
	}
	to, err := time.ParseInLocation("2006-01-02", toStr, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("`to` must be on/after `from`")
	}
	return from, to, nil
}
