package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Mzhdi/Nounou-sub000/services"
	"github.com/Mzhdi/Nounou-sub000/utils"

	"github.com/gin-gonic/gin"
)

type EntryController struct {
	Svc *services.EntryService
	Rek *services.RekognitionService
}

func NewEntryController(svc *services.EntryService, rek *services.RekognitionService) *EntryController {
	return &EntryController{Svc: svc, Rek: rek}
}

func (h *EntryController) CreateEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var raw services.RawEntry
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.Svc.Create(c.Request.Context(), userID, raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// CreateEntryFromImage runs the image through the AI estimate provider,
// uploads the photo and logs an image_analysis entry against the matched
// catalog item. The estimate only flags the entry; it still passes
// through normal validation.
func (h *EntryController) CreateEntryFromImage(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if h.Rek == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image analysis is not configured"})
		return
	}

	var body struct {
		Image      string    `json:"image"` // base64 data URI
		MealType   string    `json:"meal_type"`
		ConsumedAt time.Time `json:"consumed_at"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	est, err := h.Rek.EstimateFromImage(c.Request.Context(), body.Image)
	if err != nil {
		respondError(c, err)
		return
	}

	var catalogID string
	for _, item := range est.RawIdentifiedItems {
		if item.CatalogID != "" {
			catalogID = item.CatalogID
			break
		}
	}

	raw := services.RawEntry{
		ItemType:    "food",
		ItemID:      catalogID,
		MealType:    body.MealType,
		ConsumedAt:  body.ConsumedAt,
		EntryMethod: "image_analysis",
	}
	entry, err := h.Svc.Create(c.Request.Context(), userID, raw)
	if err != nil {
		respondError(c, err)
		return
	}

	photoURL, _ := utils.UploadEntryPhoto(body.Image, userID)
	rawAI, _ := json.Marshal(est)
	if updated, err := h.Svc.AttachAnalysis(c.Request.Context(), entry.ID, userID, photoURL, rawAI); err == nil {
		entry = updated
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry, "estimate": est})
}

func (h *EntryController) GetEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := entryIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	entry, err := h.Svc.Get(c.Request.Context(), id, userID, isAdminFromCtx(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *EntryController) ListEntries(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, _ := strconv.Atoi(limitStr)
		entries, err := h.Svc.ListRecent(c.Request.Context(), userID, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
		return
	}

	from, to, err := dateRangeQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.Svc.ListByDateRange(c.Request.Context(), userID, from, to.AddDate(0, 0, 1))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *EntryController) UpdateEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := entryIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var patch services.UpdateEntryRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.Svc.Update(c.Request.Context(), id, userID, isAdminFromCtx(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *EntryController) DeleteEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := entryIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	reason := c.Query("reason")
	if err := h.Svc.SoftDelete(c.Request.Context(), id, userID, isAdminFromCtx(c), reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EntryController) RestoreEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := entryIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	entry, err := h.Svc.Restore(c.Request.Context(), id, userID, isAdminFromCtx(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *EntryController) HardDeleteEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := entryIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := h.Svc.HardDelete(c.Request.Context(), id, userID, isAdminFromCtx(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EntryController) DuplicateEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := entryIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var overrides services.DuplicateOverrides
	if err := c.ShouldBindJSON(&overrides); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.Svc.Duplicate(c.Request.Context(), id, userID, isAdminFromCtx(c), overrides)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *EntryController) BatchEntries(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req services.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Svc.BatchOperations(c.Request.Context(), userID, isAdminFromCtx(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *EntryController) QuickMeal(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req services.QuickMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Svc.AddQuickMeal(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func entryIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return uint(id), err
}
