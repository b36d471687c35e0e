package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aryandalviplx/OCR-bill/internal/service"
)

// SubmitClaimRequest is the request body for claim submission.
type SubmitClaimRequest struct {
	ClaimID   string   `json:"claim_id" binding:"required"`
	Locations []string `json:"locations" binding:"required,min=1"`
}

// ClaimHandler handles claim processing endpoints.
type ClaimHandler struct {
	claimService service.ClaimService
}

// NewClaimHandler creates a new ClaimHandler.
func NewClaimHandler(claimService service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

// Submit handles POST /api/v1/claims
func (h *ClaimHandler) Submit(c *gin.Context) {
	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	run, err := h.claimService.Submit(c.Request.Context(), &service.SubmitClaimInput{
		ClaimID:   req.ClaimID,
		Locations: req.Locations,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, run)
}

// GetRun handles GET /api/v1/claims/runs/:id
func (h *ClaimHandler) GetRun(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}

	run, err := h.claimService.GetRun(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, run)
}

// ListRuns handles GET /api/v1/claims/runs
func (h *ClaimHandler) ListRuns(c *gin.Context) {
	offset, limit := parsePagination(c)

	runs, total, err := h.claimService.ListRuns(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ListAuditEvents handles GET /api/v1/claims/:claimId/audit
func (h *ClaimHandler) ListAuditEvents(c *gin.Context) {
	claimID := c.Param("claimId")
	offset, limit := parsePagination(c)

	events, total, err := h.claimService.ListAuditEvents(c.Request.Context(), claimID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, events, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ExportBundle handles GET /api/v1/claims/runs/:id/bundle
func (h *ClaimHandler) ExportBundle(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}

	filename, data, err := h.claimService.ExportBundle(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ArchivedBundleURL handles GET /api/v1/claims/runs/:id/bundle/url
func (h *ClaimHandler) ArchivedBundleURL(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}

	url, err := h.claimService.ArchivedBundleURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"url": url})
}

// ExportItemsCSV handles GET /api/v1/claims/runs/:id/items.csv
func (h *ClaimHandler) ExportItemsCSV(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}

	filename, data, err := h.claimService.ExportItemsCSV(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func parseRunID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid run id")
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
