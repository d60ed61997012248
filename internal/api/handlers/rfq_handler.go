package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"foundrybay/core/internal/api/middleware"
	"foundrybay/core/internal/cache"
	"foundrybay/core/internal/models"
	"foundrybay/core/internal/services"
	"foundrybay/core/internal/tasks"
)

// IAsynqClient defines the interface for the Asynq client methods used by
// the handlers. This allows easier mocking than using the concrete
// asynq.Client.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RFQHandler handles REST requests for RFQs and their races.
type RFQHandler struct {
	rfqService  services.IRFQService
	raceService services.IRaceService
	taskClient  IAsynqClient
	statusCache *cache.StatusCache
}

// NewRFQHandler creates a new RFQHandler.
func NewRFQHandler(rfqService services.IRFQService, raceService services.IRaceService, taskClient IAsynqClient, statusCache *cache.StatusCache) *RFQHandler {
	return &RFQHandler{
		rfqService:  rfqService,
		raceService: raceService,
		taskClient:  taskClient,
		statusCache: statusCache,
	}
}

// writeRaceError maps service error codes onto HTTP status codes. Unknown
// errors are 500s with a generic body; the real cause goes to the Gin
// error log only.
func writeRaceError(c *gin.Context, err error) {
	code := services.CodeOf(err)
	if code == "" {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch code {
	case services.ErrNotFound:
		status = http.StatusNotFound
	case services.ErrInvalidState, services.ErrDuplicateResponse:
		status = http.StatusConflict
	case services.ErrUnauthorized:
		status = http.StatusForbidden
	case services.ErrNotYetOpen:
		status = http.StatusTooEarly
	case services.ErrValidation:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": string(code)})
}

// CreateRFQRequest is the POST /v1/rfq body.
type CreateRFQRequest struct {
	FoundryID      string                 `json:"foundry_id"`
	Type           string                 `json:"rfq_type" binding:"required"`
	Title          string                 `json:"title" binding:"required"`
	Specifications map[string]interface{} `json:"specifications"`
	BudgetMin      *float64               `json:"budget_min"`
	BudgetMax      *float64               `json:"budget_max"`
	Category       string                 `json:"category" binding:"required"`
	SkillsRequired []string               `json:"skills_required"`
	Urgency        string                 `json:"urgency"`
}

// CreateRFQ handles POST /v1/rfq. Creation also schedules the broadcast
// task at the RFQ's race open time.
func (h *RFQHandler) CreateRFQ(c *gin.Context) {
	var req CreateRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = string(models.UrgencyStandard)
	}

	rfq, err := h.rfqService.Create(c.Request.Context(), services.CreateRFQInput{
		BuyerID:        c.GetString(middleware.ContextKeyUserID),
		FoundryID:      req.FoundryID,
		Type:           models.RFQType(req.Type),
		Title:          req.Title,
		Specifications: req.Specifications,
		BudgetMin:      req.BudgetMin,
		BudgetMax:      req.BudgetMax,
		Category:       req.Category,
		SkillsRequired: req.SkillsRequired,
		Urgency:        models.Urgency(urgency),
	})
	if err != nil {
		writeRaceError(c, err)
		return
	}

	task, err := tasks.NewRFQBroadcastTask(rfq.ID)
	if err == nil {
		_, err = h.taskClient.EnqueueContext(c.Request.Context(), task, asynq.ProcessAt(*rfq.RaceOpensAt), asynq.Queue("critical"))
	}
	if err != nil {
		// The RFQ exists; the broadcast can be re-triggered. Surface the
		// degraded state rather than failing the create.
		_ = c.Error(err)
		c.JSON(http.StatusCreated, gin.H{"data": rfq, "warning": "broadcast scheduling failed, retry the broadcast manually"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rfq})
}

// ListRFQs handles GET /v1/rfq for the authenticated buyer.
func (h *RFQHandler) ListRFQs(c *gin.Context) {
	var statusFilter *models.RFQStatus
	if s := c.Query("status"); s != "" {
		st := models.RFQStatus(s)
		statusFilter = &st
	}

	rfqs, err := h.rfqService.ListByBuyer(c.Request.Context(), c.GetString(middleware.ContextKeyUserID), statusFilter, 0)
	if err != nil {
		writeRaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rfqs})
}

// GetRFQ handles GET /v1/rfq/:id.
func (h *RFQHandler) GetRFQ(c *gin.Context) {
	rfq, err := h.rfqService.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeRaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rfq})
}

// AcceptRequest is the POST /v1/rfq/:id/accept body.
type AcceptRequest struct {
	QuotedPrice *float64 `json:"quoted_price"`
}

// AcceptRFQ handles POST /v1/rfq/:id/accept. The authenticated user is the
// responding provider.
func (h *RFQHandler) AcceptRFQ(c *gin.Context) {
	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rfqID := c.Param("id")
	outcome, err := h.raceService.AcceptRFQ(c.Request.Context(), rfqID, c.GetString(middleware.ContextKeyUserID), req.QuotedPrice)
	if err != nil {
		writeRaceError(c, err)
		return
	}

	h.statusCache.Invalidate(c.Request.Context(), rfqID)
	c.JSON(http.StatusOK, gin.H{"data": outcome})
}

// DeclineRequest is the POST /v1/rfq/:id/decline body.
type DeclineRequest struct {
	Reason string `json:"reason"`
}

// DeclineRFQ handles POST /v1/rfq/:id/decline.
func (h *RFQHandler) DeclineRFQ(c *gin.Context) {
	var req DeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rfqID := c.Param("id")
	err := h.raceService.DeclineRFQ(c.Request.Context(), rfqID, c.GetString(middleware.ContextKeyUserID), req.Reason)
	if err != nil {
		writeRaceError(c, err)
		return
	}

	h.statusCache.Invalidate(c.Request.Context(), rfqID)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"declined": true}})
}

// InfoRequest is the POST /v1/rfq/:id/info body.
type InfoRequest struct {
	Questions string `json:"questions" binding:"required"`
}

// RequestMoreInfo handles POST /v1/rfq/:id/info.
func (h *RFQHandler) RequestMoreInfo(c *gin.Context) {
	var req InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rfqID := c.Param("id")
	err := h.raceService.RequestMoreInfo(c.Request.Context(), rfqID, c.GetString(middleware.ContextKeyUserID), req.Questions)
	if err != nil {
		writeRaceError(c, err)
		return
	}

	h.statusCache.Invalidate(c.Request.Context(), rfqID)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"recorded": true}})
}

// AwardRequest is the POST /v1/rfq/:id/award body.
type AwardRequest struct {
	ProviderID string `json:"provider_id" binding:"required"`
}

// AwardRFQ handles POST /v1/rfq/:id/award. The authenticated user must be
// the RFQ's buyer.
func (h *RFQHandler) AwardRFQ(c *gin.Context) {
	var req AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rfqID := c.Param("id")
	err := h.raceService.AwardRFQ(c.Request.Context(), rfqID, req.ProviderID, c.GetString(middleware.ContextKeyUserID))
	if err != nil {
		writeRaceError(c, err)
		return
	}

	h.statusCache.Invalidate(c.Request.Context(), rfqID)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"awarded_to": req.ProviderID}})
}

// ReleaseHold handles POST /v1/rfq/:id/release.
func (h *RFQHandler) ReleaseHold(c *gin.Context) {
	rfqID := c.Param("id")
	err := h.raceService.ReleasePriorityHold(c.Request.Context(), rfqID, c.GetString(middleware.ContextKeyUserID))
	if err != nil {
		writeRaceError(c, err)
		return
	}

	h.statusCache.Invalidate(c.Request.Context(), rfqID)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"released": true}})
}

// CloseRFQ handles POST /v1/rfq/:id/close.
func (h *RFQHandler) CloseRFQ(c *gin.Context) {
	rfqID := c.Param("id")
	err := h.raceService.CloseRFQ(c.Request.Context(), rfqID, c.GetString(middleware.ContextKeyUserID))
	if err != nil {
		writeRaceError(c, err)
		return
	}

	h.statusCache.Invalidate(c.Request.Context(), rfqID)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"closed": true}})
}

// CancelRFQ handles POST /v1/rfq/:id/cancel.
func (h *RFQHandler) CancelRFQ(c *gin.Context) {
	rfqID := c.Param("id")
	err := h.raceService.CancelRFQ(c.Request.Context(), rfqID, c.GetString(middleware.ContextKeyUserID))
	if err != nil {
		writeRaceError(c, err)
		return
	}

	h.statusCache.Invalidate(c.Request.Context(), rfqID)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": true}})
}

// RaceStatus handles GET /v1/rfq/:id/race. Status reads are the hot path
// during a race, so results go through a short-TTL cache.
func (h *RFQHandler) RaceStatus(c *gin.Context) {
	rfqID := c.Param("id")

	var cached services.RaceStatus
	if h.statusCache.Get(c.Request.Context(), rfqID, &cached) {
		c.JSON(http.StatusOK, gin.H{"data": cached, "cached": true})
		return
	}

	status, err := h.raceService.CheckRaceStatus(c.Request.Context(), rfqID)
	if err != nil {
		writeRaceError(c, err)
		return
	}

	h.statusCache.Set(c.Request.Context(), rfqID, status)
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// ListInvitations handles GET /v1/invitations for the authenticated
// provider.
func (h *RFQHandler) ListInvitations(c *gin.Context) {
	invitations, err := h.raceService.ListInvitations(c.Request.Context(), c.GetString(middleware.ContextKeyUserID))
	if err != nil {
		writeRaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invitations})
}
