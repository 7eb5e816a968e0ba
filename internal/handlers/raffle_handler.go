package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"github.com/meue/rewards-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleHandler handles raffle-related HTTP requests
type RaffleHandler struct {
	raffleService services.RaffleService
	drawService   services.DrawService
	syncService   *services.SyncService
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(
	raffleService services.RaffleService,
	drawService services.DrawService,
	syncService *services.SyncService,
) *RaffleHandler {
	return &RaffleHandler{
		raffleService: raffleService,
		drawService:   drawService,
		syncService:   syncService,
	}
}

// writeError maps engine errors to HTTP statuses
func writeError(c *gin.Context, err error) {
	switch {
	case raffleerr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, raffleerr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, raffleerr.ErrAlreadyDrawn):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, raffleerr.ErrNoParticipants):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// PrizeRequest is one prize line in a create request
type PrizeRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity *int   `json:"quantity"`
	EndDate  string `json:"endDate"` // YYYY-MM-DD, optional
}

// CreateRaffleRequest is the payload for POST /admin/raffles
type CreateRaffleRequest struct {
	Name        string         `json:"name" binding:"required"`
	ScheduledAt time.Time      `json:"scheduledAt" binding:"required"`
	Prizes      []PrizeRequest `json:"prizes" binding:"required"`
}

// CreateRaffle handles POST /admin/raffles
func (h *RaffleHandler) CreateRaffle(c *gin.Context) {
	var request CreateRaffleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prizes := make([]models.Prize, 0, len(request.Prizes))
	for _, p := range request.Prizes {
		prize := models.Prize{Name: p.Name, Quantity: p.Quantity}
		if p.EndDate != "" {
			endDate, err := time.Parse("2006-01-02", p.EndDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prize end date format (YYYY-MM-DD)"})
				return
			}
			prize.EndDate = &endDate
		}
		prizes = append(prizes, prize)
	}

	raffle, err := h.raffleService.Create(c.Request.Context(), request.Name, prizes, request.ScheduledAt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, raffle)
}

// CreateFromOffer handles POST /admin/raffles/from-offer/:offerId
func (h *RaffleHandler) CreateFromOffer(c *gin.Context) {
	offerID, err := primitive.ObjectIDFromHex(c.Param("offerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offer ID format"})
		return
	}
	raffle, err := h.raffleService.CreateFromOffer(c.Request.Context(), offerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, raffle)
}

// DeleteRaffle handles DELETE /admin/raffles/:id. Cascade failures are a
// partial success: the response carries a warning, not an error status.
func (h *RaffleHandler) DeleteRaffle(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	result, err := h.raffleService.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	h.syncService.OnRaffleDeleted(id)
	c.JSON(http.StatusOK, result)
}

// ForceVisibilityRequest is the payload for PATCH /admin/raffles/:id/visibility
type ForceVisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// ForceVisibility handles PATCH /admin/raffles/:id/visibility
func (h *RaffleHandler) ForceVisibility(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var request ForceVisibilityRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.syncService.ForceVisibility(c.Request.Context(), id, *request.Visible); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raffleId": id.Hex(), "isVisible": *request.Visible})
}

// ExecuteDraw handles POST /admin/raffles/:id/draw
func (h *RaffleHandler) ExecuteDraw(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	raffle, err := h.drawService.ExecuteDraw(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	h.syncService.OnDrawCompleted(c.Request.Context(), raffle)
	c.JSON(http.StatusOK, raffle)
}

// GetRaffleByID handles GET /admin/raffles/:id
func (h *RaffleHandler) GetRaffleByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	raffle, err := h.raffleService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// ListRaffles handles GET /admin/raffles?filter=all|scheduled|drawn|visible
func (h *RaffleHandler) ListRaffles(c *gin.Context) {
	filter := services.ListFilter(c.DefaultQuery("filter", string(services.ListAll)))
	switch filter {
	case services.ListAll, services.ListScheduled, services.ListDrawn, services.ListVisible:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter (all, scheduled, drawn, visible)"})
		return
	}
	raffles, err := h.raffleService.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffles)
}

// PublicRaffles handles GET /raffles: raffles open for entry plus
// completed raffles with winners, read-only.
func (h *RaffleHandler) PublicRaffles(c *gin.Context) {
	raffles, err := h.raffleService.PublicList(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffles)
}

// EnterRaffleRequest is the payload appended by the entry flow
type EnterRaffleRequest struct {
	UserRef     string `json:"userRef" binding:"required"`
	Entries     int    `json:"entries" binding:"required,min=1"`
	ContactInfo string `json:"contactInfo"`
}

// EnterRaffle handles POST /raffles/:id/entries
func (h *RaffleHandler) EnterRaffle(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var request EnterRaffleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	participant := models.Participant{
		UserRef:     request.UserRef,
		Entries:     request.Entries,
		ContactInfo: request.ContactInfo,
	}
	if err := h.raffleService.AddParticipant(c.Request.Context(), id, participant); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"raffleId": id.Hex(), "userRef": request.UserRef})
}
