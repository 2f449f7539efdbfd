package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hotelops/backend/internal/service"
)

type TicketResponse struct {
	TicketID       string  `json:"ticket_id"`
	Department     string  `json:"department"`
	Priority       string  `json:"priority"`
	ConversationID string  `json:"conversation_id"`
	AssignedTo     *string `json:"assigned_to"`
	Deduped        bool    `json:"deduped"`
	AdvisoryID     string  `json:"advisory_id,omitempty"`
	SourceKey      string  `json:"source_key,omitempty"`
}

// @Summary Create ticket from advisory
// @Description Opens a routed ticket for an advisory unless a live one exists inside the dedup window
// @Tags tickets
// @Accept json
// @Produce json
// @Param payload body service.AdvisoryTicketInput true "Advisory"
// @Success 200 {object} TicketResponse "deduplicated"
// @Success 201 {object} TicketResponse "created"
// @Failure 400 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /api/advisory/create-ticket [post]
func (h *Handler) CreateAdvisoryTicket(c *gin.Context) {
	var req service.AdvisoryTicketInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	res, err := h.Tickets.CreateFromAdvisory(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to create advisory ticket")
		return
	}
	writeTicket(c, res)
}

// @Summary Create ticket from pricing action
// @Description Idempotent per hotel, night and adjustment
// @Tags tickets
// @Accept json
// @Produce json
// @Param payload body service.PricingActionInput true "Pricing action"
// @Success 200 {object} TicketResponse "deduplicated"
// @Success 201 {object} TicketResponse "created"
// @Failure 400 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /api/pricing-action/create-ticket [post]
func (h *Handler) CreatePricingTicket(c *gin.Context) {
	var req service.PricingActionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	res, err := h.Tickets.CreateFromPricingAction(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to create pricing ticket")
		return
	}
	writeTicket(c, res)
}

func writeTicket(c *gin.Context, res service.TicketResult) {
	status := http.StatusCreated
	if res.Deduped {
		status = http.StatusOK
	}
	c.JSON(status, TicketResponse{
		TicketID:       res.TicketID,
		Department:     string(res.Department),
		Priority:       string(res.Priority),
		ConversationID: res.ConversationID,
		AssignedTo:     res.AssignedTo,
		Deduped:        res.Deduped,
		AdvisoryID:     res.AdvisoryID,
		SourceKey:      res.SourceKey,
	})
}
