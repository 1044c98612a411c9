package handlers

import (
	"net/http"

	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/dimitrije/trainerhub/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

const leadReceivedMessage = "Your message has been sent. A confirmation is on its way to your mailbox."

type LeadHandler struct {
	leads LeadServiceInterface
	log   *zap.Logger
}

func NewLeadHandler(leads LeadServiceInterface, log *zap.Logger) *LeadHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeadHandler{leads: leads, log: log}
}

func (h *LeadHandler) Submit(c *drift.Context) {
	var req services.LeadInput
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if _, err := h.leads.Submit(c.Request.Context(), req); err != nil {
		respondError(c, h.log, err, "failed to send message")
		return
	}

	_ = c.JSON(http.StatusCreated, dto.MessageResponse{Message: leadReceivedMessage})
}
