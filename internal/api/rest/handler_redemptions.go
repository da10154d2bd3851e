package rest

import (
	"net/http"

	"github.com/sundayfest/housegate/internal/attendee"
	"github.com/sundayfest/housegate/internal/redemption"
)

type createRedemptionRequest struct {
	TicketNumber string `json:"ticket_number"`
}

type redemptionResponse struct {
	Success  bool             `json:"success"`
	Reason   string           `json:"reason,omitempty"`
	Ticket   *ticketPayload   `json:"ticket,omitempty"`
	Attendee *attendeePayload `json:"attendee,omitempty"`
}

func toRedemptionResponse(result redemption.Result) redemptionResponse {
	resp := redemptionResponse{
		Success: result.Success,
		Reason:  string(result.Reason),
	}
	if result.Ticket.ID != "" {
		tick := toTicketPayload(result.Ticket, result.Attendee)
		resp.Ticket = &tick
	}
	if result.Attendee.ID != "" {
		att := toAttendeePayload(result.Attendee)
		resp.Attendee = &att
	}
	return resp
}

func (h *Handler) handleCreateRedemption(w http.ResponseWriter, r *http.Request) {
	var req createRedemptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.redemptions.Redeem(r.Context(), req.TicketNumber)
	if err != nil {
		writeError(w, err)
		return
	}

	// Rejections are data: the gate needs the reason, not an error status.
	writeJSON(w, http.StatusOK, toRedemptionResponse(result))
}

func (h *Handler) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	result, err := h.redemptions.Lookup(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, err)
		return
	}
	if result.Reason == redemption.ReasonNotFound && result.Ticket.ID == "" {
		writeJSON(w, http.StatusNotFound, errorPayload{Code: "NOT_FOUND", Message: "ticket not found"})
		return
	}
	writeJSON(w, http.StatusOK, toRedemptionResponse(result))
}

func (h *Handler) handleVoidTicket(w http.ResponseWriter, r *http.Request) {
	tick, err := h.redemptions.Void(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketPayload(tick, attendee.Attendee{}))
}
