// Package rest exposes registration, redemption, and statistics over JSON.
package rest

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/sundayfest/housegate/internal/attendee"
	"github.com/sundayfest/housegate/internal/errors"
	"github.com/sundayfest/housegate/internal/redemption"
	"github.com/sundayfest/housegate/internal/registration"
	"github.com/sundayfest/housegate/internal/stats"
	"github.com/sundayfest/housegate/internal/storage"
	"github.com/sundayfest/housegate/internal/ticket"
)

// registrarHeader carries the registrar identity from the auth layer in
// front of this service.
const registrarHeader = "X-Registrar-ID"

// Handler serves the housegate JSON API.
type Handler struct {
	registrations *registration.Service
	redemptions   *redemption.Service
	statistics    *stats.Service
	tickets       storage.TicketStore
}

// NewHandler creates the API handler.
func NewHandler(registrations *registration.Service, redemptions *redemption.Service, statistics *stats.Service, tickets storage.TicketStore) *Handler {
	return &Handler{
		registrations: registrations,
		redemptions:   redemptions,
		statistics:    statistics,
		tickets:       tickets,
	}
}

// Routes mounts all API routes on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/registrations", h.handleCreateRegistration)
	mux.HandleFunc("PATCH /api/attendees/{id}", h.handlePatchAttendee)
	mux.HandleFunc("POST /api/redemptions", h.handleCreateRedemption)
	mux.HandleFunc("GET /api/tickets", h.handleListTickets)
	mux.HandleFunc("GET /api/tickets/{number}", h.handleGetTicket)
	mux.HandleFunc("POST /api/tickets/{number}/void", h.handleVoidTicket)
	mux.HandleFunc("GET /api/statistics", h.handleStatistics)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorPayload is the wire shape for failed requests.
type errorPayload struct {
	Code    errors.Code       `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	payload := errorPayload{
		Code:    code,
		Message: err.Error(),
		Fields:  errors.GetMetadata(err),
	}
	if code == errors.CodePersistence || code == errors.CodeUnknown {
		// Internal detail stays in the logs.
		log.Printf("api error: %v", err)
		payload.Message = "internal error"
	}
	writeJSON(w, code.HTTPStatus(), payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return errors.Wrap(errors.CodeValidation, "request body is not valid JSON", err)
	}
	return nil
}

// attendeePayload is the wire shape of a registered attendee.
type attendeePayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Class         string `json:"class"`
	Gender        string `json:"gender"`
	House         string `json:"house"`
	PhotoURL      string `json:"photo_url,omitempty"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
	RegisteredBy  string `json:"registered_by,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ticketPayload is the wire shape of an admission ticket. ScanPayload is the
// string clients encode into the QR code.
type ticketPayload struct {
	ID           string `json:"id"`
	TicketNumber string `json:"ticket_number"`
	Status       string `json:"status"`
	RedeemedAt   string `json:"redeemed_at,omitempty"`
	CreatedAt    string `json:"created_at"`
	ScanPayload  string `json:"scan_payload,omitempty"`
}

func toAttendeePayload(att attendee.Attendee) attendeePayload {
	return attendeePayload{
		ID:            att.ID,
		Name:          att.Name,
		Age:           att.Age,
		Class:         att.Class,
		Gender:        string(att.Gender),
		House:         string(att.House),
		PhotoURL:      att.PhotoURL,
		GuardianPhone: att.GuardianPhone,
		RegisteredBy:  att.RegisteredBy,
		CreatedAt:     att.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     att.UpdatedAt.Format(time.RFC3339),
	}
}

func toTicketPayload(tick storage.Ticket, holder attendee.Attendee) ticketPayload {
	payload := ticketPayload{
		ID:           tick.ID,
		TicketNumber: tick.TicketNumber,
		Status:       string(tick.Status),
		CreatedAt:    tick.CreatedAt.Format(time.RFC3339),
	}
	if tick.RedeemedAt != nil {
		payload.RedeemedAt = tick.RedeemedAt.Format(time.RFC3339)
	}
	if holder.Name != "" {
		if scan, err := ticket.EncodeScanPayload(tick.TicketNumber, holder.Name, holder.House, tick.CreatedAt); err == nil {
			payload.ScanPayload = scan
		}
	}
	return payload
}
