package rest

import (
	"net/http"

	"github.com/sundayfest/housegate/internal/registration"
)

type createRegistrationRequest struct {
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Class         string `json:"class"`
	Gender        string `json:"gender"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
	TicketID      string `json:"ticket_id,omitempty"`
	// Photo is optional image content, base64-encoded by encoding/json.
	Photo []byte `json:"photo,omitempty"`
}

type registrationResponse struct {
	Attendee attendeePayload `json:"attendee"`
	Ticket   ticketPayload   `json:"ticket"`
}

func (h *Handler) handleCreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req createRegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	reg, err := h.registrations.Register(r.Context(), registration.Draft{
		Name:          req.Name,
		Age:           req.Age,
		Class:         req.Class,
		Gender:        req.Gender,
		GuardianPhone: req.GuardianPhone,
		RegistrarID:   r.Header.Get(registrarHeader),
		TicketID:      req.TicketID,
		Photo:         req.Photo,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registrationResponse{
		Attendee: toAttendeePayload(reg.Attendee),
		Ticket:   toTicketPayload(reg.Ticket, reg.Attendee),
	})
}

type patchAttendeeRequest struct {
	Name          *string `json:"name,omitempty"`
	Age           *int    `json:"age,omitempty"`
	Class         *string `json:"class,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	GuardianPhone *string `json:"guardian_phone,omitempty"`
}

func (h *Handler) handlePatchAttendee(w http.ResponseWriter, r *http.Request) {
	var req patchAttendeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.registrations.Update(r.Context(), r.PathValue("id"), registration.Patch{
		Name:          req.Name,
		Age:           req.Age,
		Class:         req.Class,
		Gender:        req.Gender,
		GuardianPhone: req.GuardianPhone,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAttendeePayload(updated))
}
