package rest

import (
	"net/http"
	"strconv"

	"github.com/sundayfest/housegate/internal/errors"
	"github.com/sundayfest/housegate/internal/house"
	"github.com/sundayfest/housegate/internal/storage"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

type ticketRowPayload struct {
	Attendee  attendeePayload `json:"attendee"`
	Ticket    ticketPayload   `json:"ticket"`
	Registrar string          `json:"registrar,omitempty"`
}

type ticketListResponse struct {
	Rows     []ticketRowPayload `json:"rows"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

func (h *Handler) handleListTickets(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.tickets.ListTickets(r.Context(), query)
	if err != nil {
		writeError(w, errors.Wrap(errors.CodePersistence, "list tickets", err))
		return
	}

	resp := ticketListResponse{
		Rows:     make([]ticketRowPayload, 0, len(page.Rows)),
		Total:    page.Total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	for _, row := range page.Rows {
		resp.Rows = append(resp.Rows, ticketRowPayload{
			Attendee:  toAttendeePayload(row.Attendee),
			Ticket:    toTicketPayload(row.Ticket, row.Attendee),
			Registrar: row.RegistrarName,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseListQuery(r *http.Request) (storage.ListTicketsQuery, error) {
	values := r.URL.Query()
	fields := make(map[string]string)

	query := storage.ListTicketsQuery{
		Page:     1,
		PageSize: defaultPageSize,
		Search:   values.Get("search"),
	}
	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			fields["page"] = "page must be a positive integer"
		} else {
			query.Page = page
		}
	}
	if raw := values.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			fields["page_size"] = "page_size must be between 1 and 100"
		} else {
			query.PageSize = size
		}
	}
	if raw := values.Get("house"); raw != "" {
		parsed, ok := house.Parse(raw)
		if !ok {
			fields["house"] = "house is not recognized"
		} else {
			query.House = parsed
		}
	}
	switch values.Get("sort") {
	case "":
	case "created_at":
		query.SortField = storage.SortByCreatedAt
	case "name":
		query.SortField = storage.SortByName
	case "house":
		query.SortField = storage.SortByHouse
	default:
		fields["sort"] = "sort must be one of created_at, name, house"
	}
	switch values.Get("dir") {
	case "":
	case "asc":
		query.SortDir = storage.SortAsc
	case "desc":
		query.SortDir = storage.SortDesc
	default:
		fields["dir"] = "dir must be asc or desc"
	}

	if len(fields) > 0 {
		return storage.ListTicketsQuery{}, errors.WithMetadata(errors.CodeValidation, "ticket listing query is invalid", fields)
	}
	return query, nil
}
