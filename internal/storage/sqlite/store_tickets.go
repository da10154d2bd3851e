package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sundayfest/housegate/internal/attendee"
	"github.com/sundayfest/housegate/internal/house"
	"github.com/sundayfest/housegate/internal/storage"
	"github.com/sundayfest/housegate/internal/ticket"
)

const ticketColumns = `id, child_id, ticket_number, status, redeemed_at, created_at, updated_at`

// GetTicketByNumber returns one ticket by its human-facing number.
func (s *Store) GetTicketByNumber(ctx context.Context, number string) (storage.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return storage.Ticket{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Ticket{}, fmt.Errorf("storage is not configured")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return storage.Ticket{}, fmt.Errorf("ticket number is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE ticket_number = ?",
		number,
	)
	tk, err := scanTicket(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Ticket{}, storage.ErrNotFound
		}
		return storage.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return tk, nil
}

// RedeemTicket performs the active -> redeemed transition.
//
// The UPDATE is conditioned on the status still being active, so when two
// scanners race on the same number at most one write succeeds. The loser gets
// the ticket's current state alongside ErrTicketNotActive so the caller can
// report the original redemption time.
func (s *Store) RedeemTicket(ctx context.Context, number string, now time.Time) (storage.Ticket, error) {
	return s.transitionTicket(ctx, number, ticket.StatusRedeemed, now)
}

// VoidTicket performs the administrative active -> void transition.
// Redeemed tickets cannot be voided.
func (s *Store) VoidTicket(ctx context.Context, number string, now time.Time) (storage.Ticket, error) {
	return s.transitionTicket(ctx, number, ticket.StatusVoid, now)
}

func (s *Store) transitionTicket(ctx context.Context, number string, to ticket.Status, now time.Time) (storage.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return storage.Ticket{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Ticket{}, fmt.Errorf("storage is not configured")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return storage.Ticket{}, fmt.Errorf("ticket number is required")
	}
	if !ticket.CanTransition(ticket.StatusActive, to) {
		return storage.Ticket{}, fmt.Errorf("illegal ticket transition to %s", to)
	}

	var redeemedAt any
	if to == ticket.StatusRedeemed {
		redeemedAt = toMillis(now)
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE tickets
		    SET status = ?, redeemed_at = ?, updated_at = ?
		  WHERE ticket_number = ? AND status = ?`,
		string(to),
		redeemedAt,
		toMillis(now),
		number,
		string(ticket.StatusActive),
	)
	if err != nil {
		return storage.Ticket{}, fmt.Errorf("transition ticket: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.Ticket{}, fmt.Errorf("transition ticket rows: %w", err)
	}

	current, err := s.GetTicketByNumber(ctx, number)
	if err != nil {
		return storage.Ticket{}, err
	}
	if affected == 0 {
		return current, storage.ErrTicketNotActive
	}
	return current, nil
}

// ListTickets returns one page of attendee+ticket rows. Attendees without a
// ticket (abandoned registrations) are excluded by the inner join.
func (s *Store) ListTickets(ctx context.Context, query storage.ListTicketsQuery) (storage.TicketPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.TicketPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.TicketPage{}, fmt.Errorf("storage is not configured")
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	if query.PageSize <= 0 {
		return storage.TicketPage{}, fmt.Errorf("page size must be greater than zero")
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if search := strings.TrimSpace(query.Search); search != "" {
		where = append(where, `a.name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(search)+"%")
	}
	if query.House != "" {
		if !query.House.Valid() {
			return storage.TicketPage{}, fmt.Errorf("unknown house %q", query.House)
		}
		where = append(where, "a.house = ?")
		args = append(args, string(query.House))
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	orderSQL, err := orderClause(query.SortField, query.SortDir)
	if err != nil {
		return storage.TicketPage{}, err
	}

	fromSQL := ` FROM attendees a
	  JOIN tickets t ON t.child_id = a.id
	  LEFT JOIN registrars r ON r.id = a.registered_by`

	var total int
	if err := s.sqlDB.QueryRowContext(
		ctx,
		"SELECT COUNT(*)"+fromSQL+whereSQL,
		args...,
	).Scan(&total); err != nil {
		return storage.TicketPage{}, fmt.Errorf("count tickets: %w", err)
	}

	listArgs := append(append([]any{}, args...), query.PageSize, (page-1)*query.PageSize)
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT a.id, a.name, a.age, a.class, a.gender, a.house, a.photo_url,
		        a.guardian_phone, COALESCE(a.registered_by, ''), a.created_at, a.updated_at,
		        t.id, t.child_id, t.ticket_number, t.status, t.redeemed_at, t.created_at, t.updated_at,
		        COALESCE(r.name, '')`+
			fromSQL+whereSQL+orderSQL+" LIMIT ? OFFSET ?",
		listArgs...,
	)
	if err != nil {
		return storage.TicketPage{}, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	result := storage.TicketPage{Total: total}
	for rows.Next() {
		var tr storage.TicketRow
		var gender, houseLabel, status string
		var attCreated, attUpdated, tkCreated, tkUpdated int64
		var redeemedAt sql.NullInt64
		if err := rows.Scan(
			&tr.Attendee.ID,
			&tr.Attendee.Name,
			&tr.Attendee.Age,
			&tr.Attendee.Class,
			&gender,
			&houseLabel,
			&tr.Attendee.PhotoURL,
			&tr.Attendee.GuardianPhone,
			&tr.Attendee.RegisteredBy,
			&attCreated,
			&attUpdated,
			&tr.Ticket.ID,
			&tr.Ticket.ChildID,
			&tr.Ticket.TicketNumber,
			&status,
			&redeemedAt,
			&tkCreated,
			&tkUpdated,
			&tr.RegistrarName,
		); err != nil {
			return storage.TicketPage{}, fmt.Errorf("list tickets: %w", err)
		}
		tr.Attendee.Gender = attendee.Gender(gender)
		tr.Attendee.House = house.House(houseLabel)
		tr.Attendee.CreatedAt = fromMillis(attCreated)
		tr.Attendee.UpdatedAt = fromMillis(attUpdated)
		tr.Ticket.Status = ticket.Status(status)
		if redeemedAt.Valid {
			at := fromMillis(redeemedAt.Int64)
			tr.Ticket.RedeemedAt = &at
		}
		tr.Ticket.CreatedAt = fromMillis(tkCreated)
		tr.Ticket.UpdatedAt = fromMillis(tkUpdated)
		result.Rows = append(result.Rows, tr)
	}
	if err := rows.Err(); err != nil {
		return storage.TicketPage{}, fmt.Errorf("list tickets: %w", err)
	}
	return result, nil
}

func orderClause(field storage.SortField, dir storage.SortDir) (string, error) {
	column := ""
	switch field {
	case "", storage.SortByCreatedAt:
		column = "a.created_at"
	case storage.SortByName:
		column = "a.name COLLATE NOCASE"
	case storage.SortByHouse:
		column = "a.house"
	default:
		return "", fmt.Errorf("unknown sort field %q", field)
	}

	direction := ""
	switch dir {
	case "", storage.SortDesc:
		direction = "DESC"
	case storage.SortAsc:
		direction = "ASC"
	default:
		return "", fmt.Errorf("unknown sort direction %q", dir)
	}

	return fmt.Sprintf(" ORDER BY %s %s, a.id ASC", column, direction), nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func scanTicket(scan func(dest ...any) error) (storage.Ticket, error) {
	var tk storage.Ticket
	var status string
	var redeemedAt sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&tk.ID,
		&tk.ChildID,
		&tk.TicketNumber,
		&status,
		&redeemedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Ticket{}, err
	}
	tk.Status = ticket.Status(status)
	if redeemedAt.Valid {
		at := fromMillis(redeemedAt.Int64)
		tk.RedeemedAt = &at
	}
	tk.CreatedAt = fromMillis(createdAt)
	tk.UpdatedAt = fromMillis(updatedAt)
	return tk, nil
}
