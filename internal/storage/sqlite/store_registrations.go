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

const attendeeColumns = `id, name, age, class, gender, house, photo_url,
	guardian_phone, COALESCE(registered_by, ''), created_at, updated_at`

// CreateRegistration inserts the attendee and their ticket in one
// transaction. The house is assigned inside the transaction from the current
// per-house counts, and the ticket ordinal is derived from the same counts,
// so the number is consistent with the assignment that produced it. The
// unique index on ticket_number remains the backstop when two registrations
// race into the same house; the loser surfaces ErrDuplicateTicketNumber for
// the caller's bounded retry.
func (s *Store) CreateRegistration(ctx context.Context, att attendee.Attendee, ticketID string, now time.Time) (storage.Registration, error) {
	if err := ctx.Err(); err != nil {
		return storage.Registration{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Registration{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(att.ID) == "" {
		return storage.Registration{}, fmt.Errorf("attendee id is required")
	}
	if strings.TrimSpace(ticketID) == "" {
		return storage.Registration{}, fmt.Errorf("ticket id is required")
	}
	now = now.UTC()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Registration{}, fmt.Errorf("begin registration: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	counts, err := houseCounts(ctx, tx)
	if err != nil {
		return storage.Registration{}, err
	}
	assigned := house.Assign(counts)
	ordinal := counts[assigned] + 1
	number := ticket.Number(assigned, ordinal)

	var registeredBy any
	if strings.TrimSpace(att.RegisteredBy) != "" {
		registeredBy = att.RegisteredBy
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO attendees (
		   id, name, age, class, gender, house, photo_url,
		   guardian_phone, registered_by, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		att.ID,
		att.Name,
		att.Age,
		att.Class,
		string(att.Gender),
		string(assigned),
		att.PhotoURL,
		att.GuardianPhone,
		registeredBy,
		toMillis(now),
		toMillis(now),
	); err != nil {
		return storage.Registration{}, fmt.Errorf("insert attendee: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO tickets (
		   id, child_id, ticket_number, status, redeemed_at, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, NULL, ?, ?)`,
		ticketID,
		att.ID,
		number,
		string(ticket.StatusActive),
		toMillis(now),
		toMillis(now),
	); err != nil {
		switch {
		case isUniqueViolation(err, "tickets.ticket_number"):
			return storage.Registration{}, storage.ErrDuplicateTicketNumber
		case isUniqueViolation(err, "tickets.id"):
			return storage.Registration{}, storage.ErrDuplicateTicketID
		}
		return storage.Registration{}, fmt.Errorf("insert ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.Registration{}, fmt.Errorf("commit registration: %w", err)
	}

	att.House = assigned
	att.CreatedAt = now
	att.UpdatedAt = now
	return storage.Registration{
		Attendee: att,
		Ticket: storage.Ticket{
			ID:           ticketID,
			ChildID:      att.ID,
			TicketNumber: number,
			Status:       ticket.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}, nil
}

// UpdateAttendee patches mutable attendee fields. House and the ticket link
// are deliberately not patchable.
func (s *Store) UpdateAttendee(ctx context.Context, attendeeID string, patch storage.AttendeePatch, now time.Time) (attendee.Attendee, error) {
	if err := ctx.Err(); err != nil {
		return attendee.Attendee{}, err
	}
	if s == nil || s.sqlDB == nil {
		return attendee.Attendee{}, fmt.Errorf("storage is not configured")
	}
	attendeeID = strings.TrimSpace(attendeeID)
	if attendeeID == "" {
		return attendee.Attendee{}, fmt.Errorf("attendee id is required")
	}

	assignments := make([]string, 0, 7)
	args := make([]any, 0, 8)
	appendSet := func(column string, value any) {
		assignments = append(assignments, column+" = ?")
		args = append(args, value)
	}
	if patch.Name != nil {
		appendSet("name", *patch.Name)
	}
	if patch.Age != nil {
		appendSet("age", *patch.Age)
	}
	if patch.Class != nil {
		appendSet("class", *patch.Class)
	}
	if patch.Gender != nil {
		appendSet("gender", string(*patch.Gender))
	}
	if patch.GuardianPhone != nil {
		appendSet("guardian_phone", *patch.GuardianPhone)
	}
	if patch.PhotoURL != nil {
		appendSet("photo_url", *patch.PhotoURL)
	}
	if len(assignments) == 0 {
		return s.GetAttendee(ctx, attendeeID)
	}
	appendSet("updated_at", toMillis(now.UTC()))
	args = append(args, attendeeID)

	result, err := s.sqlDB.ExecContext(
		ctx,
		"UPDATE attendees SET "+strings.Join(assignments, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return attendee.Attendee{}, fmt.Errorf("update attendee: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return attendee.Attendee{}, fmt.Errorf("update attendee rows: %w", err)
	}
	if affected == 0 {
		return attendee.Attendee{}, storage.ErrNotFound
	}

	return s.GetAttendee(ctx, attendeeID)
}

// GetAttendee returns one attendee by id.
func (s *Store) GetAttendee(ctx context.Context, attendeeID string) (attendee.Attendee, error) {
	if err := ctx.Err(); err != nil {
		return attendee.Attendee{}, err
	}
	if s == nil || s.sqlDB == nil {
		return attendee.Attendee{}, fmt.Errorf("storage is not configured")
	}
	attendeeID = strings.TrimSpace(attendeeID)
	if attendeeID == "" {
		return attendee.Attendee{}, fmt.Errorf("attendee id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		"SELECT "+attendeeColumns+" FROM attendees WHERE id = ?",
		attendeeID,
	)
	att, err := scanAttendee(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendee.Attendee{}, storage.ErrNotFound
		}
		return attendee.Attendee{}, fmt.Errorf("get attendee: %w", err)
	}
	return att, nil
}

type execQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func houseCounts(ctx context.Context, q execQuerier) (map[house.House]int, error) {
	rows, err := q.QueryContext(ctx, "SELECT house, COUNT(*) FROM attendees GROUP BY house")
	if err != nil {
		return nil, fmt.Errorf("count houses: %w", err)
	}
	defer rows.Close()

	counts := make(map[house.House]int, 4)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("count houses: %w", err)
		}
		counts[house.House(label)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count houses: %w", err)
	}
	return counts, nil
}

func scanAttendee(scan func(dest ...any) error) (attendee.Attendee, error) {
	var att attendee.Attendee
	var gender string
	var houseLabel string
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&att.ID,
		&att.Name,
		&att.Age,
		&att.Class,
		&gender,
		&houseLabel,
		&att.PhotoURL,
		&att.GuardianPhone,
		&att.RegisteredBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return attendee.Attendee{}, err
	}
	att.Gender = attendee.Gender(gender)
	att.House = house.House(houseLabel)
	att.CreatedAt = fromMillis(createdAt)
	att.UpdatedAt = fromMillis(updatedAt)
	return att, nil
}
