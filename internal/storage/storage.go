// Package storage defines persistence contracts for registration state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sundayfest/housegate/internal/attendee"
	"github.com/sundayfest/housegate/internal/house"
	"github.com/sundayfest/housegate/internal/ticket"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTicketNumber indicates a ticket number collided with an
	// existing one; callers may recount and retry.
	ErrDuplicateTicketNumber = errors.New("ticket number already taken")
	// ErrDuplicateTicketID indicates the caller-supplied opaque ticket id is
	// already in use.
	ErrDuplicateTicketID = errors.New("ticket id already exists")
	// ErrTicketNotActive indicates a redeem or void lost the status
	// compare-and-swap because the ticket was no longer active.
	ErrTicketNotActive = errors.New("ticket is not active")
)

// Ticket is one issued admission ticket.
type Ticket struct {
	ID           string
	ChildID      string
	TicketNumber string
	Status       ticket.Status
	RedeemedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Registrar is a staff member allowed to register attendees. The core reads
// registrars but never mutates them.
type Registrar struct {
	ID        string
	Name      string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Registration pairs the attendee and ticket created together.
type Registration struct {
	Attendee attendee.Attendee
	Ticket   Ticket
}

// AttendeePatch holds optional attendee updates. Nil fields are left
// untouched; house and the ticket link are not patchable.
type AttendeePatch struct {
	Name          *string
	Age           *int
	Class         *string
	Gender        *attendee.Gender
	GuardianPhone *string
	PhotoURL      *string
}

// SortField selects the ticket listing sort column.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByName      SortField = "name"
	SortByHouse     SortField = "house"
)

// SortDir selects ascending or descending order.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ListTicketsQuery filters and paginates the ticket listing.
type ListTicketsQuery struct {
	Page      int
	PageSize  int
	Search    string      // case-insensitive substring match on attendee name
	SortField SortField   // defaults to created_at
	SortDir   SortDir     // defaults to desc
	House     house.House // zero value lists all houses
}

// TicketRow is one listing row: the attendee, their ticket, and the name of
// the registrar who signed them up (empty for anonymous registrations).
type TicketRow struct {
	Attendee      attendee.Attendee
	Ticket        Ticket
	RegistrarName string
}

// TicketPage is one page of listing rows with the unpaginated total.
type TicketPage struct {
	Rows  []TicketRow
	Total int
}

// HouseBreakdown aggregates one house's membership.
type HouseBreakdown struct {
	House  house.House
	Total  int
	Male   int
	Female int
}

// HourBucket counts redemptions within one UTC hour of day.
type HourBucket struct {
	Hour  int
	Count int
}

// RegistrationStore owns attendee and ticket creation and mutation.
type RegistrationStore interface {
	// CreateRegistration atomically assigns a house, inserts the attendee,
	// derives the next ticket ordinal for that house, and inserts the ticket
	// with the caller-supplied opaque id. The attendee's House field is
	// ignored on input.
	CreateRegistration(ctx context.Context, att attendee.Attendee, ticketID string, now time.Time) (Registration, error)
	UpdateAttendee(ctx context.Context, attendeeID string, patch AttendeePatch, now time.Time) (attendee.Attendee, error)
	GetAttendee(ctx context.Context, attendeeID string) (attendee.Attendee, error)
}

// TicketStore reads tickets and drives the redemption state machine.
type TicketStore interface {
	GetTicketByNumber(ctx context.Context, number string) (Ticket, error)
	// RedeemTicket transitions active -> redeemed, conditioned on the status
	// still being active at write time. When the compare-and-swap loses, the
	// current ticket is returned alongside ErrTicketNotActive.
	RedeemTicket(ctx context.Context, number string, now time.Time) (Ticket, error)
	// VoidTicket transitions active -> void under the same CAS rules.
	VoidTicket(ctx context.Context, number string, now time.Time) (Ticket, error)
	ListTickets(ctx context.Context, query ListTicketsQuery) (TicketPage, error)
}

// RegistrarStore resolves registrar identities supplied by the auth
// collaborator.
type RegistrarStore interface {
	GetRegistrar(ctx context.Context, registrarID string) (Registrar, error)
	PutRegistrar(ctx context.Context, registrar Registrar) error
}

// StatsStore serves the read-side aggregate queries.
type StatsStore interface {
	HouseGenderCounts(ctx context.Context) ([]HouseBreakdown, error)
	TicketStatusCounts(ctx context.Context) (map[ticket.Status]int, error)
	AttendeeAges(ctx context.Context) ([]int, error)
	RedemptionsByHour(ctx context.Context) ([]HourBucket, error)
}
