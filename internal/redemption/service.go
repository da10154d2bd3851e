// Package redemption implements single-use ticket check-in at the gate.
package redemption

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/sundayfest/housegate/internal/attendee"
	"github.com/sundayfest/housegate/internal/errors"
	"github.com/sundayfest/housegate/internal/storage"
	"github.com/sundayfest/housegate/internal/ticket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Reason explains a rejected redemption. Rejections are expected gate
// outcomes, not errors.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNotFound        Reason = "not_found"
	ReasonAlreadyRedeemed Reason = "already_redeemed"
	ReasonVoid            Reason = "void"
)

// Result is the outcome of one scan. On success the attendee is included for
// gate display; on an already-redeemed rejection the ticket retains its
// original redeemed_at so staff can see when entry happened.
type Result struct {
	Success  bool
	Reason   Reason
	Ticket   storage.Ticket
	Attendee attendee.Attendee
}

// Service redeems admission tickets exactly once.
type Service struct {
	tickets   storage.TicketStore
	attendees storage.RegistrationStore
	now       func() time.Time
	tracer    trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a redemption service.
func NewService(tickets storage.TicketStore, attendees storage.RegistrationStore, opts ...Option) *Service {
	svc := &Service{
		tickets:   tickets,
		attendees: attendees,
		now:       time.Now,
		tracer:    otel.Tracer("housegate/redemption"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Redeem marks the ticket redeemed if and only if it is still active. The
// store performs the status transition as a conditional write, so concurrent
// scans of the same number produce exactly one success.
func (s *Service) Redeem(ctx context.Context, number string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "redemption.Redeem")
	defer span.End()

	if s == nil || s.tickets == nil {
		return Result{}, errors.New(errors.CodeUnknown, "redemption service is not configured")
	}
	number = strings.TrimSpace(number)
	if !ticket.ValidNumber(number) {
		return Result{Reason: ReasonNotFound}, nil
	}
	span.SetAttributes(attribute.String("ticket.number", number))

	tick, err := s.tickets.RedeemTicket(ctx, number, s.now().UTC())
	switch {
	case err == nil:
		return s.withAttendee(ctx, Result{Success: true, Ticket: tick})
	case stderrors.Is(err, storage.ErrNotFound):
		return Result{Reason: ReasonNotFound}, nil
	case stderrors.Is(err, storage.ErrTicketNotActive):
		reason := ReasonVoid
		if tick.Status == ticket.StatusRedeemed {
			reason = ReasonAlreadyRedeemed
		}
		return s.withAttendee(ctx, Result{Reason: reason, Ticket: tick})
	default:
		return Result{}, errors.Wrap(errors.CodePersistence, "redeem ticket", err)
	}
}

// Lookup fetches a ticket and its attendee without changing status, for
// manual gate checks.
func (s *Service) Lookup(ctx context.Context, number string) (Result, error) {
	if s == nil || s.tickets == nil {
		return Result{}, errors.New(errors.CodeUnknown, "redemption service is not configured")
	}
	number = strings.TrimSpace(number)
	tick, err := s.tickets.GetTicketByNumber(ctx, number)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return Result{Reason: ReasonNotFound}, nil
		}
		return Result{}, errors.Wrap(errors.CodePersistence, "look up ticket", err)
	}
	result := Result{Success: tick.Status == ticket.StatusActive, Ticket: tick}
	switch tick.Status {
	case ticket.StatusRedeemed:
		result.Reason = ReasonAlreadyRedeemed
	case ticket.StatusVoid:
		result.Reason = ReasonVoid
	}
	return s.withAttendee(ctx, result)
}

// Void permanently invalidates an active ticket, for lost or reissued
// tickets.
func (s *Service) Void(ctx context.Context, number string) (storage.Ticket, error) {
	if s == nil || s.tickets == nil {
		return storage.Ticket{}, errors.New(errors.CodeUnknown, "redemption service is not configured")
	}
	number = strings.TrimSpace(number)
	tick, err := s.tickets.VoidTicket(ctx, number, s.now().UTC())
	switch {
	case err == nil:
		return tick, nil
	case stderrors.Is(err, storage.ErrNotFound):
		return storage.Ticket{}, errors.Wrap(errors.CodeNotFound, "ticket not found", err)
	case stderrors.Is(err, storage.ErrTicketNotActive):
		return tick, errors.Wrap(errors.CodeValidation, "ticket is not active", err)
	default:
		return storage.Ticket{}, errors.Wrap(errors.CodePersistence, "void ticket", err)
	}
}

// withAttendee decorates a result with the ticket holder for display. A
// missing attendee row is tolerated; the scan outcome stands on its own.
func (s *Service) withAttendee(ctx context.Context, result Result) (Result, error) {
	if s.attendees == nil || result.Ticket.ChildID == "" {
		return result, nil
	}
	att, err := s.attendees.GetAttendee(ctx, result.Ticket.ChildID)
	if err == nil {
		result.Attendee = att
	}
	return result, nil
}
