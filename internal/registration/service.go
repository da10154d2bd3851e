// Package registration implements attendee sign-up and record maintenance.
package registration

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sundayfest/housegate/internal/attendee"
	"github.com/sundayfest/housegate/internal/errors"
	"github.com/sundayfest/housegate/internal/platform/id"
	"github.com/sundayfest/housegate/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ticketNumberAttempts bounds retries when a derived ticket number collides
// with a concurrent registration.
const ticketNumberAttempts = 3

const (
	defaultMinAge = 1
	defaultMaxAge = 25
)

// PhotoStore uploads attendee photos and returns a serving URL. Implementations
// must treat uploads as best effort; registration proceeds without a photo
// when the upload fails.
type PhotoStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Config tunes registration policy.
type Config struct {
	// RequireRegistrar rejects registrations that do not carry a known,
	// active registrar identity.
	RequireRegistrar bool
	// MinAge and MaxAge bound accepted attendee ages, inclusive. Zero values
	// fall back to the defaults.
	MinAge int
	MaxAge int
}

// Service orchestrates attendee registration on top of the record store.
type Service struct {
	store      storage.RegistrationStore
	registrars storage.RegistrarStore
	photos     PhotoStore
	cfg        Config
	now        func() time.Time
	tracer     trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithPhotoStore attaches a photo upload collaborator.
func WithPhotoStore(photos PhotoStore) Option {
	return func(s *Service) { s.photos = photos }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a registration service.
func NewService(store storage.RegistrationStore, registrars storage.RegistrarStore, cfg Config, opts ...Option) *Service {
	if cfg.MinAge == 0 {
		cfg.MinAge = defaultMinAge
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = defaultMaxAge
	}
	svc := &Service{
		store:      store,
		registrars: registrars,
		cfg:        cfg,
		now:        time.Now,
		tracer:     otel.Tracer("housegate/registration"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Draft is the caller-supplied registration input. House assignment and
// ticket numbering are never caller-controlled.
type Draft struct {
	Name          string
	Age           int
	Class         string
	Gender        string
	GuardianPhone string
	RegistrarID   string
	// TicketID is the opaque ticket identifier, minted when absent. Supplying
	// one lets callers retry a submission without issuing a second ticket.
	TicketID string
	// Photo is optional image content uploaded after the record is created.
	Photo []byte
}

// Register validates the draft, assigns a house, and issues the admission
// ticket. The attendee and ticket are created in one transaction.
func (s *Service) Register(ctx context.Context, draft Draft) (storage.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Register")
	defer span.End()

	if s == nil || s.store == nil {
		return storage.Registration{}, errors.New(errors.CodeUnknown, "registration service is not configured")
	}

	draft.Name = strings.TrimSpace(draft.Name)
	draft.GuardianPhone = strings.TrimSpace(draft.GuardianPhone)
	draft.RegistrarID = strings.TrimSpace(draft.RegistrarID)
	draft.TicketID = strings.TrimSpace(draft.TicketID)

	fields := make(map[string]string)
	if draft.Name == "" {
		fields["name"] = "name is required"
	}
	if draft.Age < s.cfg.MinAge || draft.Age > s.cfg.MaxAge {
		fields["age"] = fmt.Sprintf("age must be between %d and %d", s.cfg.MinAge, s.cfg.MaxAge)
	}
	class, ok := attendee.NormalizeClass(draft.Class)
	if !ok {
		fields["class"] = "class is not a recognized grade"
	}
	gender, ok := attendee.ParseGender(draft.Gender)
	if !ok {
		fields["gender"] = "gender must be Male or Female"
	}
	if draft.TicketID != "" && !id.Valid(draft.TicketID) {
		fields["ticket_id"] = "ticket id is malformed"
	}
	if len(fields) > 0 {
		return storage.Registration{}, errors.WithMetadata(errors.CodeValidation, "registration draft is invalid", fields)
	}

	if err := s.checkRegistrar(ctx, draft.RegistrarID); err != nil {
		return storage.Registration{}, err
	}

	ticketID := draft.TicketID
	generatedTicketID := ticketID == ""
	if generatedTicketID {
		ticketID = id.New()
	}

	att := attendee.Attendee{
		ID:            id.New(),
		Name:          draft.Name,
		Age:           draft.Age,
		Class:         class,
		Gender:        gender,
		GuardianPhone: draft.GuardianPhone,
		RegisteredBy:  draft.RegistrarID,
	}
	span.SetAttributes(attribute.String("attendee.id", att.ID))

	var reg storage.Registration
	var err error
	for attempt := 0; attempt < ticketNumberAttempts; attempt++ {
		reg, err = s.store.CreateRegistration(ctx, att, ticketID, s.now().UTC())
		if err == nil {
			break
		}
		if stderrors.Is(err, storage.ErrDuplicateTicketID) {
			if !generatedTicketID {
				return storage.Registration{}, errors.WithMetadata(errors.CodeValidation, "ticket id already exists", map[string]string{"ticket_id": draft.TicketID})
			}
			ticketID = id.New()
			continue
		}
		if stderrors.Is(err, storage.ErrDuplicateTicketNumber) {
			continue
		}
		return storage.Registration{}, errors.Wrap(errors.CodePersistence, "create registration", err)
	}
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicateTicketNumber) {
			return storage.Registration{}, errors.WithMetadata(
				errors.CodeTicketNumberExhausted,
				"could not issue a unique ticket number",
				map[string]string{"attendee_id": att.ID},
			)
		}
		return storage.Registration{}, errors.Wrap(errors.CodePersistence, "create registration", err)
	}

	if len(draft.Photo) > 0 && s.photos != nil {
		reg.Attendee = s.attachPhoto(ctx, reg.Attendee, draft.Photo)
	}
	return reg, nil
}

// Patch holds optional attendee updates. Nil fields are left untouched.
type Patch struct {
	Name          *string
	Age           *int
	Class         *string
	Gender        *string
	GuardianPhone *string
}

// Update patches an existing attendee record. House and ticket linkage are
// fixed at registration and cannot be patched.
func (s *Service) Update(ctx context.Context, attendeeID string, patch Patch) (attendee.Attendee, error) {
	if s == nil || s.store == nil {
		return attendee.Attendee{}, errors.New(errors.CodeUnknown, "registration service is not configured")
	}
	attendeeID = strings.TrimSpace(attendeeID)
	if attendeeID == "" {
		return attendee.Attendee{}, errors.WithMetadata(errors.CodeValidation, "attendee id is required", map[string]string{"id": "attendee id is required"})
	}

	fields := make(map[string]string)
	stored := storage.AttendeePatch{
		Age:           patch.Age,
		GuardianPhone: patch.GuardianPhone,
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			fields["name"] = "name is required"
		}
		stored.Name = &name
	}
	if patch.Age != nil && (*patch.Age < s.cfg.MinAge || *patch.Age > s.cfg.MaxAge) {
		fields["age"] = fmt.Sprintf("age must be between %d and %d", s.cfg.MinAge, s.cfg.MaxAge)
	}
	if patch.Class != nil {
		class, ok := attendee.NormalizeClass(*patch.Class)
		if !ok {
			fields["class"] = "class is not a recognized grade"
		}
		stored.Class = &class
	}
	if patch.Gender != nil {
		gender, ok := attendee.ParseGender(*patch.Gender)
		if !ok {
			fields["gender"] = "gender must be Male or Female"
		}
		stored.Gender = &gender
	}
	if len(fields) > 0 {
		return attendee.Attendee{}, errors.WithMetadata(errors.CodeValidation, "attendee patch is invalid", fields)
	}

	updated, err := s.store.UpdateAttendee(ctx, attendeeID, stored, s.now().UTC())
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return attendee.Attendee{}, errors.Wrap(errors.CodeNotFound, "attendee not found", err)
		}
		return attendee.Attendee{}, errors.Wrap(errors.CodePersistence, "update attendee", err)
	}
	return updated, nil
}

// checkRegistrar enforces the registrar policy for a draft.
func (s *Service) checkRegistrar(ctx context.Context, registrarID string) error {
	if registrarID == "" {
		if s.cfg.RequireRegistrar {
			return errors.New(errors.CodeUnauthorized, "registrar identity is required")
		}
		return nil
	}
	if s.registrars == nil {
		return errors.New(errors.CodeUnauthorized, "registrar lookup is not configured")
	}
	reg, err := s.registrars.GetRegistrar(ctx, registrarID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.New(errors.CodeUnauthorized, "registrar is not recognized")
		}
		return errors.Wrap(errors.CodePersistence, "look up registrar", err)
	}
	if !reg.IsActive {
		return errors.New(errors.CodeUnauthorized, "registrar is inactive")
	}
	return nil
}

// attachPhoto uploads the photo and links it to the attendee. Failures leave
// the record without a photo; registration already succeeded.
func (s *Service) attachPhoto(ctx context.Context, att attendee.Attendee, photo []byte) attendee.Attendee {
	url, err := s.photos.Put(ctx, att.ID, photo)
	if err != nil {
		log.Printf("photo upload for attendee %s: %v", att.ID, err)
		return att
	}
	updated, err := s.store.UpdateAttendee(ctx, att.ID, storage.AttendeePatch{PhotoURL: &url}, s.now().UTC())
	if err != nil {
		log.Printf("link photo for attendee %s: %v", att.ID, err)
		return att
	}
	return updated
}
