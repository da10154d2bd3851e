package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sundayfest/housegate/internal/house"
	"github.com/sundayfest/housegate/internal/storage"
	"github.com/sundayfest/housegate/internal/ticket"
)

func TestGetTicketByNumberNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.GetTicketByNumber(context.Background(), "Z-9999")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get unknown ticket error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestRedeemTicketTransitionsOnce(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	issued := time.Date(2026, time.August, 1, 8, 0, 0, 0, time.UTC)
	reg := registerOne(t, store, "Ada Obi", issued)

	redeemedAt := issued.Add(2 * time.Hour)
	got, err := store.RedeemTicket(context.Background(), reg.Ticket.TicketNumber, redeemedAt)
	if err != nil {
		t.Fatalf("redeem ticket: %v", err)
	}
	if got.Status != ticket.StatusRedeemed {
		t.Fatalf("status = %q, want redeemed", got.Status)
	}
	if got.RedeemedAt == nil || !got.RedeemedAt.Equal(redeemedAt) {
		t.Fatalf("redeemed_at = %v, want %v", got.RedeemedAt, redeemedAt)
	}

	// The rejection must be idempotent: no second write, original timestamp kept.
	again, err := store.RedeemTicket(context.Background(), reg.Ticket.TicketNumber, redeemedAt.Add(time.Hour))
	if !errors.Is(err, storage.ErrTicketNotActive) {
		t.Fatalf("second redeem error = %v, want %v", err, storage.ErrTicketNotActive)
	}
	if again.RedeemedAt == nil || !again.RedeemedAt.Equal(redeemedAt) {
		t.Fatalf("second redeem moved redeemed_at to %v", again.RedeemedAt)
	}
}

func TestRedeemTicketExactlyOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	issued := time.Date(2026, time.August, 1, 8, 0, 0, 0, time.UTC)
	reg := registerOne(t, store, "Contested Child", issued)

	const scanners = 50
	var wg sync.WaitGroup
	results := make(chan error, scanners)
	start := make(chan struct{})
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := store.RedeemTicket(context.Background(), reg.Ticket.TicketNumber, time.Now().UTC())
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	wins, losses := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, storage.ErrTicketNotActive):
			losses++
		default:
			t.Fatalf("unexpected redeem error: %v", err)
		}
	}
	if wins != 1 || losses != scanners-1 {
		t.Fatalf("wins = %d, losses = %d; want exactly 1 winner of %d", wins, losses, scanners)
	}
}

func TestVoidTicketIsTerminal(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	issued := time.Date(2026, time.August, 1, 8, 0, 0, 0, time.UTC)
	reg := registerOne(t, store, "Voided Child", issued)

	got, err := store.VoidTicket(context.Background(), reg.Ticket.TicketNumber, issued.Add(time.Hour))
	if err != nil {
		t.Fatalf("void ticket: %v", err)
	}
	if got.Status != ticket.StatusVoid {
		t.Fatalf("status = %q, want void", got.Status)
	}
	if got.RedeemedAt != nil {
		t.Fatalf("void ticket has redeemed_at %v", got.RedeemedAt)
	}

	if _, err := store.RedeemTicket(context.Background(), reg.Ticket.TicketNumber, issued.Add(2*time.Hour)); !errors.Is(err, storage.ErrTicketNotActive) {
		t.Fatalf("redeem of void ticket error = %v, want %v", err, storage.ErrTicketNotActive)
	}
}

func TestVoidTicketRejectsRedeemed(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	issued := time.Date(2026, time.August, 1, 8, 0, 0, 0, time.UTC)
	reg := registerOne(t, store, "Redeemed Child", issued)

	if _, err := store.RedeemTicket(context.Background(), reg.Ticket.TicketNumber, issued.Add(time.Hour)); err != nil {
		t.Fatalf("redeem ticket: %v", err)
	}
	if _, err := store.VoidTicket(context.Background(), reg.Ticket.TicketNumber, issued.Add(2*time.Hour)); !errors.Is(err, storage.ErrTicketNotActive) {
		t.Fatalf("void of redeemed ticket error = %v, want %v", err, storage.ErrTicketNotActive)
	}
}

func TestListTicketsFiltersAndPaginates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)
	names := []string{"Ada Obi", "Chisom Ada", "Bola Ade", "Ngozi Eke", "Sade Alao", "Emeka Udo", "ADAEZE Nwosu", "Tunde Ojo"}
	for i, name := range names {
		registerOne(t, store, name, base.Add(time.Duration(i)*time.Minute))
	}

	all, err := store.ListTickets(context.Background(), storage.ListTicketsQuery{Page: 1, PageSize: 100})
	if err != nil {
		t.Fatalf("list all tickets: %v", err)
	}
	if all.Total != len(names) || len(all.Rows) != len(names) {
		t.Fatalf("total = %d, rows = %d; want %d", all.Total, len(all.Rows), len(names))
	}

	// Case-insensitive substring search on name.
	hits, err := store.ListTickets(context.Background(), storage.ListTicketsQuery{Page: 1, PageSize: 100, Search: "ada"})
	if err != nil {
		t.Fatalf("search tickets: %v", err)
	}
	if hits.Total != 3 {
		t.Fatalf("search total = %d, want 3 (Ada Obi, Chisom Ada, ADAEZE Nwosu)", hits.Total)
	}

	// House filter returns only that house.
	loves, err := store.ListTickets(context.Background(), storage.ListTicketsQuery{Page: 1, PageSize: 100, House: house.Love})
	if err != nil {
		t.Fatalf("filter tickets by house: %v", err)
	}
	for _, row := range loves.Rows {
		if row.Attendee.House != house.Love {
			t.Fatalf("house filter leaked %s attendee %s", row.Attendee.House, row.Attendee.Name)
		}
	}
	if loves.Total == 0 {
		t.Fatal("expected at least one Love attendee")
	}

	// Combined search + house filter, per the gate-keeper lookup flow.
	both, err := store.ListTickets(context.Background(), storage.ListTicketsQuery{Page: 1, PageSize: 100, Search: "ada", House: house.Love})
	if err != nil {
		t.Fatalf("combined filter: %v", err)
	}
	for _, row := range both.Rows {
		if row.Attendee.House != house.Love {
			t.Fatalf("combined filter leaked house %s", row.Attendee.House)
		}
	}
	if both.Total > hits.Total {
		t.Fatalf("combined total %d exceeds search total %d", both.Total, hits.Total)
	}

	// Offset pagination with a stable sort.
	pageOne, err := store.ListTickets(context.Background(), storage.ListTicketsQuery{
		Page: 1, PageSize: 3, SortField: storage.SortByName, SortDir: storage.SortAsc,
	})
	if err != nil {
		t.Fatalf("list page one: %v", err)
	}
	pageTwo, err := store.ListTickets(context.Background(), storage.ListTicketsQuery{
		Page: 2, PageSize: 3, SortField: storage.SortByName, SortDir: storage.SortAsc,
	})
	if err != nil {
		t.Fatalf("list page two: %v", err)
	}
	if len(pageOne.Rows) != 3 || len(pageTwo.Rows) != 3 {
		t.Fatalf("page sizes = %d, %d; want 3, 3", len(pageOne.Rows), len(pageTwo.Rows))
	}
	if pageOne.Rows[0].Attendee.Name != "Ada Obi" {
		t.Fatalf("first sorted row = %q, want Ada Obi", pageOne.Rows[0].Attendee.Name)
	}
	seen := map[string]bool{}
	for _, row := range append(append([]storage.TicketRow{}, pageOne.Rows...), pageTwo.Rows...) {
		if seen[row.Attendee.ID] {
			t.Fatalf("attendee %s appears on both pages", row.Attendee.Name)
		}
		seen[row.Attendee.ID] = true
	}
}

func TestListTicketsExcludesTicketlessAttendees(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)
	registerOne(t, store, "Complete Child", now)

	// An abandoned registration: attendee row without a ticket.
	orphan := draftAttendee("Orphan Child")
	if _, err := store.sqlDB.Exec(
		`INSERT INTO attendees (id, name, age, class, gender, house, photo_url, guardian_phone, registered_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, '', '', NULL, ?, ?)`,
		orphan.ID, orphan.Name, orphan.Age, orphan.Class, string(orphan.Gender), string(house.Hope),
		toMillis(now), toMillis(now),
	); err != nil {
		t.Fatalf("insert orphan attendee: %v", err)
	}

	page, err := store.ListTickets(context.Background(), storage.ListTicketsQuery{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1 (orphan excluded)", page.Total)
	}
	for _, row := range page.Rows {
		if row.Attendee.ID == orphan.ID {
			t.Fatal("orphan attendee leaked into ticket listing")
		}
	}
}

func TestListTicketsIncludesRegistrarName(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)
	reg := storage.Registrar{
		ID: "reg-1", Name: "Grace Udo", Email: "grace@example.org", IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.PutRegistrar(context.Background(), reg); err != nil {
		t.Fatalf("put registrar: %v", err)
	}

	att := draftAttendee("Signed Child")
	att.RegisteredBy = reg.ID
	if _, err := store.CreateRegistration(context.Background(), att, fmt.Sprintf("tick-%d", now.UnixNano()), now); err != nil {
		t.Fatalf("create registration: %v", err)
	}

	page, err := store.ListTickets(context.Background(), storage.ListTicketsQuery{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(page.Rows) != 1 || page.Rows[0].RegistrarName != "Grace Udo" {
		t.Fatalf("registrar name = %q, want Grace Udo", page.Rows[0].RegistrarName)
	}
}

func TestListTicketsRejectsUnknownSortField(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.ListTickets(context.Background(), storage.ListTicketsQuery{
		Page: 1, PageSize: 10, SortField: "age",
	}); err == nil {
		t.Fatal("expected unknown sort field error")
	}
}
