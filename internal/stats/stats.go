// Package stats aggregates registration and redemption figures for the
// event dashboard.
package stats

import (
	"context"

	"github.com/sundayfest/housegate/internal/errors"
	"github.com/sundayfest/housegate/internal/storage"
	"github.com/sundayfest/housegate/internal/ticket"
)

// AgeGroup is a dashboard age bracket.
type AgeGroup string

const (
	Preschool     AgeGroup = "Preschool"
	Primary       AgeGroup = "Primary"
	JuniorSec     AgeGroup = "JSS"
	SeniorSec     AgeGroup = "SSS"
	Undergraduate AgeGroup = "Undergraduate"
)

// AgeGroups returns the brackets youngest first.
func AgeGroups() []AgeGroup {
	return []AgeGroup{Preschool, Primary, JuniorSec, SeniorSec, Undergraduate}
}

// GroupForAge buckets an age into its dashboard bracket.
func GroupForAge(age int) AgeGroup {
	switch {
	case age <= 5:
		return Preschool
	case age <= 11:
		return Primary
	case age <= 14:
		return JuniorSec
	case age <= 17:
		return SeniorSec
	default:
		return Undergraduate
	}
}

// AgeGroupCount is one histogram bar.
type AgeGroupCount struct {
	Group AgeGroup
	Count int
}

// Overview is the dashboard snapshot.
type Overview struct {
	TotalAttendees    int
	Houses            []storage.HouseBreakdown
	TicketsIssued     int
	TicketsRedeemed   int
	TicketsVoid       int
	RedemptionRate    float64
	AgeGroups         []AgeGroupCount
	RedemptionsByHour []storage.HourBucket
}

// Service computes read-only statistics from the record store.
type Service struct {
	store storage.StatsStore
}

// NewService creates a statistics service.
func NewService(store storage.StatsStore) *Service {
	return &Service{store: store}
}

// Overview assembles the dashboard snapshot. The figures come from separate
// queries and may straddle concurrent writes; the dashboard is advisory, not
// a ledger.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if s == nil || s.store == nil {
		return Overview{}, errors.New(errors.CodeUnknown, "statistics service is not configured")
	}

	houses, err := s.store.HouseGenderCounts(ctx)
	if err != nil {
		return Overview{}, errors.Wrap(errors.CodePersistence, "aggregate house counts", err)
	}
	statuses, err := s.store.TicketStatusCounts(ctx)
	if err != nil {
		return Overview{}, errors.Wrap(errors.CodePersistence, "aggregate ticket statuses", err)
	}
	ages, err := s.store.AttendeeAges(ctx)
	if err != nil {
		return Overview{}, errors.Wrap(errors.CodePersistence, "aggregate attendee ages", err)
	}
	hours, err := s.store.RedemptionsByHour(ctx)
	if err != nil {
		return Overview{}, errors.Wrap(errors.CodePersistence, "aggregate redemption hours", err)
	}

	overview := Overview{
		Houses:            houses,
		TicketsRedeemed:   statuses[ticket.StatusRedeemed],
		TicketsVoid:       statuses[ticket.StatusVoid],
		AgeGroups:         bucketAges(ages),
		RedemptionsByHour: hours,
	}
	for _, count := range statuses {
		overview.TicketsIssued += count
	}
	for _, breakdown := range houses {
		overview.TotalAttendees += breakdown.Total
	}
	if overview.TicketsIssued > 0 {
		overview.RedemptionRate = float64(overview.TicketsRedeemed) / float64(overview.TicketsIssued)
	}
	return overview, nil
}

func bucketAges(ages []int) []AgeGroupCount {
	counts := make(map[AgeGroup]int, 5)
	for _, age := range ages {
		counts[GroupForAge(age)]++
	}
	histogram := make([]AgeGroupCount, 0, 5)
	for _, group := range AgeGroups() {
		histogram = append(histogram, AgeGroupCount{Group: group, Count: counts[group]})
	}
	return histogram
}
