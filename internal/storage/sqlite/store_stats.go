package sqlite

import (
	"context"
	"fmt"

	"github.com/sundayfest/housegate/internal/attendee"
	"github.com/sundayfest/housegate/internal/house"
	"github.com/sundayfest/housegate/internal/storage"
	"github.com/sundayfest/housegate/internal/ticket"
)

// HouseGenderCounts aggregates attendee totals per house with gender splits.
// Every house appears in the result even when empty.
func (s *Store) HouseGenderCounts(ctx context.Context) ([]storage.HouseBreakdown, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT house,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE gender = ?),
		        COUNT(*) FILTER (WHERE gender = ?)
		   FROM attendees
		  GROUP BY house`,
		string(attendee.Male),
		string(attendee.Female),
	)
	if err != nil {
		return nil, fmt.Errorf("count house genders: %w", err)
	}
	defer rows.Close()

	byHouse := make(map[house.House]storage.HouseBreakdown, 4)
	for rows.Next() {
		var label string
		var breakdown storage.HouseBreakdown
		if err := rows.Scan(&label, &breakdown.Total, &breakdown.Male, &breakdown.Female); err != nil {
			return nil, fmt.Errorf("count house genders: %w", err)
		}
		breakdown.House = house.House(label)
		byHouse[breakdown.House] = breakdown
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count house genders: %w", err)
	}

	result := make([]storage.HouseBreakdown, 0, 4)
	for _, h := range house.All() {
		breakdown, ok := byHouse[h]
		if !ok {
			breakdown = storage.HouseBreakdown{House: h}
		}
		result = append(result, breakdown)
	}
	return result, nil
}

// TicketStatusCounts returns the number of tickets per lifecycle status.
func (s *Store) TicketStatusCounts(ctx context.Context) (map[ticket.Status]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, "SELECT status, COUNT(*) FROM tickets GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count ticket statuses: %w", err)
	}
	defer rows.Close()

	counts := make(map[ticket.Status]int, 3)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("count ticket statuses: %w", err)
		}
		counts[ticket.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count ticket statuses: %w", err)
	}
	return counts, nil
}

// AttendeeAges returns the age of every registered attendee. Bucketing into
// age groups is a pure computation owned by the stats package.
func (s *Store) AttendeeAges(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, "SELECT age FROM attendees")
	if err != nil {
		return nil, fmt.Errorf("list attendee ages: %w", err)
	}
	defer rows.Close()

	var ages []int
	for rows.Next() {
		var age int
		if err := rows.Scan(&age); err != nil {
			return nil, fmt.Errorf("list attendee ages: %w", err)
		}
		ages = append(ages, age)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendee ages: %w", err)
	}
	return ages, nil
}

// RedemptionsByHour buckets redeemed tickets by the UTC hour of redeemed_at.
func (s *Store) RedemptionsByHour(ctx context.Context) ([]storage.HourBucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT CAST(strftime('%H', redeemed_at / 1000, 'unixepoch') AS INTEGER) AS hour,
		        COUNT(*)
		   FROM tickets
		  WHERE redeemed_at IS NOT NULL
		  GROUP BY hour
		  ORDER BY hour`,
	)
	if err != nil {
		return nil, fmt.Errorf("count redemptions by hour: %w", err)
	}
	defer rows.Close()

	var buckets []storage.HourBucket
	for rows.Next() {
		var bucket storage.HourBucket
		if err := rows.Scan(&bucket.Hour, &bucket.Count); err != nil {
			return nil, fmt.Errorf("count redemptions by hour: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count redemptions by hour: %w", err)
	}
	return buckets, nil
}
