// Package ticket defines ticket state, numbering, and the scan payload.
package ticket

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/sundayfest/housegate/internal/house"
)

// Status is the ticket lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusRedeemed Status = "redeemed"
	StatusVoid     Status = "void"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusRedeemed, StatusVoid:
		return true
	}
	return false
}

// CanTransition reports whether from may move to to.
//
// Redemption and voiding both require an active ticket; redeemed and void
// are terminal.
func CanTransition(from, to Status) bool {
	if from != StatusActive {
		return false
	}
	return to == StatusRedeemed || to == StatusVoid
}

// Number renders the human-facing ticket number for an ordinal within a
// house, e.g. Joy ordinal 7 -> "J-0007". The ordinal is the count of
// attendees in the house including the one being issued.
func Number(h house.House, ordinal int) string {
	return fmt.Sprintf("%s-%04d", h.Initial(), ordinal)
}

var numberPattern = regexp.MustCompile(`^[LJHP]-[0-9]{4,}$`)

// ValidNumber reports whether value looks like a ticket number. It guards
// scanner input before a storage lookup; the store stays the source of truth.
func ValidNumber(value string) bool {
	return numberPattern.MatchString(value)
}

// ScanPayload is the JSON document a scanner encodes into the printed QR
// artifact. Rendering the artifact itself is owned by the presentation layer.
type ScanPayload struct {
	Ticket    string      `json:"ticket"`
	Name      string      `json:"name"`
	House     house.House `json:"house"`
	Timestamp int64       `json:"timestamp"`
}

// EncodeScanPayload serializes the scan payload for a ticket.
func EncodeScanPayload(number, name string, h house.House, issuedAt time.Time) (string, error) {
	raw, err := json.Marshal(ScanPayload{
		Ticket:    number,
		Name:      name,
		House:     h,
		Timestamp: issuedAt.UTC().UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("encode scan payload: %w", err)
	}
	return string(raw), nil
}
