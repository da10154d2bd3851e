// Package attendee defines the registered child record and its value domains.
package attendee

import (
	"strings"
	"time"

	"github.com/sundayfest/housegate/internal/house"
)

// Gender is the attendee gender label.
type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

// ParseGender resolves a gender label case-insensitively.
func ParseGender(value string) (Gender, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(value), string(Male)):
		return Male, true
	case strings.EqualFold(strings.TrimSpace(value), string(Female)):
		return Female, true
	}
	return "", false
}

// Classes returns the fixed set of grade labels, youngest first.
func Classes() []string {
	return []string{
		"Creche",
		"Nursery 1",
		"Nursery 2",
		"Primary 1",
		"Primary 2",
		"Primary 3",
		"Primary 4",
		"Primary 5",
		"Primary 6",
		"JSS 1",
		"JSS 2",
		"JSS 3",
		"SSS 1",
		"SSS 2",
		"SSS 3",
		"Undergraduate",
	}
}

// ValidClass reports whether label is one of the fixed grade labels.
func ValidClass(label string) bool {
	label = strings.TrimSpace(label)
	for _, class := range Classes() {
		if strings.EqualFold(label, class) {
			return true
		}
	}
	return false
}

// NormalizeClass returns the canonical spelling of a grade label.
func NormalizeClass(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, class := range Classes() {
		if strings.EqualFold(label, class) {
			return class, true
		}
	}
	return "", false
}

// Attendee is one registered child.
//
// House is assigned exactly once during registration and never changes;
// PhotoURL and RegisteredBy are optional references owned by external
// collaborators (photo storage and the auth layer).
type Attendee struct {
	ID            string
	Name          string
	Age           int
	Class         string
	Gender        Gender
	House         house.House
	PhotoURL      string
	GuardianPhone string
	RegisteredBy  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
