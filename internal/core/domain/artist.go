// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrInvalidStatus       = errors.New("status is not a known value")
	ErrInvalidAvailability = errors.New("availability is not a known value")
	ErrUnnamable           = errors.New("name must contain at least one letter or digit")
)

// =============================================================================
// Status
// =============================================================================

// Status is the activity state of an artist.
type Status string

const (
	StatusActive    Status = "Active"
	StatusInactive  Status = "Inactive"
	StatusHiatus    Status = "Hiatus"
	StatusDisbanded Status = "Disbanded"
)

// Statuses returns every legal Status in declaration order.
func Statuses() []Status {
	return []Status{StatusActive, StatusInactive, StatusHiatus, StatusDisbanded}
}

// IsValid checks if the status is one of the declared values.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusHiatus, StatusDisbanded:
		return true
	default:
		return false
	}
}

// ParseStatus matches a raw value against the declared names.
// Matching is exact: "active" is not "Active".
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// =============================================================================
// Availability
// =============================================================================

// Availability describes how much of an artist's catalog can be obtained.
type Availability string

const (
	AvailabilityAvailable   Availability = "Available"
	AvailabilityPartial     Availability = "Partial"
	AvailabilityUnavailable Availability = "Unavailable"
	AvailabilityUnknown     Availability = "Unknown"
)

// Availabilities returns every legal Availability in declaration order.
func Availabilities() []Availability {
	return []Availability{AvailabilityAvailable, AvailabilityPartial, AvailabilityUnavailable, AvailabilityUnknown}
}

// IsValid checks if the availability is one of the declared values.
func (a Availability) IsValid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityPartial, AvailabilityUnavailable, AvailabilityUnknown:
		return true
	default:
		return false
	}
}

// ParseAvailability matches a raw value against the declared names.
func ParseAvailability(raw string) (Availability, error) {
	a := Availability(raw)
	if !a.IsValid() {
		return "", ErrInvalidAvailability
	}
	return a, nil
}

// =============================================================================
// Artist
// =============================================================================

// Artist is a catalog entry for a performer or group.
type Artist struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	SafeName     string       `json:"safeName"`
	Aliases      []string     `json:"aliases"`
	Description  string       `json:"description"`
	Status       Status       `json:"status"`
	Availability Availability `json:"availability"`
	Tracks       []string     `json:"tracks"`
	Genre        string       `json:"genre"`
	Notes        string       `json:"notes"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ArtistFields holds the client-settable fields of a new artist.
type ArtistFields struct {
	Name         string
	Aliases      []string
	Description  string
	Status       Status
	Availability Availability
	Tracks       []string
	Genre        string
	Notes        string
}

// NewArtist builds an artist ready for insertion. The ID is left zero;
// the store assigns it.
func NewArtist(f ArtistFields, now time.Time) *Artist {
	return &Artist{
		Name:         f.Name,
		SafeName:     SafeName(f.Name),
		Aliases:      nonNil(f.Aliases),
		Description:  f.Description,
		Status:       f.Status,
		Availability: f.Availability,
		Tracks:       nonNil(f.Tracks),
		Genre:        f.Genre,
		Notes:        f.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// =============================================================================
// Artist Changes
// =============================================================================

// ArtistChanges is a partial update. A nil slot means "leave unchanged".
// Only the mutable fields have a slot; SafeName is derived, never set by
// a client.
type ArtistChanges struct {
	Name         *string
	Aliases      *[]string
	Description  *string
	Status       *Status
	Availability *Availability
	Tracks       *[]string
	Genre        *string
	Notes        *string

	SafeName *string
}

// IsEmpty reports whether no field would change.
func (c ArtistChanges) IsEmpty() bool {
	return c.Name == nil && c.Aliases == nil && c.Description == nil &&
		c.Status == nil && c.Availability == nil && c.Tracks == nil &&
		c.Genre == nil && c.Notes == nil && c.SafeName == nil
}

// Derive returns a copy of c with the derived fields filled in against the
// current record. SafeName is recomputed only when the name actually
// changes.
func (c ArtistChanges) Derive(current *Artist) ArtistChanges {
	c.SafeName = nil
	if c.Name != nil && *c.Name != current.Name {
		safe := SafeName(*c.Name)
		c.SafeName = &safe
	}
	return c
}

// Apply returns a copy of a with every set slot of c written over it.
func (c ArtistChanges) Apply(a Artist) Artist {
	if c.Name != nil {
		a.Name = *c.Name
	}
	if c.SafeName != nil {
		a.SafeName = *c.SafeName
	}
	if c.Aliases != nil {
		a.Aliases = nonNil(*c.Aliases)
	}
	if c.Description != nil {
		a.Description = *c.Description
	}
	if c.Status != nil {
		a.Status = *c.Status
	}
	if c.Availability != nil {
		a.Availability = *c.Availability
	}
	if c.Tracks != nil {
		a.Tracks = nonNil(*c.Tracks)
	}
	if c.Genre != nil {
		a.Genre = *c.Genre
	}
	if c.Notes != nil {
		a.Notes = *c.Notes
	}
	return a
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
