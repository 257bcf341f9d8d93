package api

import "github.com/artpar/catalog/internal/core/domain"

// =============================================================================
// Request Types
// =============================================================================

// createArtistRequest is the bound body of a create request. Keys outside
// these tags are ignored.
type createArtistRequest struct {
	Name         string   `mapstructure:"name"`
	Aliases      []string `mapstructure:"aliases"`
	Description  string   `mapstructure:"description"`
	Status       string   `mapstructure:"status"`
	Availability string   `mapstructure:"availability"`
	Tracks       []string `mapstructure:"tracks"`
	Genre        string   `mapstructure:"genre"`
	Notes        string   `mapstructure:"notes"`
}

func (r createArtistRequest) fields() domain.ArtistFields {
	return domain.ArtistFields{
		Name:         r.Name,
		Aliases:      r.Aliases,
		Description:  r.Description,
		Status:       domain.Status(r.Status),
		Availability: domain.Availability(r.Availability),
		Tracks:       r.Tracks,
		Genre:        r.Genre,
		Notes:        r.Notes,
	}
}

// =============================================================================
// Response Types
// =============================================================================

// MessageResponse is the envelope for errors and for create results.
type MessageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// MissingFieldsData lists absent required fields.
type MissingFieldsData struct {
	Missing []string `json:"missing"`
}

// AllowedValuesData lists the legal values of an enum field.
type AllowedValuesData struct {
	Values []string `json:"values"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
