// Package validation provides pure validation functions for API handlers.
//
// This package contains the functional core logic for validating artist
// requests. All functions are pure (no I/O, no side effects).
//
// # Functions
//
//   - CheckContentType: Match a Content-Type header against the allow-list
//   - ValidateCreateArtist: Required fields, then enum membership, then name
//   - ValidateArtistChanges: Enum membership and name on partial updates
//   - ParseArtistID: Parse the {id} path parameter
//
// # Usage
//
// The API handlers use these functions to validate requests before processing:
//
//	if f := validation.ValidateCreateArtist(req.Name, req.Status, req.Availability); f != nil {
//	    // Return 400 Bad Request with f.Message (and f.Missing when set)
//	}
package validation
