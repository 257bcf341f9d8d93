package validation

import (
	"errors"
	"mime"
	"reflect"
	"strconv"
	"strings"

	"github.com/artpar/catalog/internal/core/domain"
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Failure
// =============================================================================

// Failure describes why a request was rejected. Every Failure is a client
// error; the caller maps it to 400 Bad Request.
type Failure struct {
	Message string
	// Missing lists absent required fields, in declaration order.
	Missing []string
	// Values lists the legal values when an enum check failed.
	Values []string
}

func (f *Failure) Error() string {
	return f.Message
}

const (
	MessageMissingFields       = "A few fields were missing from this request."
	MessageMissingContentType  = "Missing content-type header parameter."
	MessageInvalidID           = "Artist id must be a positive integer."
	MessageUnnamable           = "Name must contain at least one letter or digit."
	messageInvalidStatus       = "Status is invalid. List of possible values: "
	messageInvalidAvailability = "Availability is invalid. List of possible values: "
)

// =============================================================================
// Content Type
// =============================================================================

// AllowedContentTypes are the request body encodings the artist endpoints accept.
var AllowedContentTypes = []string{
	"application/x-www-form-urlencoded",
	"application/json",
	"multipart/form-data",
}

// CheckContentType parses a Content-Type header value and reports whether its
// media type is in AllowedContentTypes. Parameters such as charset and
// boundary are ignored.
func CheckContentType(header string) (mediaType string, ok bool) {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", false
	}
	for _, allowed := range AllowedContentTypes {
		if mediaType == allowed {
			return mediaType, true
		}
	}
	return mediaType, false
}

// =============================================================================
// Create Validation
// =============================================================================

// requiredArtistFields mirrors the fields a create request cannot omit.
type requiredArtistFields struct {
	Name         string `json:"name" validate:"required"`
	Status       string `json:"status" validate:"required"`
	Availability string `json:"availability" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateCreateArtist validates the fields of a create request.
// Checks run in order and stop at the first failing stage:
//  1. name, status and availability must all be present (all missing ones are reported)
//  2. status must be a declared Status
//  3. availability must be a declared Availability
//  4. name must normalize to a non-empty safe name
//
// Returns nil if the request is valid.
func ValidateCreateArtist(name, status, availability string) *Failure {
	if missing := missingFields(requiredArtistFields{
		Name:         name,
		Status:       status,
		Availability: availability,
	}); len(missing) > 0 {
		return &Failure{Message: MessageMissingFields, Missing: missing}
	}
	if f := checkStatus(status); f != nil {
		return f
	}
	if f := checkAvailability(availability); f != nil {
		return f
	}
	return checkName(name)
}

func missingFields(fields requiredArtistFields) []string {
	err := validate.Struct(fields)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	return missing
}

// =============================================================================
// Update Validation
// =============================================================================

// ValidateArtistChanges validates a partial update. Only fields present in
// the change set are checked; nothing is required.
// Returns nil if the changes are valid.
func ValidateArtistChanges(c domain.ArtistChanges) *Failure {
	if c.Name != nil {
		if f := checkName(*c.Name); f != nil {
			return f
		}
	}
	if c.Status != nil {
		if f := checkStatus(string(*c.Status)); f != nil {
			return f
		}
	}
	if c.Availability != nil {
		if f := checkAvailability(string(*c.Availability)); f != nil {
			return f
		}
	}
	return nil
}

// =============================================================================
// Path Parameters
// =============================================================================

// ParseArtistID parses the {id} path parameter. Only positive base-10
// integers are accepted.
func ParseArtistID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// =============================================================================
// Field Checks
// =============================================================================

func checkStatus(raw string) *Failure {
	if _, err := domain.ParseStatus(raw); err == nil {
		return nil
	}
	values := make([]string, 0, len(domain.Statuses()))
	for _, s := range domain.Statuses() {
		values = append(values, string(s))
	}
	return &Failure{Message: messageInvalidStatus + strings.Join(values, ", "), Values: values}
}

func checkAvailability(raw string) *Failure {
	if _, err := domain.ParseAvailability(raw); err == nil {
		return nil
	}
	values := make([]string, 0, len(domain.Availabilities()))
	for _, a := range domain.Availabilities() {
		values = append(values, string(a))
	}
	return &Failure{Message: messageInvalidAvailability + strings.Join(values, ", "), Values: values}
}

func checkName(name string) *Failure {
	if domain.SafeName(name) == "" {
		return &Failure{Message: MessageUnnamable}
	}
	return nil
}
