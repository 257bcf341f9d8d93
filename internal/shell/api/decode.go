package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/artpar/catalog/internal/core/domain"
	"github.com/mitchellh/mapstructure"
)

// maxBodyBytes caps request bodies, multipart included.
const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

// listFields are the fields that hold a sequence of strings.
var listFields = []string{"aliases", "tracks"}

// =============================================================================
// Body Decoding
// =============================================================================

// decodeFields reads the request body into a flat field map. JSON nulls are
// dropped, single form values become strings and repeated form values
// become lists. A list field sent as JSON array text is expanded.
func decodeFields(w http.ResponseWriter, r *http.Request, mediaType string) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var fields map[string]any
	switch mediaType {
	case "application/json":
		raw := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		fields = make(map[string]any, len(raw))
		for k, v := range raw {
			if v != nil {
				fields[k] = v
			}
		}

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		fields = formFields(r.PostForm)

	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		fields = formFields(r.MultipartForm.Value)

	default:
		return nil, fmt.Errorf("%w: unsupported media type %s", errMalformedBody, mediaType)
	}

	for _, key := range listFields {
		if s, ok := fields[key].(string); ok {
			fields[key] = expandList(s)
		}
	}
	return fields, nil
}

func formFields(values map[string][]string) map[string]any {
	fields := make(map[string]any, len(values))
	for k, v := range values {
		switch len(v) {
		case 0:
		case 1:
			fields[k] = v[0]
		default:
			fields[k] = v
		}
	}
	return fields
}

// expandList turns `["a","b"]` into a list and "" into an empty one; any
// other string stays a single element.
func expandList(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return []string{}
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			return list
		}
	}
	return s
}

// =============================================================================
// Binding
// =============================================================================

// bindCreateRequest binds fields onto a create request. Decoding is weakly
// typed: numbers become strings and a single value becomes a one-element list.
func bindCreateRequest(fields map[string]any) (createArtistRequest, error) {
	var req createArtistRequest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &req,
	})
	if err != nil {
		return req, err
	}
	if err := decoder.Decode(fields); err != nil {
		return req, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return req, nil
}

// changesFromFields copies the mutable fields present in fields into an
// ArtistChanges, one slot at a time. Everything else is ignored.
func changesFromFields(fields map[string]any) (domain.ArtistChanges, error) {
	var c domain.ArtistChanges
	var err error

	if c.Name, err = stringField(fields, "name"); err != nil {
		return c, err
	}
	if c.Aliases, err = listField(fields, "aliases"); err != nil {
		return c, err
	}
	if c.Description, err = stringField(fields, "description"); err != nil {
		return c, err
	}
	status, err := stringField(fields, "status")
	if err != nil {
		return c, err
	}
	if status != nil {
		s := domain.Status(*status)
		c.Status = &s
	}
	availability, err := stringField(fields, "availability")
	if err != nil {
		return c, err
	}
	if availability != nil {
		a := domain.Availability(*availability)
		c.Availability = &a
	}
	if c.Tracks, err = listField(fields, "tracks"); err != nil {
		return c, err
	}
	if c.Genre, err = stringField(fields, "genre"); err != nil {
		return c, err
	}
	if c.Notes, err = stringField(fields, "notes"); err != nil {
		return c, err
	}
	return c, nil
}

func stringField(fields map[string]any, key string) (*string, error) {
	v, ok := fields[key]
	if !ok {
		return nil, nil
	}
	var s string
	if err := mapstructure.WeakDecode(v, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errMalformedBody, key, err)
	}
	return &s, nil
}

func listField(fields map[string]any, key string) (*[]string, error) {
	v, ok := fields[key]
	if !ok {
		return nil, nil
	}
	list := []string{}
	if err := mapstructure.WeakDecode(v, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errMalformedBody, key, err)
	}
	return &list, nil
}
