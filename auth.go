package catphotos

import (
	"fmt"
	"strings"
)

var (
	// ErrMissingFamilyID is returned when no family identifier could be resolved
	ErrMissingFamilyID = fmt.Errorf("%w: missing family identifier", ErrUnauthorized)
	// ErrFamilyNotAllowed is returned when the identifier is not on the allow-list
	ErrFamilyNotAllowed = fmt.Errorf("%w: family id not authorized", ErrUnauthorized)
)

// Authenticator validates family identifiers against an optional allow-list.
// An empty allow-list accepts any non-empty identifier. Authenticator is
// side-effect free and safe for concurrent use.
type Authenticator struct {
	allowed map[string]struct{}
}

// NewAuthenticator creates an Authenticator from a list of permitted family
// identifiers. Entries are trimmed and blanks dropped, so the value of a
// comma-separated environment variable can be split and passed directly.
func NewAuthenticator(allowedIDs []string) *Authenticator {
	allowed := make(map[string]struct{}, len(allowedIDs))
	for _, id := range allowedIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			allowed[id] = struct{}{}
		}
	}
	return &Authenticator{allowed: allowed}
}

// Authorize validates a resolved family identifier. It returns the identifier
// unchanged on success, ErrMissingFamilyID when it is empty, and
// ErrFamilyNotAllowed when a non-empty allow-list does not contain it.
func (a *Authenticator) Authorize(familyID string) (string, error) {
	if familyID == "" {
		return "", ErrMissingFamilyID
	}
	if len(a.allowed) > 0 {
		if _, ok := a.allowed[familyID]; !ok {
			return "", ErrFamilyNotAllowed
		}
	}
	return familyID, nil
}

// FirstNonEmpty tries each extractor in order and returns the first non-empty
// trimmed result. It is how the gateway expresses the header > cookie > query
// > form precedence for identifier resolution.
func FirstNonEmpty(extractors ...func() string) string {
	for _, extract := range extractors {
		if v := strings.TrimSpace(extract()); v != "" {
			return v
		}
	}
	return ""
}
