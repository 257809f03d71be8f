package ids

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

	ErrInvalidULID       = errors.New("invalid ULID")
	ErrInvalidNodeDomain = errors.New("invalid node domain")
	ErrInvalidEntityPath = errors.New("invalid entity path")
)

// NewULID generates a new ULID string. IDs from one process increase
// strictly, including within the same millisecond.
func NewULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulid.DefaultEntropy())
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MustNewULID is NewULID for callers that cannot recover from an entropy failure.
func MustNewULID() string {
	id, err := NewULID()
	if err != nil {
		panic(fmt.Sprintf("generate ulid: %v", err))
	}
	return id
}

// IsULID returns true when value is a valid ULID (case-insensitive Crockford Base32).
// Values whose timestamp part overflows 48 bits are rejected.
func IsULID(value string) bool {
	candidate := strings.TrimSpace(value)
	if !ulidRegex.MatchString(candidate) {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(candidate))
	return err == nil
}

// ValidateULID validates a ULID string.
func ValidateULID(value string) error {
	if !IsULID(value) {
		return ErrInvalidULID
	}
	return nil
}

// Normalize validates value and returns its canonical upper-case form.
func Normalize(value string) (string, error) {
	if err := ValidateULID(value); err != nil {
		return "", err
	}
	return strings.ToUpper(strings.TrimSpace(value)), nil
}

// BuildCanonicalURI creates a canonical URI for a local entity.
func BuildCanonicalURI(nodeDomain, entityPath, id string) (string, error) {
	if err := ValidateULID(id); err != nil {
		return "", err
	}

	scheme, host, err := normalizeNodeDomain(nodeDomain)
	if err != nil {
		return "", err
	}

	cleanEntityPath := strings.Trim(strings.TrimSpace(entityPath), "/")
	if cleanEntityPath == "" {
		return "", ErrInvalidEntityPath
	}

	return fmt.Sprintf("%s://%s/%s/%s", scheme, host, cleanEntityPath, strings.ToUpper(strings.TrimSpace(id))), nil
}

func normalizeNodeDomain(nodeDomain string) (string, string, error) {
	value := strings.TrimSpace(nodeDomain)
	if value == "" {
		return "", "", ErrInvalidNodeDomain
	}

	if strings.Contains(value, "://") {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Host == "" {
			return "", "", ErrInvalidNodeDomain
		}
		if parsed.Path != "" && parsed.Path != "/" {
			return "", "", ErrInvalidNodeDomain
		}
		return parsed.Scheme, parsed.Host, nil
	}

	if strings.Contains(value, "/") {
		return "", "", ErrInvalidNodeDomain
	}

	return "https", value, nil
}
