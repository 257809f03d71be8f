package places

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/healthhive/server/internal/domain/ids"
	"github.com/healthhive/server/internal/sanitize"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CheckIdentifier validates a place or user identifier and returns it in canonical form.
func CheckIdentifier(raw any, field string) (string, error) {
	value, err := CheckNonEmptyString(raw, field)
	if err != nil {
		return "", err
	}
	id, err := ids.Normalize(value)
	if err != nil {
		return "", validationError(field, "must be a valid identifier")
	}
	return id, nil
}

// CheckNonEmptyString returns the trimmed string or a ValidationError.
func CheckNonEmptyString(raw any, field string) (string, error) {
	if raw == nil {
		return "", validationError(field, "is required")
	}
	value, ok := raw.(string)
	if !ok {
		return "", validationError(field, "must be a string")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", validationError(field, "cannot be empty")
	}
	return value, nil
}

// CheckStringList accepts []string, StringList or []any of strings. Every
// element must be non-empty after trimming; an empty list is valid.
func CheckStringList(raw any, field string) ([]string, error) {
	var items []string
	switch v := raw.(type) {
	case []string:
		items = v
	case StringList:
		items = v
	case []any:
		items = make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, validationError(field, fmt.Sprintf("item %d must be a string", i+1))
			}
			items[i] = s
		}
	default:
		return nil, validationError(field, "must be a list of strings")
	}

	out := make([]string, len(items))
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, validationError(field, fmt.Sprintf("item %d cannot be empty", i+1))
		}
		out[i] = item
	}
	return out, nil
}

// CheckNumberInRange accepts any Go numeric kind. Nil bounds are open.
func CheckNumberInRange(raw any, field string, minimum, maximum *float64) (float64, error) {
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int32:
		value = float64(v)
	case int64:
		value = float64(v)
	case uint:
		value = float64(v)
	case uint32:
		value = float64(v)
	case uint64:
		value = float64(v)
	default:
		return 0, validationError(field, "must be a number")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, validationError(field, "must be a finite number")
	}
	if minimum != nil && value < *minimum {
		return 0, validationError(field, fmt.Sprintf("must be at least %g", *minimum))
	}
	if maximum != nil && value > *maximum {
		return 0, validationError(field, fmt.Sprintf("must be at most %g", *maximum))
	}
	return value, nil
}

// SplitList turns a comma-joined string into trimmed, non-empty segments.
// Lists pass through untouched; nil yields an empty list.
func SplitList(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []string, []any, StringList:
		return v, nil
	default:
		return nil, errors.New("must be a string or a list of strings")
	}
}

// NormalizeFields trims, sanitizes and validates a full set of place fields.
func NormalizeFields(in Fields) (Fields, error) {
	var out Fields
	var err error

	if out.Name, err = requiredText(in.Name, "name"); err != nil {
		return Fields{}, err
	}
	if out.Type, err = requiredText(in.Type, "type"); err != nil {
		return Fields{}, err
	}
	if out.Location.Address, err = requiredText(in.Location.Address, "address"); err != nil {
		return Fields{}, err
	}
	if out.Location.City, err = requiredText(in.Location.City, "city"); err != nil {
		return Fields{}, err
	}
	if out.Location.State, err = optionalText(in.Location.State, "state"); err != nil {
		return Fields{}, err
	}
	if out.Location.Zip, err = optionalText(in.Location.Zip, "zip"); err != nil {
		return Fields{}, err
	}
	out.Description = strings.TrimSpace(sanitize.HTML(in.Description))

	services, err := textList(in.Services, "services")
	if err != nil {
		return Fields{}, err
	}
	if len(services) == 0 {
		return Fields{}, validationError("services", "at least one service is required")
	}
	out.Services = services

	if out.Tags, err = textList(in.Tags, "tags"); err != nil {
		return Fields{}, err
	}

	if err := validate.Struct(out); err != nil {
		return Fields{}, fromValidator(err)
	}
	return out, nil
}

func requiredText(raw, field string) (string, error) {
	value, err := CheckNonEmptyString(raw, field)
	if err != nil {
		return "", err
	}
	if value = sanitize.Trimmed(value); value == "" {
		return "", validationError(field, "must contain text")
	}
	return value, nil
}

// optionalText allows the field to be left out entirely but rejects values
// that are present and reduce to nothing.
func optionalText(raw, field string) (string, error) {
	if raw == "" {
		return "", nil
	}
	return requiredText(raw, field)
}

func textList(raw []string, field string) ([]string, error) {
	if raw == nil {
		raw = []string{}
	}
	items, err := CheckStringList(raw, field)
	if err != nil {
		return nil, err
	}
	out := sanitize.TextSlice(items)
	for i, item := range out {
		if item == "" {
			return nil, validationError(field, fmt.Sprintf("item %d must contain text", i+1))
		}
	}
	return out, nil
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return validationError("", err.Error())
	}
	fe := verrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "max":
		if fe.Kind() == reflect.Slice {
			return validationError(field, fmt.Sprintf("must have at most %s items", fe.Param()))
		}
		return validationError(field, fmt.Sprintf("must be at most %s characters", fe.Param()))
	case "min":
		return validationError(field, fmt.Sprintf("must have at least %s items", fe.Param()))
	default:
		return validationError(field, "is invalid")
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func floatPtr(v float64) *float64 {
	return &v
}
