package places

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Place is a wellness-service listing.
type Place struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Services      StringList `json:"services"`
	Location      Location   `json:"location"`
	Description   string     `json:"description,omitempty"`
	Tags          StringList `json:"tags"`
	OwnerID       string     `json:"ownerId"`
	AverageRating float64    `json:"averageRating"`
	ReviewCount   int        `json:"reviewCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Location struct {
	Address string `json:"address" validate:"max=300"`
	City    string `json:"city" validate:"max=120"`
	State   string `json:"state,omitempty" validate:"max=120"`
	Zip     string `json:"zip,omitempty" validate:"max=20"`
}

// Fields are the mutable, owner-supplied attributes of a place. Create and
// Update both take the full set.
type Fields struct {
	Name        string   `validate:"max=200"`
	Type        string   `validate:"max=200"`
	Services    []string `validate:"min=1,max=50,dive,max=100"`
	Location    Location
	Description string   `validate:"max=5000"`
	Tags        []string `validate:"max=50,dive,max=100"`
}

// StringList is a list of strings that also accepts a bare JSON string (or
// null) when decoding, so rows written before services and tags became
// arrays still read back as lists.
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*l = StringList{}
		return nil
	case data[0] == '"':
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = FromScalar(single)
		return nil
	case data[0] == '[':
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(StringList, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				out = append(out, v)
			case nil:
			default:
				out = append(out, fmt.Sprint(v))
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("string list: unsupported JSON value %s", string(data))
	}
}

// FromScalar wraps a single legacy value as a list; blank becomes empty.
func FromScalar(value string) StringList {
	if strings.TrimSpace(value) == "" {
		return StringList{}
	}
	return StringList{value}
}

// SearchResult is one page of search output plus the unpaged match count.
type SearchResult struct {
	Places []Place
	Total  int
	Page   int
	Limit  int
}

func (r SearchResult) TotalPages() int {
	if r.Limit <= 0 || r.Total == 0 {
		return 0
	}
	return (r.Total + r.Limit - 1) / r.Limit
}
