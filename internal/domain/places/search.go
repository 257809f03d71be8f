package places

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/healthhive/server/internal/sanitize"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	ExportLimit  = 1000
)

var (
	minRatingFloor   = floatPtr(0)
	minRatingCeiling = floatPtr(5)
)

// SortOrder selects the ordering applied by Store.Find.
type SortOrder string

const (
	SortNatural SortOrder = ""
	SortName    SortOrder = "name"
	SortRating  SortOrder = "rating"
	SortReviews SortOrder = "reviews"
)

// Filter holds sanitized constraints. Empty strings and a nil MinRating
// impose nothing; Tags must all be present on a match.
type Filter struct {
	Name      string
	Type      string
	City      string
	Tags      []string
	MinRating *float64
}

// SearchParams is the untrusted search input.
type SearchParams struct {
	Name      string
	Type      string
	City      string
	Tags      []string
	MinRating string
	SortBy    string
	Page      int
	Limit     int
}

// Criteria is a validated search ready for the store.
type Criteria struct {
	Filter Filter
	Order  SortOrder
	Page   int
	Limit  int
}

func (c Criteria) Offset() int {
	return (c.Page - 1) * c.Limit
}

// ParseSearchParams reads query values. The limit defaults to defaultLimit
// and is capped at maxLimit.
func ParseSearchParams(values url.Values, defaultLimit, maxLimit int) (SearchParams, error) {
	params := SearchParams{
		Name:      values.Get("name"),
		Type:      values.Get("type"),
		City:      values.Get("city"),
		MinRating: strings.TrimSpace(values.Get("minRating")),
		SortBy:    values.Get("sortBy"),
	}

	for _, raw := range values["tags"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				params.Tags = append(params.Tags, tag)
			}
		}
	}

	page, err := parsePositive(values, "page", 1)
	if err != nil {
		return params, err
	}
	params.Page = page

	limit, err := parsePositive(values, "limit", defaultLimit)
	if err != nil {
		return params, err
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	params.Limit = limit

	if err := checkPageBounds(page, limit); err != nil {
		return params, err
	}

	return params, nil
}

// checkPageBounds rejects pages whose offset would overflow an int.
func checkPageBounds(page, limit int) error {
	if limit > 0 && page-1 > math.MaxInt/limit {
		return validationError("page", "is out of range")
	}
	return nil
}

func parsePositive(values url.Values, field string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validationError(field, "must be a number")
	}
	if parsed < 1 {
		return 0, validationError(field, "must be at least 1")
	}
	return parsed, nil
}

// BuildCriteria sanitizes the free-text filters and validates minRating.
func BuildCriteria(params SearchParams) (Criteria, error) {
	criteria := Criteria{
		Filter: Filter{
			Name: sanitize.Trimmed(params.Name),
			Type: sanitize.Trimmed(params.Type),
			City: sanitize.Trimmed(params.City),
			Tags: sanitize.NonEmpty(params.Tags),
		},
		Order: parseSortOrder(params.SortBy),
		Page:  params.Page,
		Limit: params.Limit,
	}
	if criteria.Page < 1 {
		criteria.Page = 1
	}
	if criteria.Limit < 1 {
		criteria.Limit = DefaultLimit
	}
	if err := checkPageBounds(criteria.Page, criteria.Limit); err != nil {
		return Criteria{}, err
	}

	if raw := strings.TrimSpace(params.MinRating); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Criteria{}, validationError("minRating", "must be a number between 0 and 5")
		}
		rating, err := CheckNumberInRange(parsed, "minRating", minRatingFloor, minRatingCeiling)
		if err != nil {
			return Criteria{}, err
		}
		criteria.Filter.MinRating = &rating
	}
	return criteria, nil
}

func parseSortOrder(raw string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case SortName:
		return SortName
	case SortRating:
		return SortRating
	case SortReviews:
		return SortReviews
	default:
		return SortNatural
	}
}

// SearchEngine runs paged, filtered queries against a Store.
type SearchEngine struct {
	store Store
}

func NewSearchEngine(store Store) *SearchEngine {
	return &SearchEngine{store: store}
}

// Search counts all matches and fetches the requested page concurrently.
func (e *SearchEngine) Search(ctx context.Context, params SearchParams) (SearchResult, error) {
	criteria, err := BuildCriteria(params)
	if err != nil {
		return SearchResult{}, err
	}

	var (
		total int
		found []Place
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := e.store.Count(gctx, criteria.Filter)
		total = n
		return err
	})
	g.Go(func() error {
		list, err := e.store.Find(gctx, criteria.Filter, criteria.Order, criteria.Offset(), criteria.Limit)
		found = list
		return err
	})
	if err := g.Wait(); err != nil {
		return SearchResult{}, storeError("search places", err)
	}

	if found == nil {
		found = []Place{}
	}
	return SearchResult{
		Places: found,
		Total:  total,
		Page:   criteria.Page,
		Limit:  criteria.Limit,
	}, nil
}
