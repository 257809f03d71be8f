package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/healthhive/server/internal/domain/places"
	"github.com/healthhive/server/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ places.Store = (*PlaceStore)(nil)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PlaceStore struct {
	db querier
}

func NewPlaceStore(db querier) *PlaceStore {
	return &PlaceStore{db: db}
}

type placeRow struct {
	ID            string
	Name          string
	Type          string
	Services      []byte
	Address       string
	City          string
	State         string
	Zip           string
	Description   string
	Tags          []byte
	OwnerID       string
	AverageRating float64
	ReviewCount   int32
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

const placeColumns = `p.id, p.name, p.type, p.services, p.address, p.city, p.state, p.zip,
       p.description, p.tags, p.owner_id, p.average_rating, p.review_count,
       p.created_at, p.updated_at`

func scanPlace(row pgx.Row) (places.Place, error) {
	var r placeRow
	if err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Type,
		&r.Services,
		&r.Address,
		&r.City,
		&r.State,
		&r.Zip,
		&r.Description,
		&r.Tags,
		&r.OwnerID,
		&r.AverageRating,
		&r.ReviewCount,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return places.Place{}, err
	}
	return r.toPlace()
}

func (r placeRow) toPlace() (places.Place, error) {
	place := places.Place{
		ID:            r.ID,
		Name:          r.Name,
		Type:          r.Type,
		Location:      places.Location{Address: r.Address, City: r.City, State: r.State, Zip: r.Zip},
		Description:   r.Description,
		OwnerID:       r.OwnerID,
		AverageRating: r.AverageRating,
		ReviewCount:   int(r.ReviewCount),
	}
	if err := decodeList(r.Services, &place.Services); err != nil {
		return places.Place{}, fmt.Errorf("decode services for %s: %w", r.ID, err)
	}
	if err := decodeList(r.Tags, &place.Tags); err != nil {
		return places.Place{}, fmt.Errorf("decode tags for %s: %w", r.ID, err)
	}
	if r.CreatedAt.Valid {
		place.CreatedAt = r.CreatedAt.Time.UTC()
	}
	if r.UpdatedAt.Valid {
		place.UpdatedAt = r.UpdatedAt.Time.UTC()
	}
	return place, nil
}

// decodeList goes through StringList so jsonb scalars from older rows come
// back as one-element lists.
func decodeList(raw []byte, out *places.StringList) error {
	if len(raw) == 0 {
		*out = places.StringList{}
		return nil
	}
	return json.Unmarshal(raw, out)
}

func encodeList(list []string) ([]byte, error) {
	return json.Marshal(places.StringList(list))
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w (%s)", places.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (s *PlaceStore) Insert(ctx context.Context, place places.Place) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("place_insert", start, err) }(time.Now())

	services, err := encodeList(place.Services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}
	tags, err := encodeList(place.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.Exec(ctx, `
INSERT INTO places (
    id, name, type, services, address, city, state, zip, description, tags,
    owner_id, average_rating, review_count, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`,
		place.ID,
		place.Name,
		place.Type,
		services,
		place.Location.Address,
		place.Location.City,
		place.Location.State,
		place.Location.Zip,
		place.Description,
		tags,
		place.OwnerID,
		place.AverageRating,
		place.ReviewCount,
		place.CreatedAt,
		place.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert place: %w", classify(err))
	}
	return nil
}

func (s *PlaceStore) FindByID(ctx context.Context, id string) (_ *places.Place, err error) {
	defer func(start time.Time) { metrics.RecordQuery("place_find_by_id", start, err) }(time.Now())

	place, err := scanPlace(s.db.QueryRow(ctx, `SELECT `+placeColumns+` FROM places p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, places.ErrNotFound
		}
		return nil, fmt.Errorf("get place: %w", err)
	}
	return &place, nil
}

func (s *PlaceStore) UpdateOwned(ctx context.Context, id, ownerID string, fields places.Fields, updatedAt time.Time) (_ bool, err error) {
	defer func(start time.Time) { metrics.RecordQuery("place_update", start, err) }(time.Now())

	services, err := encodeList(fields.Services)
	if err != nil {
		return false, fmt.Errorf("encode services: %w", err)
	}
	tags, err := encodeList(fields.Tags)
	if err != nil {
		return false, fmt.Errorf("encode tags: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
UPDATE places
   SET name = $3, type = $4, services = $5, address = $6, city = $7, state = $8,
       zip = $9, description = $10, tags = $11, updated_at = $12
 WHERE id = $1 AND owner_id = $2
`,
		id,
		ownerID,
		fields.Name,
		fields.Type,
		services,
		fields.Location.Address,
		fields.Location.City,
		fields.Location.State,
		fields.Location.Zip,
		fields.Description,
		tags,
		updatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update place: %w", classify(err))
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PlaceStore) DeleteOwned(ctx context.Context, id, ownerID string) (_ bool, err error) {
	defer func(start time.Time) { metrics.RecordQuery("place_delete", start, err) }(time.Now())

	tag, err := s.db.Exec(ctx, `DELETE FROM places WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete place: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PlaceStore) DistinctTags(ctx context.Context) (_ []string, err error) {
	defer func(start time.Time) { metrics.RecordQuery("place_distinct_tags", start, err) }(time.Now())

	rows, err := s.db.Query(ctx, `
SELECT DISTINCT t.tag
  FROM places p
 CROSS JOIN LATERAL jsonb_array_elements_text(place_string_list(p.tags)) AS t(tag)
 WHERE t.tag <> ''
 ORDER BY t.tag
`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tags, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan tags: %w", err)
	}
	return tags, nil
}

// filterClause matches sql against Filter. LIKE wildcards in user text are
// escaped so name, type and city are literal substring matches.
const filterClause = `
 WHERE ($1::text = '' OR p.name ILIKE '%' || $1::text || '%')
   AND ($2::text = '' OR p.type ILIKE '%' || $2::text || '%')
   AND ($3::text = '' OR p.city ILIKE '%' || $3::text || '%')
   AND (coalesce(cardinality($4::text[]), 0) = 0 OR place_string_list(p.tags) @> to_jsonb($4::text[]))
   AND ($5::double precision IS NULL OR p.average_rating >= $5::double precision)
`

func filterArgs(f places.Filter) []any {
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{escapeLike(f.Name), escapeLike(f.Type), escapeLike(f.City), tags, f.MinRating}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var orderClauses = map[places.SortOrder]string{
	places.SortNatural: ` ORDER BY p.created_at ASC, p.id ASC`,
	places.SortName:    ` ORDER BY p.name ASC, p.id ASC`,
	places.SortRating:  ` ORDER BY p.average_rating DESC, p.id ASC`,
	places.SortReviews: ` ORDER BY p.review_count DESC, p.id ASC`,
}

func (s *PlaceStore) Count(ctx context.Context, filter places.Filter) (_ int, err error) {
	defer func(start time.Time) { metrics.RecordQuery("place_count", start, err) }(time.Now())

	var total int64
	if err = s.db.QueryRow(ctx, `SELECT count(*) FROM places p`+filterClause, filterArgs(filter)...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count places: %w", err)
	}
	return int(total), nil
}

func (s *PlaceStore) Find(ctx context.Context, filter places.Filter, order places.SortOrder, offset, limit int) (_ []places.Place, err error) {
	defer func(start time.Time) { metrics.RecordQuery("place_find", start, err) }(time.Now())

	orderBy, ok := orderClauses[order]
	if !ok {
		orderBy = orderClauses[places.SortNatural]
	}
	args := append(filterArgs(filter), offset, limit)
	rows, err := s.db.Query(ctx, `SELECT `+placeColumns+` FROM places p`+filterClause+orderBy+` OFFSET $6 LIMIT $7`, args...)
	if err != nil {
		return nil, fmt.Errorf("find places: %w", err)
	}
	return collectPlaces(rows)
}

func (s *PlaceStore) ListByOwner(ctx context.Context, ownerID string) (_ []places.Place, err error) {
	defer func(start time.Time) { metrics.RecordQuery("place_list_by_owner", start, err) }(time.Now())

	rows, err := s.db.Query(ctx, `SELECT `+placeColumns+` FROM places p WHERE p.owner_id = $1 ORDER BY p.created_at DESC, p.id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owner places: %w", err)
	}
	return collectPlaces(rows)
}

func collectPlaces(rows pgx.Rows) ([]places.Place, error) {
	defer rows.Close()

	items := make([]places.Place, 0)
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		items = append(items, place)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate places: %w", err)
	}
	return items, nil
}
