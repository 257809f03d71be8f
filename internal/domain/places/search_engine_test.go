package places_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/healthhive/server/internal/domain/ids"
	"github.com/healthhive/server/internal/domain/places"
	"github.com/healthhive/server/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

type seedPlace struct {
	name    string
	typ     string
	city    string
	tags    []string
	rating  float64
	reviews int
}

// seedDocuments loads places with ratings, which Create never sets.
func seedDocuments(t *testing.T, store *memory.PlaceStore, seeds ...seedPlace) []string {
	t.Helper()
	owner := ids.MustNewULID()
	out := make([]string, 0, len(seeds))
	for _, s := range seeds {
		id := ids.MustNewULID()
		place := places.Place{
			ID:            id,
			Name:          s.name,
			Type:          s.typ,
			Services:      places.StringList{"General"},
			Location:      places.Location{Address: "1 Main St", City: s.city},
			Tags:          s.tags,
			OwnerID:       owner,
			AverageRating: s.rating,
			ReviewCount:   s.reviews,
		}
		require.NoError(t, store.Insert(context.Background(), place))
		out = append(out, id)
	}
	return out
}

func names(list []places.Place) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Name
	}
	return out
}

func TestSearch_PaginationArithmetic(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPlaceStore()
	repo := places.NewRepository(store)
	engine := places.NewSearchEngine(store)
	owner := ids.MustNewULID()

	for i := 1; i <= 25; i++ {
		_, err := repo.Create(ctx, owner, spaFields(fmt.Sprintf("Studio %02d", i), "Toronto"))
		require.NoError(t, err)
	}

	result, err := engine.Search(ctx, places.SearchParams{City: "toronto", Page: 3, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Places, 5)
	require.Equal(t, 25, result.Total)
	require.Equal(t, 3, result.TotalPages())
	require.Equal(t, "Studio 21", result.Places[0].Name)

	result, err = engine.Search(ctx, places.SearchParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Places, 10)
	require.Equal(t, 25, result.Total)

	result, err = engine.Search(ctx, places.SearchParams{Page: 9, Limit: 10})
	require.NoError(t, err)
	require.Empty(t, result.Places)
	require.NotNil(t, result.Places)
	require.Equal(t, 25, result.Total)
}

func TestSearch_TagsRequireAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPlaceStore()
	engine := places.NewSearchEngine(store)
	seedDocuments(t, store, seedPlace{name: "Lotus", typ: "Yoga Studio", city: "Austin", tags: []string{"yoga", "wellness"}})

	for _, tags := range [][]string{{"yoga"}, {"yoga", "wellness"}} {
		result, err := engine.Search(ctx, places.SearchParams{Tags: tags})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total, "tags %v", tags)
	}

	result, err := engine.Search(ctx, places.SearchParams{Tags: []string{"yoga", "crossfit"}})
	require.NoError(t, err)
	require.Equal(t, 0, result.Total)
	require.Empty(t, result.Places)
}

func TestSearch_SubstringFiltersAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPlaceStore()
	engine := places.NewSearchEngine(store)
	seedDocuments(t, store,
		seedPlace{name: "Lotus Yoga", typ: "Yoga Studio", city: "Austin"},
		seedPlace{name: "Iron Temple", typ: "Gym", city: "Austin"},
		seedPlace{name: "Yoga Loft", typ: "Yoga Studio", city: "Dallas"},
	)

	result, err := engine.Search(ctx, places.SearchParams{Name: "YOGA"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Lotus Yoga", "Yoga Loft"}, names(result.Places))

	result, err = engine.Search(ctx, places.SearchParams{Type: "studio", City: "aus"})
	require.NoError(t, err)
	require.Equal(t, []string{"Lotus Yoga"}, names(result.Places))

	result, err = engine.Search(ctx, places.SearchParams{Name: "<script>alert(1)</script>"})
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
}

func TestSearch_MinRatingAndSorting(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPlaceStore()
	engine := places.NewSearchEngine(store)
	seedDocuments(t, store,
		seedPlace{name: "Charlie", typ: "Spa", city: "Reno", rating: 3.0, reviews: 40},
		seedPlace{name: "Alpha", typ: "Spa", city: "Reno", rating: 5.0, reviews: 2},
		seedPlace{name: "Bravo", typ: "Spa", city: "Reno", rating: 0, reviews: 15},
	)

	result, err := engine.Search(ctx, places.SearchParams{SortBy: "name"})
	require.NoError(t, err)
	require.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, names(result.Places))

	result, err = engine.Search(ctx, places.SearchParams{SortBy: "rating"})
	require.NoError(t, err)
	require.Equal(t, []string{"Alpha", "Charlie", "Bravo"}, names(result.Places))

	result, err = engine.Search(ctx, places.SearchParams{SortBy: "reviews"})
	require.NoError(t, err)
	require.Equal(t, []string{"Charlie", "Bravo", "Alpha"}, names(result.Places))

	result, err = engine.Search(ctx, places.SearchParams{SortBy: "bogus"})
	require.NoError(t, err)
	require.Equal(t, []string{"Charlie", "Alpha", "Bravo"}, names(result.Places))

	result, err = engine.Search(ctx, places.SearchParams{MinRating: "5"})
	require.NoError(t, err)
	require.Equal(t, []string{"Alpha"}, names(result.Places))

	result, err = engine.Search(ctx, places.SearchParams{MinRating: "0"})
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)

	for _, raw := range []string{"5.5", "abc"} {
		_, err = engine.Search(ctx, places.SearchParams{MinRating: raw})
		requireKind(t, err, places.KindValidation)
	}
}

func TestSearch_StoreFailureIsNotAnEmptyResult(t *testing.T) {
	cause := errors.New("query canceled")
	engine := places.NewSearchEngine(brokenStore{memory.NewPlaceStore(), cause})

	result, err := engine.Search(context.Background(), places.SearchParams{Page: 1, Limit: 10})
	requireKind(t, err, places.KindDatabase)
	require.ErrorIs(t, err, cause)
	require.Nil(t, result.Places)
}
