package places

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringList_UnmarshalLegacyShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want StringList
	}{
		{"array", `["Massage","Facial"]`, StringList{"Massage", "Facial"}},
		{"bare string", `"Massage"`, StringList{"Massage"}},
		{"blank string", `"  "`, StringList{}},
		{"null", `null`, StringList{}},
		{"array with null", `["yoga",null]`, StringList{"yoga"}},
		{"array with number", `["yoga",5]`, StringList{"yoga", "5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got StringList
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &got))
			require.Equal(t, tc.want, got)
		})
	}

	var bad StringList
	require.Error(t, json.Unmarshal([]byte(`{"a":1}`), &bad))
}

func TestStringList_MarshalNilAsEmptyArray(t *testing.T) {
	out, err := json.Marshal(Place{ID: "x"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, []any{}, decoded["services"])
	require.Equal(t, []any{}, decoded["tags"])
}

func TestSearchResult_TotalPages(t *testing.T) {
	require.Equal(t, 3, SearchResult{Total: 25, Limit: 10}.TotalPages())
	require.Equal(t, 2, SearchResult{Total: 20, Limit: 10}.TotalPages())
	require.Equal(t, 0, SearchResult{Total: 0, Limit: 10}.TotalPages())
	require.Equal(t, 0, SearchResult{Total: 5}.TotalPages())
}

func TestErrorKinds(t *testing.T) {
	verr := validationError("name", "cannot be empty")
	require.Equal(t, "invalid name: cannot be empty", verr.Error())
	require.Equal(t, KindValidation, KindOf(verr))
	require.Equal(t, KindValidation, KindOf(fmt.Errorf("wrapped: %w", verr)))
	require.Equal(t, Kind(""), KindOf(errors.New("plain")))
	require.Equal(t, Kind(""), KindOf(nil))

	dup := storeError("create place", fmt.Errorf("insert: %w", ErrDuplicate))
	require.True(t, dup.Duplicate())
	require.True(t, IsDuplicate(dup))
	require.Equal(t, DuplicateMessage, dup.Error())
	require.ErrorIs(t, dup, ErrDuplicate)

	dbErr := storeError("load place", errors.New("connection reset by peer"))
	require.False(t, dbErr.Duplicate())
	require.Equal(t, KindDatabase, dbErr.Kind)
	require.NotContains(t, dbErr.Error(), "connection reset")

	require.False(t, IsDuplicate(verr))
}
