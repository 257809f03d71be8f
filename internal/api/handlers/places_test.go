package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/healthhive/server/internal/api/problem"
	"github.com/healthhive/server/internal/audit"
	"github.com/healthhive/server/internal/auth"
	"github.com/healthhive/server/internal/domain/ids"
	"github.com/healthhive/server/internal/domain/places"
	"github.com/healthhive/server/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const spaJSON = `{
	"name": "  Blue Lotus <b>Spa</b> ",
	"type": "Spa",
	"services": "Massage, Sauna",
	"location": {"address": "1 Main St", "city": "Austin", "state": "TX", "zip": "73301"},
	"tags": ["relax", "  steam "],
	"ownerId": "01HYX3KQW7ERTV9XNBM2P8QJZF"
}`

func newPlacesHandler(t *testing.T, env string) (*PlacesHandler, *memory.PlaceStore) {
	t.Helper()
	store := memory.NewPlaceStore()
	return NewPlacesHandler(places.NewService(store), env, "https://healthhive.dev"), store
}

func asUser(r *http.Request, userID string) *http.Request {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}

func decodeProblem(t *testing.T, res *httptest.ResponseRecorder) problem.ProblemDetails {
	t.Helper()
	require.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
	var body problem.ProblemDetails
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func createPlace(t *testing.T, h *PlacesHandler, owner, body string) places.Place {
	t.Helper()
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/places", strings.NewReader(body)), owner)
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	h.Create(res, req)

	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var created places.Place
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	return created
}

func TestPlacesHandlerCreateJSON(t *testing.T) {
	h, _ := newPlacesHandler(t, "production")
	owner := ids.MustNewULID()

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/places", strings.NewReader(spaJSON)), owner)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	res := httptest.NewRecorder()

	h.Create(res, req)

	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var created places.Place
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	require.Equal(t, "Blue Lotus Spa", created.Name)
	require.Equal(t, places.StringList{"Massage", "Sauna"}, created.Services)
	require.Equal(t, places.StringList{"relax", "steam"}, created.Tags)
	require.Equal(t, owner, created.OwnerID, "ownerId comes from the token, never the body")
	require.Zero(t, created.AverageRating)
	require.Equal(t, "https://healthhive.dev/api/v1/places/"+created.ID, res.Header().Get("Location"))
}

func TestPlacesHandlerCreateForm(t *testing.T) {
	h, _ := newPlacesHandler(t, "production")

	form := url.Values{
		"name":            {"Zen Den"},
		"type":            {"Yoga Studio"},
		"servicesOffered": {"Hatha, Yin"},
		"address":         {"9 Elm"},
		"city":            {"Denver"},
		"description":     {"<p>Quiet <script>x</script>room</p>"},
		"tags":            {"yoga", "calm"},
	}
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/places", strings.NewReader(form.Encode())), ids.MustNewULID())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()

	h.Create(res, req)

	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var created places.Place
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	require.Equal(t, places.StringList{"Hatha", "Yin"}, created.Services)
	require.Equal(t, places.StringList{"yoga", "calm"}, created.Tags)
	require.Equal(t, "Denver", created.Location.City)
	require.NotContains(t, created.Description, "<script>")
}

func TestPlacesHandlerCreateErrors(t *testing.T) {
	h, _ := newPlacesHandler(t, "production")
	owner := ids.MustNewULID()
	createPlace(t, h, owner, spaJSON)

	tests := []struct {
		name        string
		body        string
		contentType string
		status      int
		typ         string
		field       string
	}{
		{"missing name", `{"type":"Spa","services":"A","location":{"address":"1","city":"X"}}`, "application/json", http.StatusBadRequest, problem.TypeValidation, "name"},
		{"no services", `{"name":"A","type":"Spa","services":[],"location":{"address":"1","city":"X"}}`, "application/json", http.StatusBadRequest, problem.TypeValidation, "services"},
		{"malformed json", `{"name":`, "application/json", http.StatusBadRequest, problem.TypeValidation, ""},
		{"empty body", ``, "application/json", http.StatusBadRequest, problem.TypeValidation, ""},
		{"unsupported media", `name=x`, "text/plain", http.StatusUnsupportedMediaType, problem.TypeValidation, ""},
		{"duplicate name and city", spaJSON, "application/json", http.StatusConflict, problem.TypeConflict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/places", strings.NewReader(tt.body)), owner)
			req.Header.Set("Content-Type", tt.contentType)
			res := httptest.NewRecorder()

			h.Create(res, req)

			require.Equal(t, tt.status, res.Code)
			body := decodeProblem(t, res)
			require.Equal(t, tt.typ, body.Type)
			require.Empty(t, body.Debug, "production responses carry no debug text")
			if tt.field != "" {
				require.Contains(t, body.Errors, tt.field)
			}
			if tt.status == http.StatusConflict {
				require.Equal(t, places.DuplicateMessage, body.Detail)
			}
		})
	}
}

func TestPlacesHandlerGet(t *testing.T) {
	h, _ := newPlacesHandler(t, "production")
	created := createPlace(t, h, ids.MustNewULID(), spaJSON)

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"existing", created.ID, http.StatusOK},
		{"lower case id", strings.ToLower(created.ID), http.StatusOK},
		{"unknown", ids.MustNewULID(), http.StatusNotFound},
		{"malformed", "not-an-id", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/places/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			res := httptest.NewRecorder()

			h.Get(res, req)

			require.Equal(t, tt.status, res.Code)
			if tt.status == http.StatusOK {
				var got places.Place
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				require.Equal(t, created.ID, got.ID)
			}
		})
	}
}

func TestPlacesHandlerUpdateAndDeleteOwnership(t *testing.T) {
	h, store := newPlacesHandler(t, "production")
	owner, intruder := ids.MustNewULID(), ids.MustNewULID()
	created := createPlace(t, h, owner, spaJSON)

	update := `{"name":"Blue Lotus","type":"Day Spa","services":["Facials"],"address":"2 Main St","city":"Austin"}`

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/places/"+created.ID, strings.NewReader(update)), intruder)
	req.SetPathValue("id", created.ID)
	res := httptest.NewRecorder()
	h.Update(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, problem.TypeForbidden, decodeProblem(t, res).Type)

	req = asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/places/"+created.ID, nil), intruder)
	req.SetPathValue("id", created.ID)
	res = httptest.NewRecorder()
	h.Delete(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, 1, store.Len())

	req = asUser(httptest.NewRequest(http.MethodPut, "/api/v1/places/"+created.ID, strings.NewReader(update)), owner)
	req.SetPathValue("id", created.ID)
	res = httptest.NewRecorder()
	h.Update(res, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var updated places.Place
	require.NoError(t, json.NewDecoder(res.Body).Decode(&updated))
	require.Equal(t, "Blue Lotus", updated.Name)
	require.Equal(t, places.StringList{"Facials"}, updated.Services)
	require.Equal(t, places.StringList{}, updated.Tags)

	req = asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/places/"+created.ID, nil), owner)
	req.SetPathValue("id", created.ID)
	res = httptest.NewRecorder()
	h.Delete(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)
	require.Zero(t, store.Len())

	res = httptest.NewRecorder()
	h.Delete(res, req)
	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestPlacesHandlerList(t *testing.T) {
	h, _ := newPlacesHandler(t, "production")
	owner := ids.MustNewULID()
	for i := 1; i <= 25; i++ {
		body := fmt.Sprintf(`{"name":"Studio %02d","type":"Gym","services":"Weights","address":"1 Main","city":"Toronto","tags":"fitness"}`, i)
		createPlace(t, h, owner, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/places?city=toronto&page=3&limit=10", nil)
	res := httptest.NewRecorder()
	h.List(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var payload placeListResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Len(t, payload.Items, 5)
	require.Equal(t, 25, payload.Total)
	require.Equal(t, 3, payload.Page)
	require.Equal(t, 10, payload.Limit)
	require.Equal(t, 3, payload.TotalPages)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/places?tags=fitness,crossfit", nil)
	res = httptest.NewRecorder()
	h.List(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"items":[],"total":0,"page":1,"limit":10,"total_pages":0}`, res.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/places?minRating=6", nil)
	res = httptest.NewRecorder()
	h.List(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, decodeProblem(t, res).Errors, "minRating")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/places?page=9223372036854775807&limit=10", nil)
	res = httptest.NewRecorder()
	h.List(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
	body := decodeProblem(t, res)
	require.Contains(t, body.Errors, "page")
	require.Equal(t, "/api/v1/places", body.Instance)
}

func TestPlacesHandlerTagsExportMine(t *testing.T) {
	h, _ := newPlacesHandler(t, "production")
	alice, bob := ids.MustNewULID(), ids.MustNewULID()
	createPlace(t, h, alice, spaJSON)
	createPlace(t, h, bob, `{"name":"Iron Gym","type":"Gym","services":"Weights","address":"5 Oak","city":"Austin","tags":"fitness, relax"}`)

	res := httptest.NewRecorder()
	h.Tags(res, httptest.NewRequest(http.MethodGet, "/api/v1/places/tags", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `["fitness","relax","steam"]`, res.Body.String())

	res = httptest.NewRecorder()
	h.Export(res, httptest.NewRequest(http.MethodGet, "/api/v1/places/export?type=gym", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, `attachment; filename="places.json"`, res.Header().Get("Content-Disposition"))
	var exported []places.Place
	require.NoError(t, json.NewDecoder(res.Body).Decode(&exported))
	require.Len(t, exported, 1)
	require.Equal(t, "Iron Gym", exported[0].Name)

	res = httptest.NewRecorder()
	h.Mine(res, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/places/mine", nil), alice))
	require.Equal(t, http.StatusOK, res.Code)
	var mine []places.Place
	require.NoError(t, json.NewDecoder(res.Body).Decode(&mine))
	require.Len(t, mine, 1)
	require.Equal(t, alice, mine[0].OwnerID)
}

type failingStore struct {
	*memory.PlaceStore
}

func (failingStore) Count(context.Context, places.Filter) (int, error) {
	return 0, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func TestPlacesHandlerDatabaseErrorIsSanitized(t *testing.T) {
	tests := []struct {
		env       string
		wantDebug bool
	}{
		{"production", false},
		{"development", true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			h := NewPlacesHandler(places.NewService(failingStore{memory.NewPlaceStore()}), tt.env, "")
			res := httptest.NewRecorder()

			h.List(res, httptest.NewRequest(http.MethodGet, "/api/v1/places", nil))

			require.Equal(t, http.StatusInternalServerError, res.Code)
			body := decodeProblem(t, res)
			require.Equal(t, problem.TypeServerError, body.Type)
			require.NotContains(t, body.Detail, "10.0.0.5")
			if tt.wantDebug {
				require.Contains(t, body.Debug, "connection refused")
			} else {
				require.Empty(t, body.Debug)
			}
		})
	}
}

func TestPlacesHandlerAuditsOwnerWrites(t *testing.T) {
	h, _ := newPlacesHandler(t, "production")
	var buf bytes.Buffer
	h.Audit = audit.NewLogger(zerolog.New(&buf))

	owner, intruder := ids.MustNewULID(), ids.MustNewULID()
	created := createPlace(t, h, owner, spaJSON)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/places/"+created.ID, nil), intruder)
	req.SetPathValue("id", created.ID)
	h.Delete(httptest.NewRecorder(), req)

	// validation failures are not audited
	req = asUser(httptest.NewRequest(http.MethodPost, "/api/v1/places", strings.NewReader(`{"name":""}`)), owner)
	h.Create(httptest.NewRecorder(), req)

	var entries []audit.Entry
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line struct {
			Audit audit.Entry `json:"audit"`
		}
		require.NoError(t, dec.Decode(&line))
		entries = append(entries, line.Audit)
	}

	require.Len(t, entries, 2)
	require.Equal(t, audit.ActionPlaceCreate, entries[0].Action)
	require.Equal(t, audit.StatusSuccess, entries[0].Status)
	require.Equal(t, created.ID, entries[0].PlaceID)
	require.Equal(t, owner, entries[0].UserID)
	require.Equal(t, audit.ActionPlaceDelete, entries[1].Action)
	require.Equal(t, audit.StatusDenied, entries[1].Status)
	require.Equal(t, intruder, entries[1].UserID)
}
