package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/healthhive/server/internal/domain/places"
)

// PlaceStore keeps places as JSON documents in insertion order. Documents
// are decoded on every read, so legacy shapes (a bare string where a list is
// expected) are normalized the same way the Postgres store normalizes them.
type PlaceStore struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	order  []string
	unique map[string]string
}

func NewPlaceStore() *PlaceStore {
	return &PlaceStore{
		docs:   make(map[string][]byte),
		unique: make(map[string]string),
	}
}

func uniqueKey(name, city string) string {
	return name + "\x00" + city
}

func (s *PlaceStore) Insert(ctx context.Context, place places.Place) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := json.Marshal(place)
	if err != nil {
		return fmt.Errorf("encode place: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[place.ID]; exists {
		return fmt.Errorf("insert place %s: id already present", place.ID)
	}
	key := uniqueKey(place.Name, place.Location.City)
	if _, taken := s.unique[key]; taken {
		return places.ErrDuplicate
	}
	s.docs[place.ID] = doc
	s.order = append(s.order, place.ID)
	s.unique[key] = place.ID
	return nil
}

// PutDocument stores a raw JSON document under id, bypassing validation.
// It exists to load legacy or imported data.
func (s *PlaceStore) PutDocument(id string, doc []byte) error {
	var place places.Place
	if err := json.Unmarshal(doc, &place); err != nil {
		return fmt.Errorf("decode document %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := uniqueKey(place.Name, place.Location.City)
	if owner, taken := s.unique[key]; taken && owner != id {
		return places.ErrDuplicate
	}
	if _, exists := s.docs[id]; !exists {
		s.order = append(s.order, id)
	}
	s.docs[id] = append([]byte(nil), doc...)
	s.unique[key] = id
	return nil
}

func (s *PlaceStore) FindByID(ctx context.Context, id string) (*places.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, places.ErrNotFound
	}
	place, err := decode(id, doc)
	if err != nil {
		return nil, err
	}
	return &place, nil
}

func (s *PlaceStore) UpdateOwned(ctx context.Context, id, ownerID string, fields places.Fields, updatedAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return false, nil
	}
	current, err := decode(id, doc)
	if err != nil {
		return false, err
	}
	if current.OwnerID != ownerID {
		return false, nil
	}

	oldKey := uniqueKey(current.Name, current.Location.City)
	newKey := uniqueKey(fields.Name, fields.Location.City)
	if holder, taken := s.unique[newKey]; taken && holder != id {
		return false, places.ErrDuplicate
	}

	current.Name = fields.Name
	current.Type = fields.Type
	current.Services = fields.Services
	current.Location = fields.Location
	current.Description = fields.Description
	current.Tags = fields.Tags
	current.UpdatedAt = updatedAt

	updated, err := json.Marshal(current)
	if err != nil {
		return false, fmt.Errorf("encode place: %w", err)
	}
	s.docs[id] = updated
	delete(s.unique, oldKey)
	s.unique[newKey] = id
	return true, nil
}

func (s *PlaceStore) DeleteOwned(ctx context.Context, id, ownerID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return false, nil
	}
	current, err := decode(id, doc)
	if err != nil {
		return false, err
	}
	if current.OwnerID != ownerID {
		return false, nil
	}

	delete(s.docs, id)
	delete(s.unique, uniqueKey(current.Name, current.Location.City))
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *PlaceStore) DistinctTags(ctx context.Context) ([]string, error) {
	all, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	tags := []string{}
	for _, place := range all {
		for _, tag := range place.Tags {
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *PlaceStore) Count(ctx context.Context, filter places.Filter) (int, error) {
	all, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, place := range all {
		if matches(place, filter) {
			n++
		}
	}
	return n, nil
}

func (s *PlaceStore) Find(ctx context.Context, filter places.Filter, order places.SortOrder, offset, limit int) ([]places.Place, error) {
	all, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	found := make([]places.Place, 0)
	for _, place := range all {
		if matches(place, filter) {
			found = append(found, place)
		}
	}
	sortPlaces(found, order)

	if offset < 0 {
		offset = 0
	}
	if offset >= len(found) {
		return []places.Place{}, nil
	}
	end := len(found)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return found[offset:end], nil
}

func (s *PlaceStore) ListByOwner(ctx context.Context, ownerID string) ([]places.Place, error) {
	all, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]places.Place, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].OwnerID == ownerID {
			owned = append(owned, all[i])
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	return owned, nil
}

// Len returns the number of stored documents.
func (s *PlaceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// snapshot decodes every document in insertion order.
func (s *PlaceStore) snapshot(ctx context.Context) ([]places.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]places.Place, 0, len(s.order))
	for _, id := range s.order {
		place, err := decode(id, s.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, place)
	}
	return out, nil
}

func decode(id string, doc []byte) (places.Place, error) {
	var place places.Place
	if err := json.Unmarshal(doc, &place); err != nil {
		return places.Place{}, fmt.Errorf("decode place %s: %w", id, err)
	}
	if place.ID == "" {
		place.ID = id
	}
	if place.Services == nil {
		place.Services = places.StringList{}
	}
	if place.Tags == nil {
		place.Tags = places.StringList{}
	}
	return place, nil
}

func matches(place places.Place, f places.Filter) bool {
	if !containsFold(place.Name, f.Name) || !containsFold(place.Type, f.Type) || !containsFold(place.Location.City, f.City) {
		return false
	}
	if f.MinRating != nil && place.AverageRating < *f.MinRating {
		return false
	}
	for _, want := range f.Tags {
		found := false
		for _, tag := range place.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(value, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(sub))
}

// sortPlaces mirrors the Postgres ordering, with id as the tiebreaker.
// SortNatural keeps insertion order.
func sortPlaces(list []places.Place, order places.SortOrder) {
	var less func(a, b places.Place) bool
	switch order {
	case places.SortName:
		less = func(a, b places.Place) bool { return a.Name < b.Name }
	case places.SortRating:
		less = func(a, b places.Place) bool { return a.AverageRating > b.AverageRating }
	case places.SortReviews:
		less = func(a, b places.Place) bool { return a.ReviewCount > b.ReviewCount }
	default:
		return
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.ID < b.ID
	})
}
