package places

import (
	"context"
	"errors"
	"time"

	"github.com/healthhive/server/internal/domain/ids"
)

// Store is the persistence port for places. Implementations return
// ErrNotFound and ErrDuplicate (possibly wrapped) for those outcomes.
type Store interface {
	Insert(ctx context.Context, place Place) error
	FindByID(ctx context.Context, id string) (*Place, error)
	// UpdateOwned overwrites the mutable fields of the row matching both id
	// and ownerID and reports whether a row matched.
	UpdateOwned(ctx context.Context, id, ownerID string, fields Fields, updatedAt time.Time) (bool, error)
	// DeleteOwned removes the row matching both id and ownerID.
	DeleteOwned(ctx context.Context, id, ownerID string) (bool, error)
	DistinctTags(ctx context.Context) ([]string, error)
	Count(ctx context.Context, filter Filter) (int, error)
	Find(ctx context.Context, filter Filter, order SortOrder, offset, limit int) ([]Place, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Place, error)
}

// Repository applies validation, sanitization and ownership rules on top of a Store.
type Repository struct {
	store Store
	now   func() time.Time
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

func (r *Repository) timestamp() time.Time {
	// Postgres keeps microseconds; truncating keeps round trips exact.
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *Repository) Create(ctx context.Context, ownerID string, fields Fields) (*Place, error) {
	owner, err := CheckIdentifier(ownerID, "ownerId")
	if err != nil {
		return nil, err
	}
	clean, err := NormalizeFields(fields)
	if err != nil {
		return nil, err
	}
	id, err := ids.NewULID()
	if err != nil {
		return nil, &Error{Kind: KindDatabase, Message: "failed to assign place id", Err: err}
	}

	now := r.timestamp()
	place := Place{
		ID:          id,
		Name:        clean.Name,
		Type:        clean.Type,
		Services:    clean.Services,
		Location:    clean.Location,
		Description: clean.Description,
		Tags:        clean.Tags,
		OwnerID:     owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.store.Insert(ctx, place); err != nil {
		return nil, storeError("create place", err)
	}

	created, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("read created place", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Place, error) {
	placeID, err := CheckIdentifier(id, "id")
	if err != nil {
		return nil, err
	}
	place, err := r.store.FindByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError("place not found", err)
		}
		return nil, storeError("load place", err)
	}
	return place, nil
}

// Update replaces every mutable field. The ownership check and the write are
// separate store calls; the write also matches on owner so a stale check can
// never touch another user's place.
func (r *Repository) Update(ctx context.Context, id, callerID string, fields Fields) (*Place, error) {
	placeID, caller, err := r.checkOwnerArgs(id, callerID)
	if err != nil {
		return nil, err
	}
	clean, err := NormalizeFields(fields)
	if err != nil {
		return nil, err
	}
	if err := r.requireOwner(ctx, placeID, caller, "you can only update places you created"); err != nil {
		return nil, err
	}

	matched, err := r.store.UpdateOwned(ctx, placeID, caller, clean, r.timestamp())
	if err != nil {
		return nil, storeError("update place", err)
	}
	if !matched {
		return nil, notFoundError("place not found", nil)
	}

	updated, err := r.store.FindByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError("place not found", err)
		}
		return nil, storeError("load updated place", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id, callerID string) error {
	placeID, caller, err := r.checkOwnerArgs(id, callerID)
	if err != nil {
		return err
	}
	if err := r.requireOwner(ctx, placeID, caller, "you can only delete places you created"); err != nil {
		return err
	}

	removed, err := r.store.DeleteOwned(ctx, placeID, caller)
	if err != nil {
		return storeError("delete place", err)
	}
	if !removed {
		return notFoundError("place not found", nil)
	}
	return nil
}

// ListTags returns every distinct tag in ascending order.
func (r *Repository) ListTags(ctx context.Context) ([]string, error) {
	tags, err := r.store.DistinctTags(ctx)
	if err != nil {
		return nil, storeError("list tags", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// ListByOwner returns the caller's places, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Place, error) {
	owner, err := CheckIdentifier(ownerID, "ownerId")
	if err != nil {
		return nil, err
	}
	list, err := r.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, storeError("list owner places", err)
	}
	if list == nil {
		list = []Place{}
	}
	return list, nil
}

func (r *Repository) checkOwnerArgs(id, callerID string) (string, string, error) {
	placeID, err := CheckIdentifier(id, "id")
	if err != nil {
		return "", "", err
	}
	caller, err := CheckIdentifier(callerID, "userId")
	if err != nil {
		return "", "", err
	}
	return placeID, caller, nil
}

func (r *Repository) requireOwner(ctx context.Context, placeID, caller, denied string) error {
	existing, err := r.store.FindByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFoundError("place not found", err)
		}
		return storeError("load place", err)
	}
	if existing.OwnerID != caller {
		return authorizationError(denied)
	}
	return nil
}
