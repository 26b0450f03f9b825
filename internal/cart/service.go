package cart

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/google/uuid"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

type cartStore interface {
	Load(ctx context.Context, supermarketID uuid.UUID, sessionID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, supermarketID uuid.UUID, sessionID string) error
}

type itemLookup interface {
	FindByIDs(ctx context.Context, supermarketID uuid.UUID, ids []uuid.UUID) ([]models.Item, error)
}

// Service exposes session cart operations.
type Service interface {
	Get(ctx context.Context, supermarketID uuid.UUID, sessionID string) (*Cart, error)
	Add(ctx context.Context, supermarketID uuid.UUID, sessionID string, itemID uuid.UUID, quantity int) (*Cart, error)
	SetQuantity(ctx context.Context, supermarketID uuid.UUID, sessionID string, itemID uuid.UUID, quantity int) (*Cart, error)
	Remove(ctx context.Context, supermarketID uuid.UUID, sessionID string, itemID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, supermarketID uuid.UUID, sessionID string) error
}

type service struct {
	store cartStore
	items itemLookup
	now   func() time.Time
}

// NewService builds the cart service.
func NewService(store cartStore, items itemLookup) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if items == nil {
		return nil, fmt.Errorf("item lookup required")
	}
	return &service{store: store, items: items, now: time.Now}, nil
}

// ValidateSessionID rejects ids that are too short to be unguessable or that
// would break the redis key layout.
func ValidateSessionID(sessionID string) error {
	if !sessionIDPattern.MatchString(sessionID) {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id must be 8-128 characters of letters, digits, '-' or '_'")
	}
	return nil
}

func (s *service) Get(ctx context.Context, supermarketID uuid.UUID, sessionID string) (*Cart, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx, supermarketID, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func (s *service) Add(ctx context.Context, supermarketID uuid.UUID, sessionID string, itemID uuid.UUID, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := s.requireActiveItem(ctx, supermarketID, itemID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, supermarketID, sessionID, func(c *Cart) error {
		return c.Add(itemID, quantity)
	})
}

func (s *service) SetQuantity(ctx context.Context, supermarketID uuid.UUID, sessionID string, itemID uuid.UUID, quantity int) (*Cart, error) {
	return s.mutate(ctx, supermarketID, sessionID, func(c *Cart) error {
		return c.SetQuantity(itemID, quantity)
	})
}

func (s *service) Remove(ctx context.Context, supermarketID uuid.UUID, sessionID string, itemID uuid.UUID) (*Cart, error) {
	return s.mutate(ctx, supermarketID, sessionID, func(c *Cart) error {
		if !c.Remove(itemID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return nil
	})
}

func (s *service) Clear(ctx context.Context, supermarketID uuid.UUID, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, supermarketID, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) mutate(ctx context.Context, supermarketID uuid.UUID, sessionID string, fn func(*Cart) error) (*Cart, error) {
	c, err := s.Get(ctx, supermarketID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return c, nil
}

func (s *service) requireActiveItem(ctx context.Context, supermarketID, itemID uuid.UUID) error {
	rows, err := s.items.FindByIDs(ctx, supermarketID, []uuid.UUID{itemID})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if len(rows) == 0 || !rows[0].IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return nil
}
