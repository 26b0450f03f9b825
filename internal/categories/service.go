package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxNameLength = 120

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type categoryRepository interface {
	ListBySupermarket(ctx context.Context, supermarketID uuid.UUID) ([]models.Category, error)
	ListBySupermarketWithTx(tx *gorm.DB, supermarketID uuid.UUID) ([]models.Category, error)
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Category, error)
	CreateWithTx(tx *gorm.DB, category *models.Category) error
	SaveVersionedWithTx(tx *gorm.DB, category *models.Category) error
	TouchWithTx(tx *gorm.DB, id uuid.UUID, version int) error
	DeleteVersionedWithTx(tx *gorm.DB, id uuid.UUID, version int) error
	DetachItemsWithTx(tx *gorm.DB, ids []uuid.UUID) (int64, error)
}

type ownership interface {
	RequireOwner(ctx context.Context, userID, supermarketID uuid.UUID) (*models.Supermarket, error)
}

// Service manages a supermarket's category hierarchy. The parent pointer is
// the only stored link; every response derives subcategories from it.
type Service interface {
	Create(ctx context.Context, userID, supermarketID uuid.UUID, input CreateInput) (*CategoryDTO, error)
	Update(ctx context.Context, userID, supermarketID, categoryID uuid.UUID, input UpdateInput) (*CategoryDTO, error)
	Reparent(ctx context.Context, userID, supermarketID, categoryID uuid.UUID, parentID *uuid.UUID) (*CategoryDTO, error)
	Delete(ctx context.Context, userID, supermarketID, categoryID uuid.UUID) (*DeleteResult, error)
	Get(ctx context.Context, supermarketID, categoryID uuid.UUID) (*CategoryDTO, error)
	List(ctx context.Context, supermarketID uuid.UUID) ([]CategoryDTO, error)
	Tree(ctx context.Context, supermarketID uuid.UUID) ([]TreeNode, error)
}

type service struct {
	tx     txRunner
	repo   categoryRepository
	owners ownership
	logg   *logger.Logger
}

// NewService builds the category service.
func NewService(tx txRunner, repo categoryRepository, owners ownership, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if owners == nil {
		return nil, fmt.Errorf("ownership checker required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{tx: tx, repo: repo, owners: owners, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, userID, supermarketID uuid.UUID, input CreateInput) (*CategoryDTO, error) {
	supermarket, err := s.owners.RequireOwner(ctx, userID, supermarketID)
	if err != nil {
		return nil, err
	}
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		SupermarketID:    supermarketID,
		OwnerID:          supermarket.OwnerID,
		ParentCategoryID: input.ParentCategoryID,
		Name:             name,
		ImageURL:         trimmedPtr(input.ImageURL),
	}

	var dto *CategoryDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if category.ParentCategoryID != nil {
			parent, err := s.loadParent(tx, supermarketID, *category.ParentCategoryID)
			if err != nil {
				return err
			}
			if err := s.repo.TouchWithTx(tx, parent.ID, parent.Version); err != nil {
				return mapWriteErr(err, "link parent category")
			}
		}
		if err := s.repo.CreateWithTx(tx, category); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
		}
		dto, err = s.reload(tx, supermarketID, category.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "category_id", category.ID.String()), "category created")
	return dto, nil
}

func (s *service) Update(ctx context.Context, userID, supermarketID, categoryID uuid.UUID, input UpdateInput) (*CategoryDTO, error) {
	if _, err := s.owners.RequireOwner(ctx, userID, supermarketID); err != nil {
		return nil, err
	}
	var name string
	if input.Name != nil {
		normalized, err := normalizeName(*input.Name)
		if err != nil {
			return nil, err
		}
		name = normalized
	}

	var dto *CategoryDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		category, err := s.loadCategory(tx, supermarketID, categoryID)
		if err != nil {
			return err
		}
		changed := false
		if input.Name != nil && name != category.Name {
			category.Name = name
			changed = true
		}
		if input.ImageURL != nil {
			category.ImageURL = trimmedPtr(input.ImageURL)
			changed = true
		}
		if input.Parent.Set {
			moved, err := s.applyParent(tx, category, input.Parent.ID)
			if err != nil {
				return err
			}
			changed = changed || moved
		}
		if changed {
			if err := s.repo.SaveVersionedWithTx(tx, category); err != nil {
				return mapWriteErr(err, "update category")
			}
		}
		dto, err = s.reload(tx, supermarketID, categoryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Reparent(ctx context.Context, userID, supermarketID, categoryID uuid.UUID, parentID *uuid.UUID) (*CategoryDTO, error) {
	return s.Update(ctx, userID, supermarketID, categoryID, UpdateInput{Parent: ParentChange{Set: true, ID: parentID}})
}

// applyParent validates and stages a parent change on category, bumping the
// versions of the old and new parents. It reports false when the parent is
// unchanged, which makes repeated reparents a no-op.
func (s *service) applyParent(tx *gorm.DB, category *models.Category, parentID *uuid.UUID) (bool, error) {
	if sameParent(category.ParentCategoryID, parentID) {
		return false, nil
	}
	if parentID != nil {
		if *parentID == category.ID {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "category cycle")
		}
		parent, err := s.loadParent(tx, category.SupermarketID, *parentID)
		if err != nil {
			return false, err
		}
		rows, err := s.repo.ListBySupermarketWithTx(tx, category.SupermarketID)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
		}
		if newHierarchy(rows).wouldCycle(category.ID, parent.ID) {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "category cycle")
		}
		if err := s.repo.TouchWithTx(tx, parent.ID, parent.Version); err != nil {
			return false, mapWriteErr(err, "link parent category")
		}
	}
	if category.ParentCategoryID != nil {
		old, err := s.repo.FindByIDWithTx(tx, *category.ParentCategoryID)
		switch {
		case err == nil:
			if err := s.repo.TouchWithTx(tx, old.ID, old.Version); err != nil {
				return false, mapWriteErr(err, "unlink parent category")
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load previous parent")
		}
	}
	category.ParentCategoryID = cloneID(parentID)
	return true, nil
}

func (s *service) Delete(ctx context.Context, userID, supermarketID, categoryID uuid.UUID) (*DeleteResult, error) {
	if _, err := s.owners.RequireOwner(ctx, userID, supermarketID); err != nil {
		return nil, err
	}

	result := &DeleteResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		category, err := s.loadCategory(tx, supermarketID, categoryID)
		if err != nil {
			return err
		}
		rows, err := s.repo.ListBySupermarketWithTx(tx, supermarketID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
		}
		h := newHierarchy(rows)

		if category.ParentCategoryID != nil {
			if parent, ok := h.byID[*category.ParentCategoryID]; ok {
				if err := s.repo.TouchWithTx(tx, parent.ID, parent.Version); err != nil {
					return mapWriteErr(err, "unlink parent category")
				}
			}
		}

		doomed := h.descendants(category.ID)
		ids := make([]uuid.UUID, 0, len(doomed))
		for _, c := range doomed {
			ids = append(ids, c.ID)
		}
		detached, err := s.repo.DetachItemsWithTx(tx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach items")
		}
		// children first so no row ever points at a deleted parent
		for i := len(doomed) - 1; i >= 0; i-- {
			if err := s.repo.DeleteVersionedWithTx(tx, doomed[i].ID, doomed[i].Version); err != nil {
				return mapWriteErr(err, "delete category")
			}
		}
		result.DeletedIDs = ids
		result.DetachedItems = detached
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"category_id":    categoryID.String(),
		"deleted_count":  len(result.DeletedIDs),
		"detached_items": result.DetachedItems,
	}), "category deleted")
	return result, nil
}

func (s *service) Get(ctx context.Context, supermarketID, categoryID uuid.UUID) (*CategoryDTO, error) {
	rows, err := s.repo.ListBySupermarket(ctx, supermarketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
	}
	dto := newHierarchy(rows).dto(categoryID)
	if dto == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return dto, nil
}

func (s *service) List(ctx context.Context, supermarketID uuid.UUID) ([]CategoryDTO, error) {
	rows, err := s.repo.ListBySupermarket(ctx, supermarketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
	}
	return newHierarchy(rows).flat(rows), nil
}

func (s *service) Tree(ctx context.Context, supermarketID uuid.UUID) ([]TreeNode, error) {
	rows, err := s.repo.ListBySupermarket(ctx, supermarketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
	}
	return newHierarchy(rows).tree(), nil
}

func (s *service) loadCategory(tx *gorm.DB, supermarketID, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByIDWithTx(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if category.SupermarketID != supermarketID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return category, nil
}

func (s *service) loadParent(tx *gorm.DB, supermarketID, id uuid.UUID) (*models.Category, error) {
	parent, err := s.repo.FindByIDWithTx(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent category")
	}
	if parent.SupermarketID != supermarketID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent category not found")
	}
	return parent, nil
}

func (s *service) reload(tx *gorm.DB, supermarketID, id uuid.UUID) (*CategoryDTO, error) {
	rows, err := s.repo.ListBySupermarketWithTx(tx, supermarketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
	}
	dto := newHierarchy(rows).dto(id)
	if dto == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return dto, nil
}

func mapWriteErr(err error, action string) error {
	if errors.Is(err, errVersionConflict) {
		return pkgerrors.New(pkgerrors.CodeConflict, "category was modified concurrently; retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is too long")
	}
	return name, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	cpy := *id
	return &cpy
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
