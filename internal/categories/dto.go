package categories

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CategoryRef is the compact form used for parent and subcategory links.
type CategoryRef struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL *string   `json:"image_url,omitempty"`
}

// CategoryDTO is a category with both directions of its hierarchy populated.
type CategoryDTO struct {
	ID               uuid.UUID     `json:"id"`
	SupermarketID    uuid.UUID     `json:"supermarket_id"`
	OwnerID          uuid.UUID     `json:"owner_id"`
	Name             string        `json:"name"`
	ImageURL         *string       `json:"image_url,omitempty"`
	ParentCategoryID *uuid.UUID    `json:"parent_category_id"`
	ParentCategory   *CategoryRef  `json:"parent_category"`
	Subcategories    []CategoryRef `json:"subcategories"`
	Version          int           `json:"version"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// TreeNode is one node of the nested category tree.
type TreeNode struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ImageURL *string    `json:"image_url,omitempty"`
	Children []TreeNode `json:"children"`
}

// DeleteResult reports what a cascade delete removed.
type DeleteResult struct {
	DeletedIDs    []uuid.UUID `json:"deleted_ids"`
	DetachedItems int64       `json:"detached_items"`
}

// CreateInput holds the fields of a new category.
type CreateInput struct {
	Name             string
	ImageURL         *string
	ParentCategoryID *uuid.UUID
}

// UpdateInput holds the mutable fields; nil Name and ImageURL mean unchanged.
type UpdateInput struct {
	Name     *string
	ImageURL *string
	Parent   ParentChange
}

// ParentChange distinguishes an absent parent field from an explicit null.
// Set=false leaves the parent unchanged; Set=true with a nil ID makes the
// category a root.
type ParentChange struct {
	Set bool
	ID  *uuid.UUID
}

// UnmarshalJSON marks the change as set whenever the field is present.
func (p *ParentChange) UnmarshalJSON(data []byte) error {
	p.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		p.ID = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	p.ID = &id
	return nil
}

func refOf(m *models.Category) CategoryRef {
	return CategoryRef{ID: m.ID, Name: m.Name, ImageURL: m.ImageURL}
}
