package categories

import (
	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/google/uuid"
)

// hierarchy is an in-memory view of one supermarket's categories. Children are
// derived from the parent pointers, never stored.
type hierarchy struct {
	byID     map[uuid.UUID]*models.Category
	children map[uuid.UUID][]*models.Category
	roots    []*models.Category
}

// newHierarchy indexes rows, which are expected in display order.
func newHierarchy(rows []models.Category) *hierarchy {
	h := &hierarchy{
		byID:     make(map[uuid.UUID]*models.Category, len(rows)),
		children: make(map[uuid.UUID][]*models.Category),
	}
	for i := range rows {
		h.byID[rows[i].ID] = &rows[i]
	}
	for i := range rows {
		row := &rows[i]
		if row.ParentCategoryID == nil {
			h.roots = append(h.roots, row)
			continue
		}
		if _, ok := h.byID[*row.ParentCategoryID]; !ok {
			// dangling parent: surface the row as a root rather than hide it
			h.roots = append(h.roots, row)
			continue
		}
		h.children[*row.ParentCategoryID] = append(h.children[*row.ParentCategoryID], row)
	}
	return h
}

// descendants returns id and everything below it, parents before children.
func (h *hierarchy) descendants(id uuid.UUID) []*models.Category {
	root, ok := h.byID[id]
	if !ok {
		return nil
	}
	out := []*models.Category{root}
	seen := map[uuid.UUID]struct{}{id: {}}
	for i := 0; i < len(out); i++ {
		for _, child := range h.children[out[i].ID] {
			if _, dup := seen[child.ID]; dup {
				continue
			}
			seen[child.ID] = struct{}{}
			out = append(out, child)
		}
	}
	return out
}

// wouldCycle reports whether placing id under parentID creates a loop.
func (h *hierarchy) wouldCycle(id, parentID uuid.UUID) bool {
	seen := map[uuid.UUID]struct{}{}
	current := &parentID
	for current != nil {
		if *current == id {
			return true
		}
		if _, ok := seen[*current]; ok {
			return true
		}
		seen[*current] = struct{}{}
		node, ok := h.byID[*current]
		if !ok {
			return false
		}
		current = node.ParentCategoryID
	}
	return false
}

func (h *hierarchy) dto(id uuid.UUID) *CategoryDTO {
	m, ok := h.byID[id]
	if !ok {
		return nil
	}
	dto := &CategoryDTO{
		ID:               m.ID,
		SupermarketID:    m.SupermarketID,
		OwnerID:          m.OwnerID,
		Name:             m.Name,
		ImageURL:         m.ImageURL,
		ParentCategoryID: m.ParentCategoryID,
		Subcategories:    make([]CategoryRef, 0, len(h.children[m.ID])),
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.ParentCategoryID != nil {
		if parent, ok := h.byID[*m.ParentCategoryID]; ok {
			ref := refOf(parent)
			dto.ParentCategory = &ref
		}
	}
	for _, child := range h.children[m.ID] {
		dto.Subcategories = append(dto.Subcategories, refOf(child))
	}
	return dto
}

func (h *hierarchy) flat(rows []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *h.dto(rows[i].ID))
	}
	return out
}

func (h *hierarchy) tree() []TreeNode {
	var build func(nodes []*models.Category, seen map[uuid.UUID]struct{}) []TreeNode
	build = func(nodes []*models.Category, seen map[uuid.UUID]struct{}) []TreeNode {
		out := make([]TreeNode, 0, len(nodes))
		for _, n := range nodes {
			if _, ok := seen[n.ID]; ok {
				continue
			}
			seen[n.ID] = struct{}{}
			out = append(out, TreeNode{
				ID:       n.ID,
				Name:     n.Name,
				ImageURL: n.ImageURL,
				Children: build(h.children[n.ID], seen),
			})
		}
		return out
	}
	return build(h.roots, map[uuid.UUID]struct{}{})
}
