package categories

import (
	"context"
	"testing"

	"github.com/angelmondragon/grocer-backend/pkg/db"
	"github.com/angelmondragon/grocer-backend/pkg/db/dbtest"
	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubOwnership struct {
	owner uuid.UUID
}

func (s stubOwnership) RequireOwner(_ context.Context, userID, supermarketID uuid.UUID) (*models.Supermarket, error) {
	if userID != s.owner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the supermarket owner")
	}
	return &models.Supermarket{ID: supermarketID, OwnerID: s.owner}, nil
}

type fixture struct {
	conn        *gorm.DB
	svc         Service
	owner       uuid.UUID
	supermarket uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	owner := uuid.New()
	svc, err := NewService(db.Wrap(conn), NewRepository(conn), stubOwnership{owner: owner}, nil)
	require.NoError(t, err)
	return &fixture{conn: conn, svc: svc, owner: owner, supermarket: uuid.New()}
}

func (f *fixture) create(t *testing.T, name string, parent *uuid.UUID) *CategoryDTO {
	t.Helper()
	dto, err := f.svc.Create(context.Background(), f.owner, f.supermarket, CreateInput{Name: name, ParentCategoryID: parent})
	require.NoError(t, err)
	return dto
}

func (f *fixture) get(t *testing.T, id uuid.UUID) *CategoryDTO {
	t.Helper()
	dto, err := f.svc.Get(context.Background(), f.supermarket, id)
	require.NoError(t, err)
	return dto
}

func (f *fixture) addItem(t *testing.T, categoryID uuid.UUID) uuid.UUID {
	t.Helper()
	item := &models.Item{
		SupermarketID: f.supermarket,
		CategoryID:    &categoryID,
		Name:          "item",
		Price:         decimal.NewFromInt(1),
		Weight:        decimal.NewFromInt(1),
		Unit:          "kg",
		IsActive:      true,
	}
	require.NoError(t, f.conn.Create(item).Error)
	return item.ID
}

func (f *fixture) itemCategory(t *testing.T, id uuid.UUID) *uuid.UUID {
	t.Helper()
	var item models.Item
	require.NoError(t, f.conn.First(&item, "id = ?", id).Error)
	return item.CategoryID
}

func subIDs(dto *CategoryDTO) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(dto.Subcategories))
	for _, s := range dto.Subcategories {
		ids = append(ids, s.ID)
	}
	return ids
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

// assertConsistent checks both directions of every link: a category lists
// exactly the categories pointing at it, and nothing has two parents.
func assertConsistent(t *testing.T, f *fixture) {
	t.Helper()
	all, err := f.svc.List(context.Background(), f.supermarket)
	require.NoError(t, err)

	byID := map[uuid.UUID]CategoryDTO{}
	for _, c := range all {
		byID[c.ID] = c
	}
	listedUnder := map[uuid.UUID]uuid.UUID{}
	for _, c := range all {
		expected := map[uuid.UUID]struct{}{}
		for _, other := range all {
			if other.ParentCategoryID != nil && *other.ParentCategoryID == c.ID {
				expected[other.ID] = struct{}{}
			}
		}
		require.Len(t, c.Subcategories, len(expected), "subcategories of %s", c.Name)
		for _, sub := range c.Subcategories {
			_, ok := expected[sub.ID]
			require.True(t, ok, "%s lists %s without being its parent", c.Name, sub.Name)
			if prev, dup := listedUnder[sub.ID]; dup {
				t.Fatalf("%s listed under %s and %s", sub.Name, byID[prev].Name, c.Name)
			}
			listedUnder[sub.ID] = c.ID
		}
		if c.ParentCategoryID != nil {
			require.NotNil(t, c.ParentCategory)
			require.Equal(t, *c.ParentCategoryID, c.ParentCategory.ID)
		} else {
			require.Nil(t, c.ParentCategory)
		}
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := NewService(nil, NewRepository(conn), stubOwnership{}, nil)
	assert.Error(t, err)
	_, err = NewService(db.Wrap(conn), nil, stubOwnership{}, nil)
	assert.Error(t, err)
	_, err = NewService(db.Wrap(conn), NewRepository(conn), nil, nil)
	assert.Error(t, err)
}

func TestCreateLinksChildToParent(t *testing.T) {
	f := newFixture(t)
	fruit := f.create(t, "Fruit", nil)
	citrus := f.create(t, "Citrus", ptr(fruit.ID))

	require.NotNil(t, citrus.ParentCategory)
	assert.Equal(t, fruit.ID, citrus.ParentCategory.ID)
	assert.Equal(t, "Fruit", citrus.ParentCategory.Name)
	assert.Equal(t, f.owner, citrus.OwnerID)
	assert.NotNil(t, citrus.Subcategories)
	assert.Empty(t, citrus.Subcategories)

	parent := f.get(t, fruit.ID)
	assert.Equal(t, []uuid.UUID{citrus.ID}, subIDs(parent))
	assert.Equal(t, 2, parent.Version, "parent version bumps when a child is added")
	assertConsistent(t, f)
}

func TestCreateUnknownParentFails(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner, f.supermarket, CreateInput{Name: "Orphan", ParentCategoryID: ptr(uuid.New())})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "parent category not found", pkgerrors.As(err).Message())

	all, err := f.svc.List(context.Background(), f.supermarket)
	require.NoError(t, err)
	assert.Empty(t, all, "failed create must not leave a row behind")
}

func TestCreateParentFromOtherSupermarketFails(t *testing.T) {
	f := newFixture(t)
	foreign := f.create(t, "Foreign", nil)

	_, err := f.svc.Create(context.Background(), f.owner, uuid.New(), CreateInput{Name: "Child", ParentCategoryID: ptr(foreign.ID)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateValidationAndOwnership(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner, f.supermarket, CreateInput{Name: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(context.Background(), uuid.New(), f.supermarket, CreateInput{Name: "Dairy"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestDeleteChildUnlinksFromParent(t *testing.T) {
	f := newFixture(t)
	parent := f.create(t, "Bakery", nil)
	child := f.create(t, "Bread", ptr(parent.ID))

	res, err := f.svc.Delete(context.Background(), f.owner, f.supermarket, child.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{child.ID}, res.DeletedIDs)

	assert.Empty(t, f.get(t, parent.ID).Subcategories)
	_, err = f.svc.Get(context.Background(), f.supermarket, child.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assertConsistent(t, f)
}

func TestDeleteCascadesAndDetachesItems(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", nil)
	b := f.create(t, "B", ptr(a.ID))
	c := f.create(t, "C", ptr(b.ID))
	d := f.create(t, "D", nil)
	itemB := f.addItem(t, b.ID)
	itemC := f.addItem(t, c.ID)
	itemD := f.addItem(t, d.ID)

	res, err := f.svc.Delete(context.Background(), f.owner, f.supermarket, a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID, c.ID}, res.DeletedIDs)
	assert.Equal(t, int64(2), res.DetachedItems)

	all, err := f.svc.List(context.Background(), f.supermarket)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, d.ID, all[0].ID)

	assert.Nil(t, f.itemCategory(t, itemB))
	assert.Nil(t, f.itemCategory(t, itemC))
	require.NotNil(t, f.itemCategory(t, itemD))
	assert.Equal(t, d.ID, *f.itemCategory(t, itemD))
}

func TestDeleteUnknownCategory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Delete(context.Background(), f.owner, f.supermarket, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReparentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	parent := f.create(t, "Drinks", nil)
	child := f.create(t, "Juice", nil)

	first, err := f.svc.Reparent(context.Background(), f.owner, f.supermarket, child.ID, ptr(parent.ID))
	require.NoError(t, err)
	second, err := f.svc.Reparent(context.Background(), f.owner, f.supermarket, child.ID, ptr(parent.ID))
	require.NoError(t, err)

	assert.Equal(t, first.Version, second.Version, "unchanged parent must not write")
	assert.Equal(t, []uuid.UUID{child.ID}, subIDs(f.get(t, parent.ID)))
	assertConsistent(t, f)
}

func TestReparentMovesBetweenParents(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", nil)
	b := f.create(t, "B", nil)
	child := f.create(t, "Child", ptr(a.ID))

	moved, err := f.svc.Reparent(context.Background(), f.owner, f.supermarket, child.ID, ptr(b.ID))
	require.NoError(t, err)
	assert.Equal(t, b.ID, moved.ParentCategory.ID)
	assert.Empty(t, f.get(t, a.ID).Subcategories)
	assert.Equal(t, []uuid.UUID{child.ID}, subIDs(f.get(t, b.ID)))

	root, err := f.svc.Reparent(context.Background(), f.owner, f.supermarket, child.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, root.ParentCategoryID)
	assert.Empty(t, f.get(t, b.ID).Subcategories)
	assertConsistent(t, f)
}

func TestReparentRejectsCycles(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", nil)
	b := f.create(t, "B", ptr(a.ID))
	c := f.create(t, "C", ptr(b.ID))

	_, err := f.svc.Reparent(context.Background(), f.owner, f.supermarket, a.ID, ptr(c.ID))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "category cycle", pkgerrors.As(err).Message())

	_, err = f.svc.Reparent(context.Background(), f.owner, f.supermarket, b.ID, ptr(b.ID))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Nil(t, f.get(t, a.ID).ParentCategoryID, "rejected move must not persist")
	assertConsistent(t, f)
}

func TestReparentUnknownParent(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "C", nil)
	_, err := f.svc.Reparent(context.Background(), f.owner, f.supermarket, c.ID, ptr(uuid.New()))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateRenamesAndMovesTogether(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", nil)
	c := f.create(t, "C", nil)
	name := "Renamed"
	image := " https://img.example/c.png "

	dto, err := f.svc.Update(context.Background(), f.owner, f.supermarket, c.ID, UpdateInput{
		Name:     &name,
		ImageURL: &image,
		Parent:   ParentChange{Set: true, ID: ptr(a.ID)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", dto.Name)
	require.NotNil(t, dto.ImageURL)
	assert.Equal(t, "https://img.example/c.png", *dto.ImageURL)
	assert.Equal(t, a.ID, dto.ParentCategory.ID)
	assert.Equal(t, c.Version+1, dto.Version)

	unchanged, err := f.svc.Update(context.Background(), f.owner, f.supermarket, c.ID, UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, dto.Version, unchanged.Version)
}

func TestUpdateWrongSupermarketIsNotFound(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "C", nil)
	name := "x"
	_, err := f.svc.Update(context.Background(), f.owner, uuid.New(), c.ID, UpdateInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestHierarchyStaysConsistentAcrossOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.create(t, "Root", nil)
	x := f.create(t, "X", ptr(root.ID))
	y := f.create(t, "Y", ptr(root.ID))
	z := f.create(t, "Z", ptr(x.ID))
	assertConsistent(t, f)

	_, err := f.svc.Reparent(ctx, f.owner, f.supermarket, z.ID, ptr(y.ID))
	require.NoError(t, err)
	assertConsistent(t, f)

	_, err = f.svc.Reparent(ctx, f.owner, f.supermarket, x.ID, ptr(z.ID))
	require.NoError(t, err)
	assertConsistent(t, f)

	_, err = f.svc.Reparent(ctx, f.owner, f.supermarket, y.ID, ptr(x.ID))
	require.Error(t, err, "y > z > x makes x under y a cycle")
	assertConsistent(t, f)

	_, err = f.svc.Delete(ctx, f.owner, f.supermarket, z.ID)
	require.NoError(t, err)
	assertConsistent(t, f)

	w := f.create(t, "W", ptr(y.ID))
	_, err = f.svc.Reparent(ctx, f.owner, f.supermarket, w.ID, nil)
	require.NoError(t, err)
	assertConsistent(t, f)

	all, err := f.svc.List(ctx, f.supermarket)
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, c := range all {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Root", "W", "Y"}, names)
}

func TestTreeNestsChildren(t *testing.T) {
	f := newFixture(t)
	produce := f.create(t, "Produce", nil)
	f.create(t, "Vegetables", ptr(produce.ID))
	fruit := f.create(t, "Fruit", ptr(produce.ID))
	f.create(t, "Berries", ptr(fruit.ID))
	f.create(t, "Bakery", nil)

	tree, err := f.svc.Tree(context.Background(), f.supermarket)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Bakery", tree[0].Name)
	assert.Empty(t, tree[0].Children)
	require.Len(t, tree[1].Children, 2)
	assert.Equal(t, "Fruit", tree[1].Children[0].Name)
	assert.Equal(t, "Berries", tree[1].Children[0].Children[0].Name)
}

// racingRepo simulates another writer bumping the parent between read and write.
type racingRepo struct {
	*Repository
	raced bool
}

func (r *racingRepo) TouchWithTx(tx *gorm.DB, id uuid.UUID, version int) error {
	if !r.raced {
		r.raced = true
		if err := tx.Model(&models.Category{}).Where("id = ?", id).Update("version", version+1).Error; err != nil {
			return err
		}
	}
	return r.Repository.TouchWithTx(tx, id, version)
}

func TestConcurrentWriterGetsConflict(t *testing.T) {
	conn := dbtest.Open(t)
	owner := uuid.New()
	supermarket := uuid.New()
	plain, err := NewService(db.Wrap(conn), NewRepository(conn), stubOwnership{owner: owner}, nil)
	require.NoError(t, err)
	parent, err := plain.Create(context.Background(), owner, supermarket, CreateInput{Name: "Parent"})
	require.NoError(t, err)

	racing, err := NewService(db.Wrap(conn), &racingRepo{Repository: NewRepository(conn)}, stubOwnership{owner: owner}, nil)
	require.NoError(t, err)
	_, err = racing.Create(context.Background(), owner, supermarket, CreateInput{Name: "Child", ParentCategoryID: &parent.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	dto, err := plain.Get(context.Background(), supermarket, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, dto.Subcategories, "conflicting create rolled back")
	assert.Equal(t, 1, dto.Version, "rolled back race leaves version untouched")
}

func TestParentChangeUnmarshal(t *testing.T) {
	var body struct {
		Parent ParentChange `json:"parent_category_id"`
	}
	require.NoError(t, jsonUnmarshal(`{}`, &body))
	assert.False(t, body.Parent.Set)

	require.NoError(t, jsonUnmarshal(`{"parent_category_id":null}`, &body))
	assert.True(t, body.Parent.Set)
	assert.Nil(t, body.Parent.ID)

	id := uuid.New()
	require.NoError(t, jsonUnmarshal(`{"parent_category_id":"`+id.String()+`"}`, &body))
	require.NotNil(t, body.Parent.ID)
	assert.Equal(t, id, *body.Parent.ID)

	assert.Error(t, jsonUnmarshal(`{"parent_category_id":"nope"}`, &body))
}
