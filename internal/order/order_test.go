package order

import (
	"context"
	"os"
	"testing"

	"github.com/pagemint/pagemint/internal/model"
	"github.com/pagemint/pagemint/internal/store"
	"github.com/pagemint/pagemint/internal/tester"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()
	tester.RemoveDBFile()
	os.Exit(code)
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	return store.NewGormStore(tester.TestDB())
}

func mustCreate(t *testing.T, s store.Store, id string, parentID *string, owner string) *model.Document {
	t.Helper()
	next, err := NextOrder(context.TODO(), s, parentID)
	assert.NoError(t, err)
	doc := &model.Document{ID: id, ParentID: parentID, OwnerID: owner, Title: id, Order: next}
	assert.NoError(t, s.CreateDocument(context.TODO(), doc))
	return doc
}

// childOrders returns id->order for the children of parentID, and asserts the
// orders are dense starting at zero.
func childOrders(t *testing.T, s store.Store, parentID *string) map[string]int {
	t.Helper()
	children, err := s.ListChildren(context.TODO(), parentID)
	assert.NoError(t, err)

	orders := make(map[string]int, len(children))
	for i, child := range children {
		assert.Equal(t, i, child.Order, "sibling orders must stay dense")
		orders[child.ID] = child.Order
	}
	return orders
}

func TestNextOrder(t *testing.T) {
	s := newStore(t)
	parent := mustCreate(t, s, "next-root", nil, "alice")

	next, err := NextOrder(context.TODO(), s, &parent.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, next)

	mustCreate(t, s, "next-a", &parent.ID, "alice")
	mustCreate(t, s, "next-b", &parent.ID, "alice")

	next, err = NextOrder(context.TODO(), s, &parent.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestReorderWithinParent(t *testing.T) {
	s := newStore(t)
	parent := mustCreate(t, s, "within-root", nil, "alice")
	a := mustCreate(t, s, "within-a", &parent.ID, "alice")
	mustCreate(t, s, "within-b", &parent.ID, "alice")
	mustCreate(t, s, "within-c", &parent.ID, "alice")
	d := mustCreate(t, s, "within-d", &parent.ID, "alice")

	// move a from the front to position 2
	assert.NoError(t, Reorder(context.TODO(), s, a, &parent.ID, 2))
	orders := childOrders(t, s, &parent.ID)
	assert.Equal(t, map[string]int{"within-b": 0, "within-c": 1, "within-a": 2, "within-d": 3}, orders)

	// move d from the back to the front
	assert.NoError(t, Reorder(context.TODO(), s, d, &parent.ID, 0))
	orders = childOrders(t, s, &parent.ID)
	assert.Equal(t, map[string]int{"within-d": 0, "within-b": 1, "within-c": 2, "within-a": 3}, orders)

	// moving to the current position is a no-op
	assert.NoError(t, Reorder(context.TODO(), s, d, &parent.ID, 0))
	assert.Equal(t, orders, childOrders(t, s, &parent.ID))
}

func TestReorderReparent(t *testing.T) {
	s := newStore(t)
	left := mustCreate(t, s, "rep-left", nil, "alice")
	right := mustCreate(t, s, "rep-right", nil, "alice")
	mustCreate(t, s, "rep-a", &left.ID, "alice")
	b := mustCreate(t, s, "rep-b", &left.ID, "alice")
	mustCreate(t, s, "rep-c", &left.ID, "alice")
	mustCreate(t, s, "rep-x", &right.ID, "alice")
	mustCreate(t, s, "rep-y", &right.ID, "alice")

	// move b into the middle of the other group
	assert.NoError(t, Reorder(context.TODO(), s, b, &right.ID, 1))

	// the old group closed its gap
	assert.Equal(t, map[string]int{"rep-a": 0, "rep-c": 1}, childOrders(t, s, &left.ID))
	// the new group opened a slot at position 1
	assert.Equal(t, map[string]int{"rep-x": 0, "rep-b": 1, "rep-y": 2}, childOrders(t, s, &right.ID))

	moved, err := s.GetDocument(context.TODO(), "rep-b")
	assert.NoError(t, err)
	assert.Equal(t, right.ID, *moved.ParentID)
}

func TestReorderToRoot(t *testing.T) {
	s := newStore(t)
	parent := mustCreate(t, s, "root-parent", nil, "alice")
	child := mustCreate(t, s, "root-child", &parent.ID, "alice")

	rootBefore, err := s.MaxSiblingOrder(context.TODO(), nil)
	assert.NoError(t, err)

	assert.NoError(t, Reorder(context.TODO(), s, child, nil, rootBefore+1))

	moved, err := s.GetDocument(context.TODO(), "root-child")
	assert.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, rootBefore+1, moved.Order)
}

func TestReorderRejectsCycles(t *testing.T) {
	s := newStore(t)
	root := mustCreate(t, s, "cyc-root", nil, "alice")
	mid := mustCreate(t, s, "cyc-mid", &root.ID, "alice")
	leaf := mustCreate(t, s, "cyc-leaf", &mid.ID, "alice")

	// onto itself
	err := Reorder(context.TODO(), s, root, &root.ID, 0)
	assert.ErrorIs(t, err, ErrConflictOnReparent)

	// onto a direct child
	err = Reorder(context.TODO(), s, root, &mid.ID, 0)
	assert.ErrorIs(t, err, ErrConflictOnReparent)

	// onto a deeper descendant
	err = Reorder(context.TODO(), s, root, &leaf.ID, 0)
	assert.ErrorIs(t, err, ErrConflictOnReparent)

	// nothing moved
	unchanged, err := s.GetDocument(context.TODO(), "cyc-mid")
	assert.NoError(t, err)
	assert.Equal(t, root.ID, *unchanged.ParentID)

	// the inverse direction is fine: a leaf may move under the root
	assert.NoError(t, Reorder(context.TODO(), s, leaf, &root.ID, 1))
}

func TestEraseSubtree(t *testing.T) {
	s := newStore(t)
	ctx := context.TODO()

	root := mustCreate(t, s, "erase-root", nil, "alice")
	target := mustCreate(t, s, "erase-target", &root.ID, "alice")
	mustCreate(t, s, "erase-sibling", &root.ID, "alice")
	mustCreate(t, s, "erase-owned", &target.ID, "alice")
	foreign := mustCreate(t, s, "erase-foreign", &target.ID, "bob")
	mustCreate(t, s, "erase-owned-deep", &foreign.ID, "alice")

	assert.NoError(t, s.UpsertDocumentPermission(ctx, &model.DocumentPermission{
		DocumentID:  target.ID,
		GranteeID:   "carol",
		AccessLevel: model.AccessLevelView,
	}))

	owned := func(doc *model.Document) bool { return doc.OwnerID == "alice" }
	assert.NoError(t, EraseSubtree(ctx, s, target, owned))

	_, err := s.GetDocument(ctx, "erase-target")
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
	_, err = s.GetDocument(ctx, "erase-owned")
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)

	// the foreign child survives, lifted to the erased node's parent
	lifted, err := s.GetDocument(ctx, "erase-foreign")
	assert.NoError(t, err)
	assert.Equal(t, root.ID, *lifted.ParentID)

	// its own subtree is untouched even where ownership differs
	deep, err := s.GetDocument(ctx, "erase-owned-deep")
	assert.NoError(t, err)
	assert.Equal(t, foreign.ID, *deep.ParentID)

	// the sibling group under root closed the gap and appended the lifted child
	assert.Equal(t, map[string]int{"erase-sibling": 0, "erase-foreign": 1}, childOrders(t, s, &root.ID))

	// the grant went with the document
	grant, err := s.GetDocumentPermission(ctx, target.ID, "carol")
	assert.NoError(t, err)
	assert.Nil(t, grant)
}
