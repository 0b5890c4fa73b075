package engine

import (
	"testing"

	"github.com/pagemint/pagemint/internal/doctree"
	"github.com/stretchr/testify/assert"
)

func textOf(s string) *string { return &s }

func sampleDoc() *doctree.Node {
	doc := doctree.NewDoc()
	doc.Children = []*doctree.Node{
		doctree.NewParagraph("p1", "first"),
		doctree.NewParagraph("p2", "second"),
	}
	return doc
}

func TestApply_EmptyBatch(t *testing.T) {
	e := New(DefaultConfig())
	doc := sampleDoc()

	result, err := e.Apply(doc, nil, "")
	assert.NoError(t, err)
	assert.Empty(t, result.SoftFailures)
	assert.Empty(t, result.UpdatedBlockIDs)
	assert.Same(t, doc, result.Tree)
}

func TestApply_ValidationAbortsWholeBatch(t *testing.T) {
	e := New(DefaultConfig())
	doc := sampleDoc()

	tests := []struct {
		name string
		ops  []Op
	}{
		{"unknown kind", []Op{{Kind: "explode"}}},
		{"replace without text", []Op{{Kind: OpReplaceText, BlockID: "p1"}}},
		{"delete without block id", []Op{{Kind: OpDeleteBlock}}},
		{"insert without anchor", []Op{{Kind: OpInsertParagraphAfter, Text: textOf("x")}}},
		{"append without text", []Op{{Kind: OpAppendHeading, Level: 2}}},
		{
			"valid op followed by a bad one",
			[]Op{
				{Kind: OpReplaceText, BlockID: "p1", Text: textOf("changed")},
				{Kind: "explode"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Apply(doc, tt.ops, "")
			assert.ErrorIs(t, err, ErrValidation)
			assert.Nil(t, result)
		})
	}

	// the input tree stays untouched even when a leading op was valid
	assert.Equal(t, "first", doc.Children[0].Text)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	e := New(DefaultConfig())
	doc := sampleDoc()

	result, err := e.Apply(doc, []Op{
		{Kind: OpReplaceText, BlockID: "p1", Text: textOf("changed")},
		{Kind: OpDeleteBlock, BlockID: "p2"},
	}, "")
	assert.NoError(t, err)
	assert.Empty(t, result.SoftFailures)

	assert.Equal(t, "first", doc.Children[0].Text)
	assert.Len(t, doc.Children, 2)
	assert.Equal(t, "changed", result.Tree.Children[0].Text)
	assert.Len(t, result.Tree.Children, 1)
}

func TestApply_InsertAfterOrdering(t *testing.T) {
	e := New(DefaultConfig())

	result, err := e.Apply(sampleDoc(), []Op{
		{Kind: OpInsertParagraphAfter, AfterBlockID: "p1", Text: textOf("between"), ID: "new"},
	}, "")
	assert.NoError(t, err)
	assert.Empty(t, result.SoftFailures)
	assert.Equal(t, []string{"p1", "new", "p2"}, result.Tree.BlockIDs())
	assert.Equal(t, []string{"new"}, result.UpdatedBlockIDs)
}

func TestApply_StackedInsertsAtSameAnchor(t *testing.T) {
	e := New(DefaultConfig())

	// both ops anchor on p1; the second lands directly after p1, before the
	// first insert, mirroring how clients prepend at a cursor
	result, err := e.Apply(sampleDoc(), []Op{
		{Kind: OpInsertParagraphAfter, AfterBlockID: "p1", Text: textOf("a"), ID: "a"},
		{Kind: OpInsertParagraphAfter, AfterBlockID: "p1", Text: textOf("b"), ID: "b"},
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, []string{"p1", "b", "a", "p2"}, result.Tree.BlockIDs())
}

func TestApply_SoftFailures(t *testing.T) {
	e := New(DefaultConfig())

	result, err := e.Apply(sampleDoc(), []Op{
		{Kind: OpReplaceText, BlockID: "ghost", Text: textOf("x")},
		{Kind: OpAppendHeading, Text: textOf("too deep"), Level: 5},
		{Kind: OpReplaceText, BlockID: "p2", Text: textOf("still applied")},
	}, "")
	assert.NoError(t, err)

	assert.Len(t, result.SoftFailures, 2)
	assert.Equal(t, SoftFailure{OpIndex: 0, Code: FailureBlockNotFound, Message: `block "ghost" not found`}, result.SoftFailures[0])
	assert.Equal(t, FailureInvalidHeadingLevel, result.SoftFailures[1].Code)
	assert.Equal(t, 1, result.SoftFailures[1].OpIndex)

	// later ops keep applying past soft failures
	assert.Equal(t, "still applied", result.Tree.Children[1].Text)
	assert.Equal(t, []string{"p2"}, result.UpdatedBlockIDs)
}

func TestApply_HeadingLevelCheckedBeforeAnchor(t *testing.T) {
	e := New(DefaultConfig())

	result, err := e.Apply(sampleDoc(), []Op{
		{Kind: OpInsertHeadingAfter, AfterBlockID: "ghost", Text: textOf("x"), Level: 9},
	}, "")
	assert.NoError(t, err)
	assert.Len(t, result.SoftFailures, 1)
	assert.Equal(t, FailureInvalidHeadingLevel, result.SoftFailures[0].Code)
}

func TestApply_SetHeadingAndBack(t *testing.T) {
	e := New(DefaultConfig())

	result, err := e.Apply(sampleDoc(), []Op{
		{Kind: OpSetHeading, BlockID: "p1", Level: 2},
	}, "")
	assert.NoError(t, err)
	assert.Empty(t, result.SoftFailures)
	block := result.Tree.Children[0]
	assert.Equal(t, doctree.KindHeading, block.Type)
	assert.Equal(t, 2, block.HeadingLevel())

	result, err = e.Apply(result.Tree, []Op{
		{Kind: OpSetParagraph, BlockID: "p1"},
	}, "")
	assert.NoError(t, err)
	block = result.Tree.Children[0]
	assert.Equal(t, doctree.KindParagraph, block.Type)
	_, hasLevel := block.Attrs["level"]
	assert.False(t, hasLevel)
}

func TestApply_SeededInsertsAreIdempotent(t *testing.T) {
	e := New(DefaultConfig())
	const seed = "retry-seed"

	ops := []Op{
		{Kind: OpAppendParagraph, Text: textOf("tail")},
		{Kind: OpInsertHeadingAfter, AfterBlockID: "p1", Text: textOf("head"), Level: 1},
	}

	first, err := e.Apply(sampleDoc(), ops, seed)
	assert.NoError(t, err)
	assert.Empty(t, first.SoftFailures)
	assert.Len(t, first.Tree.Children, 4)

	// replaying the same batch against the produced tree inserts nothing new
	second, err := e.Apply(first.Tree, ops, seed)
	assert.NoError(t, err)
	assert.Empty(t, second.SoftFailures)
	assert.Equal(t, first.Tree.BlockIDs(), second.Tree.BlockIDs())
	assert.Equal(t, first.UpdatedBlockIDs, second.UpdatedBlockIDs)

	// a different seed produces fresh blocks
	third, err := e.Apply(first.Tree, ops, "another-seed")
	assert.NoError(t, err)
	assert.Len(t, third.Tree.Children, 6)
}

func TestApply_ExplicitIDSkipsExistingBlock(t *testing.T) {
	e := New(DefaultConfig())

	result, err := e.Apply(sampleDoc(), []Op{
		{Kind: OpAppendParagraph, Text: textOf("dup"), ID: "p1"},
	}, "")
	assert.NoError(t, err)
	assert.Empty(t, result.SoftFailures)
	assert.Len(t, result.Tree.Children, 2)
	assert.Equal(t, []string{"p1"}, result.UpdatedBlockIDs)
}

func TestApply_CustomHeadingLevels(t *testing.T) {
	config := DefaultConfig()
	config.HeadingLevels.Add(4)
	e := New(config)

	result, err := e.Apply(sampleDoc(), []Op{
		{Kind: OpAppendHeading, Text: textOf("deep"), Level: 4},
	}, "")
	assert.NoError(t, err)
	assert.Empty(t, result.SoftFailures)
}

func TestFailureSummary(t *testing.T) {
	assert.Empty(t, FailureSummary(nil))

	failures := []SoftFailure{
		{OpIndex: 0, Code: FailureBlockNotFound, Message: `block "a" not found`},
		{OpIndex: 2, Code: FailureInvalidHeadingLevel, Message: "invalid heading level 7"},
	}
	summary := FailureSummary(failures)
	assert.Contains(t, summary, "2 op(s) failed")
	assert.Contains(t, summary, `op 0: block "a" not found`)

	for i := 0; i < 5; i++ {
		failures = append(failures, SoftFailure{OpIndex: 3 + i, Code: FailureBlockNotFound, Message: "x"})
	}
	assert.Contains(t, FailureSummary(failures), "(and 4 more)")
}
