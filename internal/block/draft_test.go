package block

import (
	"fmt"
	"reflect"
	"testing"
)

func newTestDraft(blocks ...Block) *Draft {
	draft := NewDraft(blocks)
	counter := 0
	draft.newID = func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
	return draft
}

func TestAddBlockUsesTemplateAndSelects(t *testing.T) {
	t.Parallel()

	for _, blockType := range Types() {
		draft := newTestDraft()

		id := draft.AddBlock(blockType)
		if id == "" {
			t.Fatalf("AddBlock(%s) returned empty id", blockType)
		}

		blocks := draft.Blocks()
		if len(blocks) != 1 {
			t.Fatalf("expected one block after AddBlock(%s), got %d", blockType, len(blocks))
		}

		added := blocks[0]
		if added.Type != blockType {
			t.Fatalf("expected type %s, got %s", blockType, added.Type)
		}

		wantContent, wantStyling, ok := TemplateFor(blockType)
		if !ok {
			t.Fatalf("TemplateFor(%s) reported unknown type", blockType)
		}
		if !reflect.DeepEqual(added.Content, wantContent) {
			t.Fatalf("expected template content %#v, got %#v", wantContent, added.Content)
		}
		if !reflect.DeepEqual(added.Styling, wantStyling) {
			t.Fatalf("expected template styling %#v, got %#v", wantStyling, added.Styling)
		}

		if draft.SelectedID() != id {
			t.Fatalf("expected new block to be selected")
		}
		if !draft.Editing() {
			t.Fatalf("expected editing mode after AddBlock")
		}
	}
}

func TestAddBlockAssignsUniqueIDs(t *testing.T) {
	t.Parallel()

	draft := NewDraft(nil)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := draft.AddBlock(TypeText)
		if seen[id] {
			t.Fatalf("duplicate block id %q", id)
		}
		seen[id] = true
	}
}

func TestAddBlockUnknownTypeIsNoop(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	if id := draft.AddBlock(Type("video")); id != "" {
		t.Fatalf("expected empty id for unknown type, got %q", id)
	}
	if draft.Len() != 0 {
		t.Fatalf("expected draft to stay empty")
	}
}

func TestUpdateBlockIsolation(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	first := draft.AddBlock(TypeText)
	second := draft.AddBlock(TypeText)

	draft.UpdateBlock(first, Patch{Content: TextContent{Text: "X", Tag: "p"}})

	blocks := draft.Blocks()
	if got := blocks[0].Content.(TextContent).Text; got != "X" {
		t.Fatalf("expected updated text 'X', got %q", got)
	}

	wantContent, _, _ := TemplateFor(TypeText)
	if !reflect.DeepEqual(blocks[1].Content, wantContent) {
		t.Fatalf("expected second block untouched, got %#v", blocks[1].Content)
	}
	if blocks[1].ID != second {
		t.Fatalf("expected second block id unchanged")
	}
}

func TestUpdateBlockUnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	draft.AddBlock(TypeHeading)
	before := draft.Blocks()

	draft.UpdateBlock("missing", Patch{Content: HeadingContent{Text: "Z", Tag: "h1"}})

	if !reflect.DeepEqual(before, draft.Blocks()) {
		t.Fatalf("expected draft unchanged for unknown id")
	}
}

func TestUpdateBlockIgnoresMismatchedContent(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	id := draft.AddBlock(TypeText)

	draft.UpdateBlock(id, Patch{Content: SpacerContent{Height: "1px"}})

	wantContent, _, _ := TemplateFor(TypeText)
	if !reflect.DeepEqual(draft.Blocks()[0].Content, wantContent) {
		t.Fatalf("expected mismatched content patch to be ignored")
	}
}

func TestUpdateBlockReplacesStylingWhole(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	id := draft.AddBlock(TypeHeading)

	styling := &Styling{Colors: &Colors{Text: "#1a3c34"}}
	draft.UpdateBlock(id, Patch{Styling: styling})

	got := draft.Blocks()[0].Styling
	if !reflect.DeepEqual(got, styling) {
		t.Fatalf("expected styling replaced whole, got %#v", got)
	}
	if got.Typography != nil {
		t.Fatalf("expected template typography dropped by shallow merge")
	}
}

func TestDeleteBlockClearsSelection(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	first := draft.AddBlock(TypeText)
	second := draft.AddBlock(TypeHeading)

	draft.Select(second)
	draft.DeleteBlock(second)

	if draft.Len() != 1 {
		t.Fatalf("expected one block after delete, got %d", draft.Len())
	}
	if draft.SelectedID() != "" {
		t.Fatalf("expected selection cleared after deleting selected block")
	}

	draft.Select(first)
	draft.DeleteBlock("missing")
	if draft.Len() != 1 || draft.SelectedID() != first {
		t.Fatalf("expected delete of unknown id to be a no-op")
	}
}

func TestMoveBlockBoundsAreNoops(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	first := draft.AddBlock(TypeText)
	draft.AddBlock(TypeHeading)
	last := draft.AddBlock(TypeButton)
	before := draft.Blocks()

	draft.MoveBlock(first, MoveUp)
	draft.MoveBlock(last, MoveDown)
	draft.MoveBlock("missing", MoveUp)

	if !reflect.DeepEqual(before, draft.Blocks()) {
		t.Fatalf("expected out-of-bounds moves to leave the list unchanged")
	}
}

func TestMoveBlockIsInvertible(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	draft.AddBlock(TypeText)
	middle := draft.AddBlock(TypeHeading)
	draft.AddBlock(TypeButton)
	original := draft.Blocks()

	draft.MoveBlock(middle, MoveUp)
	if draft.Blocks()[0].ID != middle {
		t.Fatalf("expected middle block moved to front")
	}

	draft.MoveBlock(middle, MoveDown)
	if !reflect.DeepEqual(original, draft.Blocks()) {
		t.Fatalf("expected move followed by inverse move to restore order")
	}
}

func TestPreviewDoesNotMutateBlocks(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	draft.AddBlock(TypeText)
	draft.AddBlock(TypeImage)
	before := draft.Blocks()

	draft.SetPreview(true)
	if !draft.Preview() {
		t.Fatalf("expected preview mode enabled")
	}
	draft.SetPreview(false)

	if !reflect.DeepEqual(before, draft.Blocks()) {
		t.Fatalf("expected preview toggling to leave blocks unchanged")
	}
}

func TestSelectDoesNotEnterEditMode(t *testing.T) {
	t.Parallel()

	draft := newTestDraft()
	id := draft.AddBlock(TypeText)
	draft.SetEditing(false)

	draft.Select(id)
	if draft.SelectedID() != id {
		t.Fatalf("expected block selected")
	}
	if draft.Editing() {
		t.Fatalf("expected selection not to open the editing panel")
	}
}
