package block

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// Direction selects the neighbor a block is swapped with when moved.
type Direction string

// Valid move directions.
const (
	MoveUp   Direction = "up"
	MoveDown Direction = "down"
)

// Patch carries a shallow update for a block. A nil field leaves the
// corresponding part of the block untouched; a non-nil field replaces it
// whole, so callers changing one nested value must supply the full nested
// object.
type Patch struct {
	Content Content
	Styling *Styling
}

// Draft is the in-memory editing surface over one page's ordered block
// sequence. It is pure client-side state: it never talks to storage, and none
// of its operations can fail. The current UI session is the single writer.
type Draft struct {
	blocks     []Block
	selectedID string
	editing    bool
	preview    bool
	newID      func() string
}

// NewDraft builds a draft over a copy of the given block sequence. The input
// slice is not retained.
func NewDraft(blocks []Block) *Draft {
	draft := &Draft{
		blocks: make([]Block, len(blocks)),
		newID:  timeRandomID,
	}
	copy(draft.blocks, blocks)
	return draft
}

// timeRandomID produces a block identifier unique for the lifetime of a page
// draft: millisecond timestamp plus a random suffix.
func timeRandomID() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + hex.EncodeToString(suffix)
}

// AddBlock instantiates a block of the given type from its template, appends
// it to the end of the sequence, selects it and opens the editing panel. The
// returned ID identifies the new block; unknown types are ignored and return
// the empty string.
func (d *Draft) AddBlock(blockType Type) string {
	content, styling, ok := TemplateFor(blockType)
	if !ok {
		return ""
	}

	id := d.newID()
	d.blocks = append(d.blocks, Block{
		ID:      id,
		Type:    blockType,
		Content: content,
		Styling: styling,
	})
	d.selectedID = id
	d.editing = true
	return id
}

// UpdateBlock merges the patch into the block with the given ID. Unknown IDs
// are a no-op, as is patch content whose shape does not match the block's
// type.
func (d *Draft) UpdateBlock(id string, patch Patch) {
	for i := range d.blocks {
		if d.blocks[i].ID != id {
			continue
		}
		if patch.Content != nil && patch.Content.BlockType() == d.blocks[i].Type {
			d.blocks[i].Content = patch.Content
		}
		if patch.Styling != nil {
			d.blocks[i].Styling = patch.Styling
		}
		return
	}
}

// DeleteBlock removes the block with the given ID, clearing the selection if
// that block was selected. Unknown IDs are a no-op.
func (d *Draft) DeleteBlock(id string) {
	for i := range d.blocks {
		if d.blocks[i].ID != id {
			continue
		}
		d.blocks = append(d.blocks[:i], d.blocks[i+1:]...)
		if d.selectedID == id {
			d.selectedID = ""
			d.editing = false
		}
		return
	}
}

// MoveBlock swaps the block with its neighbor in the given direction. Moves
// that would leave the sequence bounds are silently ignored.
func (d *Draft) MoveBlock(id string, direction Direction) {
	index := -1
	for i := range d.blocks {
		if d.blocks[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return
	}

	target := index
	switch direction {
	case MoveUp:
		target = index - 1
	case MoveDown:
		target = index + 1
	default:
		return
	}
	if target < 0 || target >= len(d.blocks) {
		return
	}

	d.blocks[index], d.blocks[target] = d.blocks[target], d.blocks[index]
}

// Select marks the block as the current selection without opening the editing
// panel. Selecting an unknown ID clears the selection.
func (d *Draft) Select(id string) {
	for i := range d.blocks {
		if d.blocks[i].ID == id {
			d.selectedID = id
			return
		}
	}
	d.selectedID = ""
	d.editing = false
}

// SelectedID returns the ID of the selected block, or the empty string.
func (d *Draft) SelectedID() string {
	return d.selectedID
}

// SetEditing opens or closes the property panel for the selected block. It is
// a no-op when nothing is selected.
func (d *Draft) SetEditing(editing bool) {
	if d.selectedID == "" {
		return
	}
	d.editing = editing
}

// Editing reports whether the property panel is open.
func (d *Draft) Editing() bool {
	return d.editing
}

// SetPreview toggles preview mode. Preview only suppresses the editing
// overlay; it never mutates the block sequence.
func (d *Draft) SetPreview(preview bool) {
	d.preview = preview
}

// Preview reports whether preview mode is active.
func (d *Draft) Preview() bool {
	return d.preview
}

// Len returns the number of blocks in the draft.
func (d *Draft) Len() int {
	return len(d.blocks)
}

// Blocks returns a copy of the current full ordered block sequence. This is
// the save handoff: persisting the sequence is the caller's responsibility.
func (d *Draft) Blocks() []Block {
	out := make([]Block, len(d.blocks))
	copy(out, d.blocks)
	return out
}
