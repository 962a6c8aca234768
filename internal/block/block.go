package block

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Type identifies the kind of content a block carries.
type Type string

// The closed set of block types understood by the editor and renderer.
const (
	TypeText    Type = "text"
	TypeHeading Type = "heading"
	TypeImage   Type = "image"
	TypeButton  Type = "button"
	TypeSpacer  Type = "spacer"
)

// Types lists every supported block type in registry order.
func Types() []Type {
	return []Type{TypeText, TypeHeading, TypeImage, TypeButton, TypeSpacer}
}

// Valid reports whether the type belongs to the closed enumeration.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeHeading, TypeImage, TypeButton, TypeSpacer:
		return true
	}
	return false
}

// Content is the variant payload of a block. Exactly one concrete content
// struct exists per block type, so a block's payload shape always matches its
// type.
type Content interface {
	BlockType() Type
}

// TextContent is the payload for text blocks.
type TextContent struct {
	Text string `json:"text"`
	Tag  string `json:"tag"` // p, span or div
}

// HeadingContent is the payload for heading blocks.
type HeadingContent struct {
	Text string `json:"text"`
	Tag  string `json:"tag"` // h1 through h4
}

// ImageContent is the payload for image blocks.
type ImageContent struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

// ButtonContent is the payload for button blocks.
type ButtonContent struct {
	Text    string `json:"text"`
	Href    string `json:"href"`
	Variant string `json:"variant"`
}

// SpacerContent is the payload for spacer blocks. Height is a CSS length.
type SpacerContent struct {
	Height string `json:"height"`
}

// BlockType implements Content.
func (TextContent) BlockType() Type { return TypeText }

// BlockType implements Content.
func (HeadingContent) BlockType() Type { return TypeHeading }

// BlockType implements Content.
func (ImageContent) BlockType() Type { return TypeImage }

// BlockType implements Content.
func (ButtonContent) BlockType() Type { return TypeButton }

// BlockType implements Content.
func (SpacerContent) BlockType() Type { return TypeSpacer }

// Colors groups the color styling fields.
type Colors struct {
	Background string `json:"background,omitempty"`
	Text       string `json:"text,omitempty"`
	Accent     string `json:"accent,omitempty"`
}

// Typography groups font styling fields.
type Typography struct {
	FontSize   string `json:"fontSize,omitempty"`
	FontWeight string `json:"fontWeight,omitempty"`
}

// Spacing groups box spacing fields.
type Spacing struct {
	Padding string `json:"padding,omitempty"`
	Margin  string `json:"margin,omitempty"`
}

// Layout groups sizing and alignment fields.
type Layout struct {
	Width     string `json:"width,omitempty"`
	Alignment string `json:"alignment,omitempty"`
}

// Styling is an optional bag of presentational properties. Absent fields mean
// "use the rendering default".
type Styling struct {
	Colors     *Colors     `json:"colors,omitempty"`
	Typography *Typography `json:"typography,omitempty"`
	Spacing    *Spacing    `json:"spacing,omitempty"`
	Layout     *Layout     `json:"layout,omitempty"`
}

// Block is one atomic content unit within a page body.
type Block struct {
	ID      string
	Type    Type
	Content Content
	Styling *Styling
}

type blockEnvelope struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	Content json.RawMessage `json:"content"`
	Styling *Styling        `json:"styling,omitempty"`
}

// MarshalJSON encodes the block with its content payload inlined under the
// "content" key.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.Content == nil {
		return nil, eris.Errorf("block %s has no content", b.ID)
	}
	if b.Content.BlockType() != b.Type {
		return nil, eris.Errorf("block %s content shape %s does not match type %s", b.ID, b.Content.BlockType(), b.Type)
	}

	content, err := json.Marshal(b.Content)
	if err != nil {
		return nil, eris.Wrapf(err, "encoding content for block %s", b.ID)
	}

	return json.Marshal(blockEnvelope{
		ID:      b.ID,
		Type:    b.Type,
		Content: content,
		Styling: b.Styling,
	})
}

// UnmarshalJSON decodes the block, selecting the content variant from the
// declared type.
func (b *Block) UnmarshalJSON(data []byte) error {
	var envelope blockEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return eris.Wrap(err, "decoding block envelope")
	}

	content, err := decodeContent(envelope.Type, envelope.Content)
	if err != nil {
		return err
	}

	b.ID = envelope.ID
	b.Type = envelope.Type
	b.Content = content
	b.Styling = envelope.Styling
	return nil
}

func decodeContent(blockType Type, raw json.RawMessage) (Content, error) {
	if !blockType.Valid() {
		return nil, eris.Errorf("unknown block type: %s", blockType)
	}

	decode := func(target Content) (Content, error) {
		if len(raw) == 0 {
			return nil, eris.Errorf("block content is missing for type %s", blockType)
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, eris.Wrapf(err, "decoding %s content", blockType)
		}
		return target, nil
	}

	switch blockType {
	case TypeText:
		content, err := decode(&TextContent{})
		if err != nil {
			return nil, err
		}
		return *content.(*TextContent), nil
	case TypeHeading:
		content, err := decode(&HeadingContent{})
		if err != nil {
			return nil, err
		}
		return *content.(*HeadingContent), nil
	case TypeImage:
		content, err := decode(&ImageContent{})
		if err != nil {
			return nil, err
		}
		return *content.(*ImageContent), nil
	case TypeButton:
		content, err := decode(&ButtonContent{})
		if err != nil {
			return nil, err
		}
		return *content.(*ButtonContent), nil
	case TypeSpacer:
		content, err := decode(&SpacerContent{})
		if err != nil {
			return nil, err
		}
		return *content.(*SpacerContent), nil
	}

	return nil, eris.Errorf("unknown block type: %s", blockType)
}

// EncodeList serialises an ordered block sequence for storage. A nil slice
// encodes as an empty list so stored pages always carry a blocks array.
func EncodeList(blocks []Block) (string, error) {
	if blocks == nil {
		blocks = []Block{}
	}

	data, err := json.Marshal(blocks)
	if err != nil {
		return "", eris.Wrap(err, "encoding block list")
	}
	return string(data), nil
}

// DecodeList restores an ordered block sequence from storage. Empty input
// yields an empty list.
func DecodeList(data string) ([]Block, error) {
	if data == "" {
		return []Block{}, nil
	}

	var blocks []Block
	if err := json.Unmarshal([]byte(data), &blocks); err != nil {
		return nil, eris.Wrap(err, "decoding block list")
	}
	if blocks == nil {
		blocks = []Block{}
	}
	return blocks, nil
}
