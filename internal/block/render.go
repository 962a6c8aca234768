package block

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/rotisserie/eris"
)

// Rendering maps each block deterministically to HTML: the same block always
// produces the same bytes. Styling fields are applied as inline CSS when
// present; absent fields fall back to the element defaults.

var (
	textTags    = map[string]bool{"p": true, "span": true, "div": true}
	headingTags = map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true}
)

// Component returns a templ component rendering a single block.
func Component(b Block) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return writeBlock(w, b)
	})
}

// ListComponent returns a templ component rendering an ordered block sequence
// in sequence order.
func ListComponent(blocks []Block) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, b := range blocks {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := writeBlock(w, b); err != nil {
				return err
			}
		}
		return nil
	})
}

// RenderList renders the block sequence to an HTML fragment.
func RenderList(ctx context.Context, blocks []Block) ([]byte, error) {
	var buf bytes.Buffer
	if err := ListComponent(blocks).Render(ctx, &buf); err != nil {
		return nil, eris.Wrap(err, "rendering block list")
	}
	return buf.Bytes(), nil
}

func writeBlock(w io.Writer, b Block) error {
	if b.Content == nil || b.Content.BlockType() != b.Type {
		return eris.Errorf("block %s content does not match type %s", b.ID, b.Type)
	}

	style := styleAttr(b.Styling)

	var markup string
	switch content := b.Content.(type) {
	case TextContent:
		tag := content.Tag
		if !textTags[tag] {
			tag = defaultTextTag
		}
		markup = fmt.Sprintf("<%s%s>%s</%s>", tag, style, html.EscapeString(content.Text), tag)
	case HeadingContent:
		tag := content.Tag
		if !headingTags[tag] {
			tag = defaultHeadingTag
		}
		markup = fmt.Sprintf("<%s%s>%s</%s>", tag, style, html.EscapeString(content.Text), tag)
	case ImageContent:
		img := fmt.Sprintf("<img src=%s alt=%s>", attrValue(content.Src), attrValue(content.Alt))
		if content.Caption != "" {
			markup = fmt.Sprintf("<figure%s>%s<figcaption>%s</figcaption></figure>", style, img, html.EscapeString(content.Caption))
		} else {
			markup = fmt.Sprintf("<figure%s>%s</figure>", style, img)
		}
	case ButtonContent:
		variant := content.Variant
		if variant == "" {
			variant = "primary"
		}
		markup = fmt.Sprintf("<a class=%s href=%s%s>%s</a>",
			attrValue("btn btn-"+variant),
			attrValue(content.Href),
			style,
			html.EscapeString(content.Text))
	case SpacerContent:
		height := content.Height
		if height == "" {
			height = defaultSpacerSize
		}
		markup = fmt.Sprintf("<div aria-hidden=\"true\" style=\"height:%s\"></div>", html.EscapeString(height))
	default:
		return eris.Errorf("unknown block content type %T", b.Content)
	}

	_, err := io.WriteString(w, markup)
	return err
}

// styleAttr flattens the styling bag into an inline style attribute, empty
// when no styling is set.
func styleAttr(styling *Styling) string {
	if styling == nil {
		return ""
	}

	var rules []string
	appendRule := func(property, value string) {
		if value != "" {
			rules = append(rules, property+":"+value)
		}
	}

	if styling.Colors != nil {
		appendRule("background-color", styling.Colors.Background)
		appendRule("color", styling.Colors.Text)
	}
	if styling.Typography != nil {
		appendRule("font-size", styling.Typography.FontSize)
		appendRule("font-weight", styling.Typography.FontWeight)
	}
	if styling.Spacing != nil {
		appendRule("padding", styling.Spacing.Padding)
		appendRule("margin", styling.Spacing.Margin)
	}
	if styling.Layout != nil {
		appendRule("width", styling.Layout.Width)
		appendRule("text-align", styling.Layout.Alignment)
	}

	if len(rules) == 0 {
		return ""
	}
	return " style=" + attrValue(strings.Join(rules, ";"))
}

// attrValue quotes and escapes a string for use as an HTML attribute value.
func attrValue(value string) string {
	return `"` + html.EscapeString(value) + `"`
}
