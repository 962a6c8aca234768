package block

// Templates supply the default content and minimal styling a freshly added
// block starts out with. Lookup only, used at add time; the returned values
// are copies so drafts never share state through the registry.

const (
	defaultTextTag    = "p"
	defaultHeadingTag = "h2"
	defaultSpacerSize = "40px"
)

// TemplateFor returns the default content and styling for the given block
// type. The second return value is false for unknown types.
func TemplateFor(blockType Type) (Content, *Styling, bool) {
	switch blockType {
	case TypeText:
		return TextContent{Text: "Nuovo paragrafo di testo", Tag: defaultTextTag}, nil, true
	case TypeHeading:
		return HeadingContent{Text: "Nuovo titolo", Tag: defaultHeadingTag},
			&Styling{Typography: &Typography{FontWeight: "bold"}}, true
	case TypeImage:
		return ImageContent{Src: "", Alt: "", Caption: ""},
			&Styling{Layout: &Layout{Width: "100%"}}, true
	case TypeButton:
		return ButtonContent{Text: "Scopri di più", Href: "#", Variant: "primary"}, nil, true
	case TypeSpacer:
		return SpacerContent{Height: defaultSpacerSize}, nil, true
	}
	return nil, nil, false
}
