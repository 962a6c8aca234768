package page

import "gorm.io/gorm"

// Status is the publication state of a page.
type Status string

// Page statuses.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// PageType categorises a page within the site structure.
type PageType string

// The closed set of page types.
const (
	TypeHomepage   PageType = "homepage"
	TypeCity       PageType = "city"
	TypeExperience PageType = "experience"
	TypeTravel     PageType = "travel"
	TypeAbout      PageType = "about"
	TypeContact    PageType = "contact"
	TypeCustom     PageType = "custom"
)

// Valid reports whether the page type is one of the known values.
func (t PageType) Valid() bool {
	switch t {
	case TypeHomepage, TypeCity, TypeExperience, TypeTravel, TypeAbout, TypeContact, TypeCustom:
		return true
	}
	return false
}

// Page is a persisted content page: metadata plus its ordered block sequence,
// stored as a JSON document in the Blocks column. A page owns its blocks
// exclusively; they live and die with it.
type Page struct {
	gorm.Model
	Title          string   `gorm:"size:255;not null"`
	Slug           string   `gorm:"size:255;uniqueIndex:idx_pages_slug;not null"`
	PageType       PageType `gorm:"size:32;not null;default:custom"`
	Status         Status   `gorm:"size:16;not null;default:draft"`
	SEOTitle       string   `gorm:"size:255"`
	SEODescription string   `gorm:"size:512"`
	Blocks         string   `gorm:"type:text;not null;default:'[]'"`
}

// TableName defines the table name for the Page model.
func (Page) TableName() string {
	return "pages"
}

// IsPublished reports whether the page is visible on the public site.
func (p *Page) IsPublished() bool {
	return p.Status == StatusPublished
}
