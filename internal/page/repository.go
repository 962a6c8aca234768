package page

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repository defines persistence operations for pages.
type Repository interface {
	List(ctx context.Context) ([]Page, error)
	GetByID(ctx context.Context, id uint) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	Create(ctx context.Context, page *Page) error
	Save(ctx context.Context, page *Page) error
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context, status Status) (int64, error)
}

// GormRepository persists pages using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// List returns every page, most recently updated first.
func (r *GormRepository) List(ctx context.Context) ([]Page, error) {
	var pages []Page

	if err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&pages).Error; err != nil {
		r.logError(nil, err, "listing pages")
		return nil, eris.Wrap(err, "listing pages")
	}

	return pages, nil
}

// GetByID returns the page with the given ID, or nil when not found.
func (r *GormRepository) GetByID(ctx context.Context, id uint) (*Page, error) {
	var page Page
	err := r.db.WithContext(ctx).First(&page, id).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"page_id": id}, err, "fetching page by id")
		return nil, eris.Wrapf(err, "fetching page by id: %d", id)
	}

	return &page, nil
}

// GetBySlug returns the page for the provided slug, or nil when not found.
func (r *GormRepository) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	var page Page
	err := r.db.WithContext(ctx).First(&page, "slug = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"slug": trimmed}, err, "fetching page by slug")
		return nil, eris.Wrapf(err, "fetching page by slug: %s", trimmed)
	}

	return &page, nil
}

// Create inserts a new page row. The store assigns the ID and timestamps.
func (r *GormRepository) Create(ctx context.Context, page *Page) error {
	if page == nil {
		return eris.New("page is nil")
	}

	if err := r.db.WithContext(ctx).Create(page).Error; err != nil {
		r.logError(logrus.Fields{"slug": page.Slug}, err, "creating page")
		return eris.Wrapf(err, "creating page: %s", page.Slug)
	}

	return nil
}

// Save persists the full page row, updating the updated_at timestamp.
func (r *GormRepository) Save(ctx context.Context, page *Page) error {
	if page == nil {
		return eris.New("page is nil")
	}
	if page.ID == 0 {
		return eris.New("page id is required")
	}

	if err := r.db.WithContext(ctx).Save(page).Error; err != nil {
		r.logError(logrus.Fields{"page_id": page.ID}, err, "saving page")
		return eris.Wrapf(err, "saving page: %d", page.ID)
	}

	return nil
}

// Delete removes the page row with the given ID.
func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return eris.New("page id is required")
	}

	if err := r.db.WithContext(ctx).Delete(&Page{}, id).Error; err != nil {
		r.logError(logrus.Fields{"page_id": id}, err, "deleting page")
		return eris.Wrapf(err, "deleting page: %d", id)
	}

	return nil
}

// CountByStatus returns the number of pages with the given status.
func (r *GormRepository) CountByStatus(ctx context.Context, status Status) (int64, error) {
	var count int64

	query := r.db.WithContext(ctx).Model(&Page{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		r.logError(logrus.Fields{"status": status}, err, "counting pages")
		return 0, eris.Wrap(err, "counting pages")
	}

	return count, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
