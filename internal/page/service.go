package page

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"moroccodreams/app/internal/block"
)

// ErrPageNotFound indicates the requested page does not exist.
var ErrPageNotFound = eris.New("page not found")

// Service defines the page-manager operations built on top of the repository.
// All mutations are pessimistic: state is persisted first and only then
// reported back, the same way for every operation.
type Service interface {
	ListPages(ctx context.Context) ([]Page, error)
	GetPage(ctx context.Context, id uint) (*Page, error)
	PublishedPage(ctx context.Context, slug string) (*Page, []block.Block, error)
	CreatePage(ctx context.Context, input CreateInput) (*Page, error)
	UpdatePage(ctx context.Context, id uint, input UpdateInput) (*Page, error)
	SaveBlocks(ctx context.Context, id uint, blocks []block.Block) (*Page, error)
	ToggleStatus(ctx context.Context, id uint) (*Page, error)
	DeletePage(ctx context.Context, id uint) error
	RecentActivity(limit int) []Activity
}

type service struct {
	repo      Repository
	logger    *logrus.Logger
	sentryHub *sentry.Hub
	activity  *activityLog
}

var _ Service = (*service)(nil)

const defaultActivityCapacity = 64

// NewService wires the page service with its dependencies.
func NewService(repo Repository, logger *logrus.Logger, hub *sentry.Hub) (Service, error) {
	if repo == nil {
		return nil, eris.New("page repository is required")
	}

	return &service{
		repo:      repo,
		logger:    logger,
		sentryHub: hub,
		activity:  newActivityLog(defaultActivityCapacity),
	}, nil
}

func (s *service) ListPages(ctx context.Context) ([]Page, error) {
	pages, err := s.repo.List(ctx)
	if err != nil {
		s.recordError(nil, err, "listing pages")
		return nil, eris.Wrap(err, "listing pages")
	}
	return pages, nil
}

func (s *service) GetPage(ctx context.Context, id uint) (*Page, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.recordError(logrus.Fields{"page_id": id}, err, "fetching page")
		return nil, eris.Wrapf(err, "fetching page: %d", id)
	}
	if found == nil {
		return nil, eris.Wrapf(ErrPageNotFound, "fetching page: %d", id)
	}
	return found, nil
}

// PublishedPage returns the published page for a slug together with its
// decoded block sequence, for public rendering. Draft pages are treated as
// not found.
func (s *service) PublishedPage(ctx context.Context, slug string) (*Page, []block.Block, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, nil, eris.New("slug is required")
	}

	found, err := s.repo.GetBySlug(ctx, trimmed)
	if err != nil {
		s.recordError(logrus.Fields{"slug": trimmed}, err, "fetching page by slug")
		return nil, nil, eris.Wrapf(err, "fetching page by slug: %s", trimmed)
	}
	if found == nil || !found.IsPublished() {
		return nil, nil, eris.Wrapf(ErrPageNotFound, "published page: %s", trimmed)
	}

	blocks, err := block.DecodeList(found.Blocks)
	if err != nil {
		s.recordError(logrus.Fields{"slug": trimmed}, err, "decoding stored blocks")
		return nil, nil, eris.Wrapf(err, "decoding blocks for page: %s", trimmed)
	}

	return found, blocks, nil
}

// CreatePage validates the input and stores a new page with an empty block
// list. The slug derives from the title unless the caller supplies one, and
// SEO fields default from the title when absent.
func (s *service) CreatePage(ctx context.Context, input CreateInput) (*Page, error) {
	if result := input.validate(); !result.Valid {
		return nil, eris.Wrap(&ValidationError{Result: *result}, "creating page")
	}

	title := strings.TrimSpace(input.Title)

	slug := GenerateSlug(input.Slug)
	if slug == "" {
		slug = GenerateSlug(title)
	}

	if err := s.ensureSlugFree(ctx, slug, 0); err != nil {
		return nil, err
	}

	pageType := input.PageType
	if pageType == "" {
		pageType = TypeCustom
	}
	status := input.Status
	if status == "" {
		status = StatusDraft
	}

	seoTitle := strings.TrimSpace(input.SEOTitle)
	if seoTitle == "" {
		seoTitle = title
	}
	seoDescription := strings.TrimSpace(input.SEODescription)
	if seoDescription == "" {
		seoDescription = title
	}

	emptyBlocks, err := block.EncodeList(nil)
	if err != nil {
		return nil, eris.Wrap(err, "encoding empty block list")
	}

	created := &Page{
		Title:          title,
		Slug:           slug,
		PageType:       pageType,
		Status:         status,
		SEOTitle:       seoTitle,
		SEODescription: seoDescription,
		Blocks:         emptyBlocks,
	}

	if err := s.repo.Create(ctx, created); err != nil {
		s.recordError(logrus.Fields{"slug": slug}, err, "creating page")
		return nil, eris.Wrapf(err, "creating page: %s", slug)
	}

	s.activity.record("created", created.ID, created.Title)
	return created, nil
}

// UpdatePage applies a partial metadata update. A supplied slug is not
// re-derived from the title.
func (s *service) UpdatePage(ctx context.Context, id uint, input UpdateInput) (*Page, error) {
	if result := input.validate(); !result.Valid {
		return nil, eris.Wrapf(&ValidationError{Result: *result}, "updating page: %d", id)
	}

	existing, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		existing.Title = strings.TrimSpace(*input.Title)
	}
	if input.Slug != nil {
		slug := GenerateSlug(*input.Slug)
		if slug != existing.Slug {
			if err := s.ensureSlugFree(ctx, slug, id); err != nil {
				return nil, err
			}
			existing.Slug = slug
		}
	}
	if input.PageType != nil {
		existing.PageType = *input.PageType
	}
	if input.Status != nil {
		existing.Status = *input.Status
	}
	if input.SEOTitle != nil {
		existing.SEOTitle = strings.TrimSpace(*input.SEOTitle)
	}
	if input.SEODescription != nil {
		existing.SEODescription = strings.TrimSpace(*input.SEODescription)
	}

	if err := s.repo.Save(ctx, existing); err != nil {
		s.recordError(logrus.Fields{"page_id": id}, err, "updating page")
		return nil, eris.Wrapf(err, "updating page: %d", id)
	}

	s.activity.record("updated", existing.ID, existing.Title)
	return existing, nil
}

// SaveBlocks replaces the page's full block sequence. This is the editor's
// save handoff: the whole ordered list is persisted at once.
func (s *service) SaveBlocks(ctx context.Context, id uint, blocks []block.Block) (*Page, error) {
	existing, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}

	encoded, err := block.EncodeList(blocks)
	if err != nil {
		s.recordError(logrus.Fields{"page_id": id}, err, "encoding block list")
		return nil, eris.Wrapf(err, "encoding blocks for page: %d", id)
	}

	existing.Blocks = encoded
	if err := s.repo.Save(ctx, existing); err != nil {
		s.recordError(logrus.Fields{"page_id": id}, err, "saving page blocks")
		return nil, eris.Wrapf(err, "saving blocks for page: %d", id)
	}

	s.activity.record("blocks saved", existing.ID, existing.Title)
	return existing, nil
}

// ToggleStatus flips the page between draft and published.
func (s *service) ToggleStatus(ctx context.Context, id uint) (*Page, error) {
	existing, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.IsPublished() {
		existing.Status = StatusDraft
	} else {
		existing.Status = StatusPublished
	}

	if err := s.repo.Save(ctx, existing); err != nil {
		s.recordError(logrus.Fields{"page_id": id}, err, "toggling page status")
		return nil, eris.Wrapf(err, "toggling status for page: %d", id)
	}

	s.activity.record(string(existing.Status), existing.ID, existing.Title)
	return existing, nil
}

func (s *service) DeletePage(ctx context.Context, id uint) error {
	existing, err := s.GetPage(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.recordError(logrus.Fields{"page_id": id}, err, "deleting page")
		return eris.Wrapf(err, "deleting page: %d", id)
	}

	s.activity.record("deleted", existing.ID, existing.Title)
	return nil
}

// RecentActivity returns up to limit content events, newest first.
func (s *service) RecentActivity(limit int) []Activity {
	return s.activity.recent(limit)
}

func (s *service) ensureSlugFree(ctx context.Context, slug string, selfID uint) error {
	existing, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		s.recordError(logrus.Fields{"slug": slug}, err, "checking slug availability")
		return eris.Wrapf(err, "checking slug availability: %s", slug)
	}
	if existing != nil && existing.ID != selfID {
		result := newValidationResult()
		result.fail("slug", "slug is already in use")
		return eris.Wrapf(&ValidationError{Result: *result}, "slug taken: %s", slug)
	}
	return nil
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
