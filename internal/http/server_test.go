package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"moroccodreams/app/internal/auth"
	"moroccodreams/app/internal/block"
	"moroccodreams/app/internal/db"
	"moroccodreams/app/internal/page"
)

const testAdminKey = "test-admin-key"

type stubPageService struct {
	pages    map[uint]*page.Page
	nextID   uint
	activity []page.Activity
	listErr  error
}

var _ page.Service = (*stubPageService)(nil)

func newStubPageService() *stubPageService {
	return &stubPageService{pages: map[uint]*page.Page{}, nextID: 1}
}

func (s *stubPageService) add(p *page.Page) *page.Page {
	p.ID = s.nextID
	s.nextID++
	s.pages[p.ID] = p
	return p
}

func (s *stubPageService) ListPages(context.Context) ([]page.Page, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]page.Page, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubPageService) GetPage(_ context.Context, id uint) (*page.Page, error) {
	if p, ok := s.pages[id]; ok {
		return p, nil
	}
	return nil, eris.Wrapf(page.ErrPageNotFound, "fetching page: %d", id)
}

func (s *stubPageService) PublishedPage(_ context.Context, slug string) (*page.Page, []block.Block, error) {
	for _, p := range s.pages {
		if p.Slug == slug && p.IsPublished() {
			blocks, err := block.DecodeList(p.Blocks)
			if err != nil {
				return nil, nil, err
			}
			return p, blocks, nil
		}
	}
	return nil, nil, eris.Wrapf(page.ErrPageNotFound, "published page: %s", slug)
}

func (s *stubPageService) CreatePage(_ context.Context, input page.CreateInput) (*page.Page, error) {
	if strings.TrimSpace(input.Title) == "" {
		result := page.ValidationResult{Valid: false, Errors: map[string]string{"title": "title is required"}}
		return nil, eris.Wrap(&page.ValidationError{Result: result}, "creating page")
	}

	status := input.Status
	if status == "" {
		status = page.StatusDraft
	}
	slug := input.Slug
	if slug == "" {
		slug = page.GenerateSlug(input.Title)
	}

	created := s.add(&page.Page{
		Title:    input.Title,
		Slug:     slug,
		PageType: page.TypeCustom,
		Status:   status,
		Blocks:   "[]",
	})
	s.activity = append(s.activity, page.Activity{Action: "created", PageID: created.ID, Title: created.Title})
	return created, nil
}

func (s *stubPageService) UpdatePage(ctx context.Context, id uint, input page.UpdateInput) (*page.Page, error) {
	existing, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		existing.Title = *input.Title
	}
	if input.Slug != nil {
		existing.Slug = *input.Slug
	}
	if input.Status != nil {
		existing.Status = *input.Status
	}
	return existing, nil
}

func (s *stubPageService) SaveBlocks(ctx context.Context, id uint, blocks []block.Block) (*page.Page, error) {
	existing, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	encoded, err := block.EncodeList(blocks)
	if err != nil {
		return nil, err
	}
	existing.Blocks = encoded
	return existing, nil
}

func (s *stubPageService) ToggleStatus(ctx context.Context, id uint) (*page.Page, error) {
	existing, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsPublished() {
		existing.Status = page.StatusDraft
	} else {
		existing.Status = page.StatusPublished
	}
	return existing, nil
}

func (s *stubPageService) DeletePage(ctx context.Context, id uint) error {
	if _, err := s.GetPage(ctx, id); err != nil {
		return err
	}
	delete(s.pages, id)
	return nil
}

func (s *stubPageService) RecentActivity(limit int) []page.Activity {
	if limit > len(s.activity) {
		limit = len(s.activity)
	}
	return s.activity[:limit]
}

func newTestServer(t *testing.T, service page.Service) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	gormDB, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "server.db")})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(gormDB); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}

	srv, err := NewServer(Options{
		PageService: service,
		Tokens:      tokens,
		Database:    gormDB,
		Logger:      logger,
		AdminKey:    testAdminKey,
		RateLimiter: RateLimiterSettings{
			RequestsPerSecond: 1000,
			Burst:             1000,
			ClientTTL:         time.Minute,
		},
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}

	return srv
}

func adminToken(t *testing.T, srv *Server) string {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/admin/token", strings.NewReader(`{"key":"`+testAdminKey+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("token request failed with status %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding token response failed: %v", err)
	}
	return body.Token
}

func TestTokenRouteRejectsWrongKey(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubPageService())

	req := httptest.NewRequest("POST", "/api/admin/token", strings.NewReader(`{"key":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestListContentIsUnauthenticated(t *testing.T) {
	t.Parallel()

	service := newStubPageService()
	service.add(&page.Page{Title: "Chi Siamo", Slug: "chi-siamo", PageType: page.TypeAbout,
		Status: page.StatusDraft, Blocks: "[]"})
	srv := newTestServer(t, service)

	req := httptest.NewRequest("GET", "/api/admin/content?collection=pages", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"slug":"chi-siamo"`) {
		t.Fatalf("expected chi-siamo in list, got %s", body)
	}
	if !strings.Contains(body, `"status":"draft"`) {
		t.Fatalf("expected draft status in list, got %s", body)
	}
}

func TestListContentRejectsUnknownCollection(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubPageService())

	req := httptest.NewRequest("GET", "/api/admin/content?collection=tours", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCreateContentRequiresToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubPageService())

	payload := `{"collection":"pages","data":{"title":"Chi Siamo"}}`
	req := httptest.NewRequest("POST", "/api/admin/content", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}
}

func TestCreateContentWithToken(t *testing.T) {
	t.Parallel()

	service := newStubPageService()
	srv := newTestServer(t, service)
	token := adminToken(t, srv)

	payload := `{"collection":"pages","data":{"title":"Chi Siamo"}}`
	req := httptest.NewRequest("POST", "/api/admin/content", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"id":1`) {
		t.Fatalf("expected created id in response, got %s", rec.Body.String())
	}
	if service.pages[1].Slug != "chi-siamo" {
		t.Fatalf("expected slug auto-derived from title, got %q", service.pages[1].Slug)
	}
}

func TestCreateContentValidationFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubPageService())
	token := adminToken(t, srv)

	payload := `{"collection":"pages","data":{"title":""}}`
	req := httptest.NewRequest("POST", "/api/admin/content", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 422 {
		t.Fatalf("expected status 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "title is required") {
		t.Fatalf("expected field message in response, got %s", rec.Body.String())
	}
}

func TestUpdateContentReplacesBlocks(t *testing.T) {
	t.Parallel()

	service := newStubPageService()
	created := service.add(&page.Page{Title: "Home", Slug: "home", PageType: page.TypeHomepage,
		Status: page.StatusPublished, Blocks: "[]"})
	srv := newTestServer(t, service)
	token := adminToken(t, srv)

	payload := `{"collection":"pages","id":1,"data":{"blocks":[
		{"id":"b2","type":"text","content":{"text":"sotto","tag":"p"}},
		{"id":"b1","type":"heading","content":{"text":"Benvenuti","tag":"h2"}}
	]}}`
	req := httptest.NewRequest("PUT", "/api/admin/content", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	stored, err := block.DecodeList(created.Blocks)
	if err != nil {
		t.Fatalf("decoding stored blocks failed: %v", err)
	}
	if len(stored) != 2 || stored[0].ID != "b2" || stored[1].ID != "b1" {
		t.Fatalf("expected block order preserved on save, got %#v", stored)
	}

	body := rec.Body.String()
	textIndex := strings.Index(body, `"id":"b2"`)
	headingIndex := strings.Index(body, `"id":"b1"`)
	if textIndex < 0 || headingIndex < 0 || textIndex > headingIndex {
		t.Fatalf("expected response blocks in saved order, got %s", body)
	}
}

func TestDeleteContentClosesPage(t *testing.T) {
	t.Parallel()

	service := newStubPageService()
	service.add(&page.Page{Title: "Temp", Slug: "temp", Status: page.StatusDraft, Blocks: "[]"})
	srv := newTestServer(t, service)
	token := adminToken(t, srv)

	req := httptest.NewRequest("DELETE", "/api/admin/content?collection=pages&id=1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 200 && rec.Code != 204 {
		t.Fatalf("expected success status, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(service.pages) != 0 {
		t.Fatalf("expected page removed")
	}
}

func TestDeleteContentUnknownIDReturns404(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubPageService())
	token := adminToken(t, srv)

	req := httptest.NewRequest("DELETE", "/api/admin/content?collection=pages&id=42", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestActivityRouteRequiresToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubPageService())

	req := httptest.NewRequest("GET", "/api/admin/activity", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAssistRouteUnavailableWithoutWriter(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubPageService())
	token := adminToken(t, srv)

	req := httptest.NewRequest("POST", "/api/admin/assist/seo", strings.NewReader(`{"pageId":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 503 {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestPublicPageRendersPublishedBlocks(t *testing.T) {
	t.Parallel()

	blocks := `[
		{"id":"b2","type":"text","content":{"text":"sotto il titolo","tag":"p"}},
		{"id":"b1","type":"heading","content":{"text":"Benvenuti","tag":"h2"}}
	]`
	service := newStubPageService()
	service.add(&page.Page{Title: "Home", Slug: "home", SEOTitle: "Morocco Dreams",
		SEODescription: "Viaggi su misura in Marocco", Status: page.StatusPublished, Blocks: blocks})
	srv := newTestServer(t, service)

	req := httptest.NewRequest("GET", "/p/home", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<title>Morocco Dreams</title>") {
		t.Fatalf("expected seo title in head, got %s", body)
	}

	textIndex := strings.Index(body, "sotto il titolo")
	headingIndex := strings.Index(body, "Benvenuti")
	if textIndex < 0 || headingIndex < 0 || textIndex > headingIndex {
		t.Fatalf("expected blocks rendered in stored order, got %s", body)
	}
}

func TestPublicPageHidesDrafts(t *testing.T) {
	t.Parallel()

	service := newStubPageService()
	service.add(&page.Page{Title: "Bozza", Slug: "bozza", Status: page.StatusDraft, Blocks: "[]"})
	srv := newTestServer(t, service)

	req := httptest.NewRequest("GET", "/p/bozza", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("expected status 404 for draft page, got %d", rec.Code)
	}
}

func TestHealthRoute(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubPageService())

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("expected ok status, got %s", rec.Body.String())
	}
}
