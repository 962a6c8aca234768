package http

import (
	"context"
	"crypto/subtle"
	"fmt"
	"html"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"moroccodreams/app/internal/assist"
	"moroccodreams/app/internal/auth"
	"moroccodreams/app/internal/block"
	appdb "moroccodreams/app/internal/db"
	"moroccodreams/app/internal/page"
)

const (
	htmlContentType      = "text/html; charset=utf-8"
	collectionPages      = "pages"
	defaultActivityLimit = 20
)

// blockList carries an ordered block sequence across the API boundary. The
// content payload is a per-type variant, so the schema is declared loosely
// instead of reflected.
type blockList []block.Block

// Schema implements huma.SchemaProvider.
func (blockList) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type: huma.TypeArray,
		Items: &huma.Schema{
			Type:                 huma.TypeObject,
			Required:             []string{"id", "type", "content"},
			AdditionalProperties: true,
			Properties: map[string]*huma.Schema{
				"id":      {Type: huma.TypeString},
				"type":    {Type: huma.TypeString, Enum: []any{"text", "heading", "image", "button", "spacer"}},
				"content": {Type: huma.TypeObject, AdditionalProperties: true},
				"styling": {Type: huma.TypeObject, AdditionalProperties: true},
			},
		},
	}
}

type pageView struct {
	ID             uint          `json:"id"`
	Title          string        `json:"title"`
	Slug           string        `json:"slug"`
	PageType       page.PageType `json:"pageType"`
	Status         page.Status   `json:"status"`
	SEOTitle       string        `json:"seoTitle"`
	SEODescription string        `json:"seoDescription"`
	Blocks         blockList     `json:"blocks"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

func (s *Server) toPageView(ctx context.Context, p *page.Page) (pageView, error) {
	blocks, err := block.DecodeList(p.Blocks)
	if err != nil {
		s.recordError(ctx, err, "decoding stored blocks", logrus.Fields{"page_id": p.ID})
		return pageView{}, eris.Wrapf(err, "decoding blocks for page: %d", p.ID)
	}

	return pageView{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		PageType:       p.PageType,
		Status:         p.Status,
		SEOTitle:       p.SEOTitle,
		SEODescription: p.SEODescription,
		Blocks:         blocks,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}, nil
}

type tokenInput struct {
	Body struct {
		Key string `json:"key" doc:"Admin access key"`
	}
}

type tokenOutput struct {
	Body struct {
		Token string `json:"token"`
	}
}

type listContentInput struct {
	Collection string `query:"collection" doc:"Content collection, only 'pages' is served"`
}

type listContentOutput struct {
	Body struct {
		Items []pageView `json:"items"`
	}
}

// createContentData and updateContentData are named so huma can register a
// distinct schema for each; anonymous structs in a field named Data would
// both be named DataStruct and collide at route registration.
type createContentData struct {
	Title          string        `json:"title"`
	Slug           string        `json:"slug,omitempty"`
	PageType       page.PageType `json:"pageType,omitempty"`
	Status         page.Status   `json:"status,omitempty"`
	SEOTitle       string        `json:"seoTitle,omitempty"`
	SEODescription string        `json:"seoDescription,omitempty"`
}

type createContentInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Collection string            `json:"collection"`
		Data       createContentData `json:"data"`
	}
}

type createContentOutput struct {
	Body struct {
		ID uint `json:"id"`
	}
}

type updateContentData struct {
	Title          *string        `json:"title,omitempty"`
	Slug           *string        `json:"slug,omitempty"`
	PageType       *page.PageType `json:"pageType,omitempty"`
	Status         *page.Status   `json:"status,omitempty"`
	SEOTitle       *string        `json:"seoTitle,omitempty"`
	SEODescription *string        `json:"seoDescription,omitempty"`
	Blocks         *blockList     `json:"blocks,omitempty"`
}

type updateContentInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Collection string            `json:"collection"`
		ID         uint              `json:"id"`
		Data       updateContentData `json:"data"`
	}
}

type updateContentOutput struct {
	Body pageView
}

type deleteContentInput struct {
	Authorization string `header:"Authorization"`
	Collection    string `query:"collection"`
	ID            uint   `query:"id"`
}

type activityInput struct {
	Authorization string `header:"Authorization"`
	Limit         int    `query:"limit" doc:"Maximum number of events to return"`
}

type activityOutput struct {
	Body struct {
		Items []page.Activity `json:"items"`
	}
}

type assistSEOInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		PageID uint `json:"pageId"`
	}
}

type assistSEOOutput struct {
	Body assist.SEOCopy
}

type publicPageInput struct {
	Slug string `path:"slug"`
}

type htmlResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
}

func (s *Server) registerTokenRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "issue-token",
		Method:      stdhttp.MethodPost,
		Path:        "/api/admin/token",
		Summary:     "Exchange the admin key for a bearer token",
	}, s.tokenHandler)
}

func (s *Server) registerContentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-content",
		Method:      stdhttp.MethodGet,
		Path:        "/api/admin/content",
		Summary:     "List all pages in a collection",
	}, s.listContentHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "create-content",
		Method:      stdhttp.MethodPost,
		Path:        "/api/admin/content",
		Summary:     "Create a page",
	}, s.createContentHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-content",
		Method:      stdhttp.MethodPut,
		Path:        "/api/admin/content",
		Summary:     "Update page metadata or replace its block sequence",
	}, s.updateContentHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-content",
		Method:      stdhttp.MethodDelete,
		Path:        "/api/admin/content",
		Summary:     "Delete a page",
	}, s.deleteContentHandler)
}

func (s *Server) registerActivityRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recent-activity",
		Method:      stdhttp.MethodGet,
		Path:        "/api/admin/activity",
		Summary:     "Recent content events, newest first",
	}, s.activityHandler)
}

func (s *Server) registerAssistRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "assist-seo",
		Method:      stdhttp.MethodPost,
		Path:        "/api/admin/assist/seo",
		Summary:     "Generate SEO copy for a page",
	}, s.assistSEOHandler)
}

func (s *Server) registerPublicPageRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "public-page",
		Method:      stdhttp.MethodGet,
		Path:        "/p/{slug}",
		Summary:     "Render a published page",
	}, s.publicPageHandler)
}

func (s *Server) registerHealthRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      stdhttp.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
	}, s.healthHandler)
}

func (s *Server) tokenHandler(ctx context.Context, input *tokenInput) (*tokenOutput, error) {
	if subtle.ConstantTimeCompare([]byte(input.Body.Key), []byte(s.adminKey)) != 1 {
		return nil, huma.Error401Unauthorized("invalid admin key")
	}

	token, err := s.tokens.Issue("admin")
	if err != nil {
		s.recordError(ctx, err, "issuing admin token", nil)
		return nil, huma.Error500InternalServerError("could not issue token")
	}

	out := &tokenOutput{}
	out.Body.Token = token
	return out, nil
}

func (s *Server) listContentHandler(ctx context.Context, input *listContentInput) (*listContentOutput, error) {
	if err := requirePagesCollection(input.Collection); err != nil {
		return nil, err
	}

	pages, err := s.pages.ListPages(ctx)
	if err != nil {
		s.recordError(ctx, err, "listing pages", nil)
		return nil, huma.Error500InternalServerError("could not list pages")
	}

	out := &listContentOutput{}
	out.Body.Items = make([]pageView, 0, len(pages))
	for i := range pages {
		view, err := s.toPageView(ctx, &pages[i])
		if err != nil {
			return nil, huma.Error500InternalServerError("could not decode page blocks")
		}
		out.Body.Items = append(out.Body.Items, view)
	}

	return out, nil
}

func (s *Server) createContentHandler(ctx context.Context, input *createContentInput) (*createContentOutput, error) {
	if err := s.authorize(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := requirePagesCollection(input.Body.Collection); err != nil {
		return nil, err
	}

	created, err := s.pages.CreatePage(ctx, page.CreateInput{
		Title:          input.Body.Data.Title,
		Slug:           input.Body.Data.Slug,
		PageType:       input.Body.Data.PageType,
		Status:         input.Body.Data.Status,
		SEOTitle:       input.Body.Data.SEOTitle,
		SEODescription: input.Body.Data.SEODescription,
	})
	if err != nil {
		return nil, s.contentError(ctx, err, "creating page")
	}

	out := &createContentOutput{}
	out.Body.ID = created.ID
	return out, nil
}

func (s *Server) updateContentHandler(ctx context.Context, input *updateContentInput) (*updateContentOutput, error) {
	if err := s.authorize(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := requirePagesCollection(input.Body.Collection); err != nil {
		return nil, err
	}

	data := input.Body.Data
	updated, err := s.pages.UpdatePage(ctx, input.Body.ID, page.UpdateInput{
		Title:          data.Title,
		Slug:           data.Slug,
		PageType:       data.PageType,
		Status:         data.Status,
		SEOTitle:       data.SEOTitle,
		SEODescription: data.SEODescription,
	})
	if err != nil {
		return nil, s.contentError(ctx, err, "updating page")
	}

	if data.Blocks != nil {
		updated, err = s.pages.SaveBlocks(ctx, input.Body.ID, *data.Blocks)
		if err != nil {
			return nil, s.contentError(ctx, err, "saving page blocks")
		}
	}

	view, err := s.toPageView(ctx, updated)
	if err != nil {
		return nil, huma.Error500InternalServerError("could not decode page blocks")
	}

	return &updateContentOutput{Body: view}, nil
}

func (s *Server) deleteContentHandler(ctx context.Context, input *deleteContentInput) (*struct{}, error) {
	if err := s.authorize(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := requirePagesCollection(input.Collection); err != nil {
		return nil, err
	}

	if err := s.pages.DeletePage(ctx, input.ID); err != nil {
		return nil, s.contentError(ctx, err, "deleting page")
	}

	return &struct{}{}, nil
}

func (s *Server) activityHandler(ctx context.Context, input *activityInput) (*activityOutput, error) {
	if err := s.authorize(ctx, input.Authorization); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	out := &activityOutput{}
	out.Body.Items = s.pages.RecentActivity(limit)
	return out, nil
}

func (s *Server) assistSEOHandler(ctx context.Context, input *assistSEOInput) (*assistSEOOutput, error) {
	if err := s.authorize(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if s.seoWriter == nil {
		return nil, huma.Error503ServiceUnavailable("content assistant is not configured")
	}

	found, err := s.pages.GetPage(ctx, input.Body.PageID)
	if err != nil {
		return nil, s.contentError(ctx, err, "loading page for assist")
	}

	blocks, err := block.DecodeList(found.Blocks)
	if err != nil {
		s.recordError(ctx, err, "decoding stored blocks", logrus.Fields{"page_id": found.ID})
		return nil, huma.Error500InternalServerError("could not decode page blocks")
	}

	bodyHTML, err := block.RenderList(ctx, blocks)
	if err != nil {
		s.recordError(ctx, err, "rendering blocks for assist", logrus.Fields{"page_id": found.ID})
		return nil, huma.Error500InternalServerError("could not render page blocks")
	}

	copyOut, err := s.seoWriter.WriteSEO(ctx, found.Title, string(bodyHTML))
	if err != nil {
		s.recordError(ctx, err, "generating seo copy", logrus.Fields{"page_id": found.ID})
		return nil, huma.Error502BadGateway("seo generation failed")
	}

	return &assistSEOOutput{Body: *copyOut}, nil
}

func (s *Server) publicPageHandler(ctx context.Context, input *publicPageInput) (*htmlResponse, error) {
	slug := strings.TrimSpace(input.Slug)

	found, blocks, err := s.pages.PublishedPage(ctx, slug)
	if err != nil {
		if eris.Is(err, page.ErrPageNotFound) {
			return nil, huma.Error404NotFound("page not found")
		}
		s.recordError(ctx, err, "loading published page", logrus.Fields{"slug": slug})
		return nil, huma.Error500InternalServerError("could not load page")
	}

	body, err := block.RenderList(ctx, blocks)
	if err != nil {
		s.recordError(ctx, err, "rendering published page", logrus.Fields{"slug": slug})
		return nil, huma.Error500InternalServerError("could not render page")
	}

	document := renderDocument(found, body)

	return &htmlResponse{
		Status:      stdhttp.StatusOK,
		ContentType: htmlContentType,
		Body:        document,
	}, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"

	sqlDB, err := appdb.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

func (s *Server) authorize(ctx context.Context, header string) error {
	credential, ok := auth.FromHeader(header)
	if !ok {
		return huma.Error401Unauthorized("missing bearer token")
	}

	if _, err := s.tokens.Verify(credential); err != nil {
		s.recordError(ctx, err, "verifying bearer token", nil)
		return huma.Error401Unauthorized("invalid or expired token")
	}

	return nil
}

// contentError converts service errors into API errors: validation failures
// surface the per-field messages, missing pages map to 404, everything else
// is a 500.
func (s *Server) contentError(ctx context.Context, err error, message string) error {
	var validationErr *page.ValidationError
	if eris.As(err, &validationErr) {
		details := make([]error, 0, len(validationErr.Result.Errors))
		for field, fieldMessage := range validationErr.Result.Errors {
			details = append(details, &huma.ErrorDetail{
				Message:  fieldMessage,
				Location: "body.data." + field,
			})
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	}

	if eris.Is(err, page.ErrPageNotFound) {
		return huma.Error404NotFound("page not found")
	}

	s.recordError(ctx, err, message, nil)
	return huma.Error500InternalServerError("the operation could not be completed")
}

func requirePagesCollection(collection string) error {
	if collection != collectionPages {
		return huma.Error400BadRequest(fmt.Sprintf("unknown collection: %s", collection))
	}
	return nil
}

// renderDocument wraps a rendered block fragment in a minimal HTML shell with
// the page's SEO metadata.
func renderDocument(p *page.Page, body []byte) []byte {
	title := p.SEOTitle
	if title == "" {
		title = p.Title
	}

	var b strings.Builder
	b.WriteString("<!doctype html><html lang=\"it\"><head><meta charset=\"utf-8\">")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>")
	if p.SEODescription != "" {
		b.WriteString("<meta name=\"description\" content=\"" + html.EscapeString(p.SEODescription) + "\">")
	}
	b.WriteString("</head><body><main>")
	b.Write(body)
	b.WriteString("</main></body></html>")
	return []byte(b.String())
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
