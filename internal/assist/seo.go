package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/openai/openai-go/v2/shared/constant"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Writer produces SEO copy for a page from its title and body content.
type Writer interface {
	WriteSEO(ctx context.Context, title, bodyHTML string) (*SEOCopy, error)
}

// SEOCopy is the generated search-engine metadata for a page.
type SEOCopy struct {
	Title       string `json:"seoTitle"`
	Description string `json:"seoDescription"`
}

// WriterOptions configures the chat-completion-backed writer.
type WriterOptions struct {
	Client       *Client
	Model        string
	Temperature  float64
	SystemPrompt string
}

type chatWriter struct {
	client         *Client
	logger         *logrus.Logger
	model          string
	temperature    float64
	systemPrompt   string
	responseFormat openai.ChatCompletionNewParamsResponseFormatUnion
}

const (
	defaultWriterSystemPrompt = "You write concise SEO metadata for a Moroccan travel agency website. Return JSON matching the provided schema: a title under 60 characters and a description under 160 characters."
	defaultWriterTemperature  = 0.4
	maxBodyExcerptRunes       = 1500
)

// NewWriter constructs a Writer backed by chat completions.
func NewWriter(opts WriterOptions) (Writer, error) {
	if opts.Client == nil {
		return nil, eris.New("assist client is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("writer model is required")
	}

	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultWriterTemperature
	}

	systemPrompt := strings.TrimSpace(opts.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultWriterSystemPrompt
	}

	return &chatWriter{
		client:         opts.Client,
		logger:         opts.Client.logger,
		model:          model,
		temperature:    temperature,
		systemPrompt:   systemPrompt,
		responseFormat: buildSEOResponseFormat(),
	}, nil
}

func (w *chatWriter) WriteSEO(ctx context.Context, title, bodyHTML string) (*SEOCopy, error) {
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return nil, eris.New("page title is required")
	}

	excerpt := bodyExcerpt(bodyHTML)

	prompt := fmt.Sprintf("Page title: %s", trimmedTitle)
	if excerpt != "" {
		prompt += fmt.Sprintf("\nPage content: %s", excerpt)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(w.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(w.systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: w.responseFormat,
		Temperature:    openai.Float(w.temperature),
	}

	completion, err := w.client.chat.New(ctx, params)
	if err != nil {
		w.logError(logrus.Fields{"title": trimmedTitle}, err, "requesting chat completion")
		return nil, eris.Wrap(err, "requesting chat completion")
	}

	if len(completion.Choices) == 0 {
		err := eris.New("completion returned no choices")
		w.logError(logrus.Fields{"title": trimmedTitle}, err, "processing chat completion")
		return nil, err
	}

	choice := completion.Choices[0]
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := eris.Errorf("model refused to generate copy: %s", refusal)
		w.logError(logrus.Fields{"title": trimmedTitle}, err, "writer refused")
		return nil, err
	}

	copyOut, err := parseSEOCopy(choice.Message.Content)
	if err != nil {
		w.logError(logrus.Fields{"title": trimmedTitle}, err, "parsing completion response")
		return nil, err
	}

	return copyOut, nil
}

func parseSEOCopy(raw string) (*SEOCopy, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, eris.New("completion content is empty")
	}

	var copyOut SEOCopy
	if err := json.Unmarshal([]byte(trimmed), &copyOut); err != nil {
		return nil, eris.Wrap(err, "decoding completion json")
	}

	copyOut.Title = strings.TrimSpace(copyOut.Title)
	copyOut.Description = strings.TrimSpace(copyOut.Description)
	if copyOut.Title == "" || copyOut.Description == "" {
		return nil, eris.New("completion response missing seo fields")
	}

	return &copyOut, nil
}

// bodyExcerpt reduces a rendered HTML fragment to plain text, truncated to a
// bounded prompt size.
func bodyExcerpt(bodyHTML string) string {
	trimmed := strings.TrimSpace(bodyHTML)
	if trimmed == "" {
		return ""
	}

	root, err := html.Parse(strings.NewReader(trimmed))
	if err != nil {
		return ""
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	text := strings.Join(parts, " ")
	runes := []rune(text)
	if len(runes) > maxBodyExcerptRunes {
		text = string(runes[:maxBodyExcerptRunes])
	}
	return text
}

func (w *chatWriter) logError(fields logrus.Fields, err error, message string) {
	if w.logger == nil || err == nil {
		return
	}

	entry := w.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func buildSEOResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	schema := map[string]any{
		"type":     "object",
		"required": []string{"seoTitle", "seoDescription"},
		"properties": map[string]any{
			"seoTitle": map[string]any{
				"type":        "string",
				"description": "Search result title, at most 60 characters.",
			},
			"seoDescription": map[string]any{
				"type":        "string",
				"description": "Search result description, at most 160 characters.",
			},
		},
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "page_seo_copy",
				Description: openai.String("SEO metadata for a content page"),
				Strict:      openai.Bool(true),
				Schema:      schema,
			},
			Type: constant.ValueOf[constant.JSONSchema](),
		},
	}
}
