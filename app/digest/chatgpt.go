// Package digest summarizes and categorizes aggregated articles.
package digest

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"text/template"

	"github.com/brewfeed/brewfeed/app/store"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/exp/slog"
)

//go:embed data/prompt.tmpl
var prompt string

var promptTmpl = template.Must(template.New("prompt").Parse(prompt))

// Categories are the fixed themes articles are sorted into, in
// newsletter order. Category numbers in model responses are 1-based
// indexes into this list.
var Categories = []string{
	"Top News",
	"Market & Origin",
	"Retail & Business",
	"Roasting & Science",
	"Tech & Gear",
	"Sustainability",
	"Events & Culture",
}

//go:generate moq -out mock_openai_client.go . OpenAIClient
// OpenAIClient is interface for OpenAI client with the possibility to mock it
type OpenAIClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatGPT is a client to make requests to OpenAI chatgpt service.
type ChatGPT struct {
	log       *slog.Logger
	cl        OpenAIClient
	maxTokens int
	cache     cache.Cache[string, Review]
}

// Review is a model verdict on a single article.
type Review struct {
	Category string
	Summary  string
}

// NewChatGPT creates new ChatGPT client.
func NewChatGPT(lg *slog.Logger, cl *http.Client, token string, maxTokens int) *ChatGPT {
	config := openai.DefaultConfig(token)
	config.HTTPClient = cl

	return &ChatGPT{
		log:       lg,
		cl:        openai.NewClientWithConfig(config),
		maxTokens: maxTokens,
		cache: cache.NewCache[string, Review]().
			WithLRU().
			WithMaxKeys(200),
	}
}

// maxContentChars caps the article body sent to the model, to keep
// requests within the token budget.
const maxContentChars = 3000

// Review summarizes the article and assigns it one of the fixed
// categories. Responses are cached by article link.
func (s *ChatGPT) Review(ctx context.Context, article store.Article) (Review, error) {
	if rev, ok := s.cache.Get(article.Link); ok {
		return rev, nil
	}

	if len(article.Content) > maxContentChars {
		article.Content = article.Content[:maxContentChars] + "..."
	}

	buf := &strings.Builder{}
	if err := promptTmpl.Execute(buf, article); err != nil {
		return Review{}, fmt.Errorf("build request: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       openai.GPT3Dot5Turbo,
		MaxTokens:   s.maxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buf.String()},
		},
	}

	resp, err := s.cl.CreateChatCompletion(ctx, req)
	if err != nil {
		return Review{}, fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Review{}, fmt.Errorf("no choices in response")
	}

	rev := s.parse(ctx, resp.Choices[0].Message.Content)
	s.cache.Set(article.Link, rev, 0)
	return rev, nil
}

// parse splits the model response into a category line and a summary.
// Unparseable responses degrade to the first category, never fail.
func (s *ChatGPT) parse(ctx context.Context, text string) Review {
	lines := strings.SplitN(strings.TrimSpace(text), "\n", 2)

	rev := Review{Category: Categories[0], Summary: "summary unavailable"}

	num, err := strconv.Atoi(strings.TrimSpace(strings.Trim(lines[0], "().")))
	if err != nil || num < 1 || num > len(Categories) {
		s.log.WarnCtx(ctx, "failed to parse category", slog.String("line", lines[0]))
	} else {
		rev.Category = Categories[num-1]
	}

	if len(lines) == 2 && strings.TrimSpace(lines[1]) != "" {
		rev.Summary = strings.TrimSpace(lines[1])
	}

	return rev
}
