package editorial_service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/metrics"
)

const systemPrompt = "You write clear editorials for competitive programming problems in Markdown."

// EditorialService generates editorials with a chat completion model. Gemini
// is reached through its openai compatible endpoint.
type EditorialService struct {
	ApiKey     string
	Model      string
	BaseUrl    string
	HttpClient *http.Client

	client *openai.Client
	logger *logrus.Entry
}

func (e *EditorialService) Start() {
	e.logger = logrus.WithFields(logrus.Fields{
		"from": "editorial_service",
	})

	if e.Model == "" {
		panic("editorial service expects a non-empty model")
	}

	if e.ApiKey == "" {
		e.logger.Warn("generative api key is not configured, fallback editorials will be used")
		return
	}

	cfg := openai.DefaultConfig(e.ApiKey)
	if e.BaseUrl != "" {
		cfg.BaseURL = strings.TrimRight(e.BaseUrl, "/")
	}
	if e.HttpClient != nil {
		cfg.HTTPClient = e.HttpClient
	}
	e.client = openai.NewClientWithConfig(cfg)

	e.logger.Infof("editorial service started with model %v", e.Model)
}

// Generate returns a markdown editorial. ok is false when no key is
// configured, the call fails or the model answers with blank text.
func (e *EditorialService) Generate(
	ctx context.Context,
	statement string,
	title string,
	rating int32,
) (editorial string, ok bool) {
	if e.client == nil {
		return "", false
	}

	logger := e.logger.WithField("title", title)

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(statement, title, rating)},
		},
	})
	metrics.ObserveUpstream("generative", start, err)
	if err != nil {
		logger.Errorf("editorial generation failed, %v", err)
		return "", false
	}

	if len(resp.Choices) == 0 {
		logger.Warn("generative backend returned no choices")
		return "", false
	}

	editorial = strings.TrimSpace(resp.Choices[0].Message.Content)
	if editorial == "" {
		logger.Warn("generative backend returned an empty editorial")
		return "", false
	}

	logger.Info("generated editorial")
	return editorial, true
}
