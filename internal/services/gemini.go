package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/logger"
)

const (
	defaultChatModel      = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
	defaultEmbedBatchSize = 100
	// per-text cap before the request; the embedding model truncates anyway
	maxEmbedChars = 40000
)

// Embedder turns texts into fixed-length vectors, one per input, in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbeddingModel() string
}

// JSONGenerator asks the chat model for a JSON document.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, systemPrompt, prompt string) (string, error)
}

type GeminiService interface {
	Embedder
	JSONGenerator
}

// modelsAPI is the subset of *genai.Models the service calls.
type modelsAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiOptions struct {
	ChatModel      string
	EmbeddingModel string
	Temperature    float32
	BatchSize      int
	Retry          apperror.RetryPolicy
}

type geminiService struct {
	models      modelsAPI
	chatModel   string
	embedModel  string
	temperature float32
	batchSize   int
	retry       apperror.RetryPolicy
	logger      *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey string, opts GeminiOptions, log *zap.Logger) (GeminiService, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiService(client.Models, opts, log), nil
}

func newGeminiService(m modelsAPI, opts GeminiOptions, log *zap.Logger) *geminiService {
	if opts.ChatModel == "" {
		opts.ChatModel = defaultChatModel
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = defaultEmbeddingModel
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultEmbedBatchSize
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = apperror.DefaultRetryPolicy()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &geminiService{
		models:      m,
		chatModel:   opts.ChatModel,
		embedModel:  opts.EmbeddingModel,
		temperature: opts.Temperature,
		batchSize:   opts.BatchSize,
		retry:       opts.Retry,
		logger:      log.Named("gemini"),
	}
}

func (g *geminiService) EmbeddingModel() string {
	return g.embedModel
}

// EmbedTexts implements Embedder. Texts are sent in batches; each batch is
// retried on transient failures on its own.
func (g *geminiService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	const op = "gemini.embed"

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			if len(text) > maxEmbedChars {
				text = text[:maxEmbedChars]
			}
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		var batch [][]float32
		err := apperror.Retry(ctx, op, g.retry, func(ctx context.Context, attempt int) error {
			if attempt > 1 {
				g.logger.Warn("⚠️ retrying embedding batch", zap.Int("attempt", attempt), zap.Int("batch_start", start))
			}

			resp, err := g.models.EmbedContent(ctx, g.embedModel, contents, nil)
			if err != nil {
				return classifyGeminiError(op, err)
			}
			if resp == nil || len(resp.Embeddings) != len(contents) {
				got := 0
				if resp != nil {
					got = len(resp.Embeddings)
				}
				return apperror.New(apperror.KindExternalService, op,
					fmt.Sprintf("expected %d embeddings, got %d", len(contents), got))
			}

			batch = make([][]float32, len(resp.Embeddings))
			for i, e := range resp.Embeddings {
				if e == nil || len(e.Values) == 0 {
					return apperror.New(apperror.KindExternalService, op, fmt.Sprintf("empty embedding at position %d", start+i))
				}
				batch[i] = e.Values
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		vectors = append(vectors, batch...)
		g.logger.Debug("embedded batch", zap.Int("batch_start", start), zap.Int("batch_size", len(batch)))
	}

	return vectors, nil
}

// GenerateJSON implements JSONGenerator using the model's JSON response mode.
func (g *geminiService) GenerateJSON(ctx context.Context, systemPrompt, prompt string) (string, error) {
	const op = "gemini.generate"

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperror.Validation(op, "prompt must not be empty")
	}

	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	var text string
	err := apperror.Retry(ctx, op, g.retry, func(ctx context.Context, attempt int) error {
		resp, err := g.models.GenerateContent(ctx, g.chatModel, genai.Text(prompt), config)
		if err != nil {
			g.logger.Warn("❌ Gemini API error", zap.Int("attempt", attempt), zap.Error(err))
			return classifyGeminiError(op, err)
		}

		text = responseText(resp)
		if text == "" {
			return apperror.New(apperror.KindExternalService, op, "gemini returned an empty response")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	g.logger.Debug("📊 Gemini response received", zap.String("response", logger.Truncate(text, 500)))
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			builder.WriteString(part.Text)
		}
		// first candidate only
		break
	}
	return strings.TrimSpace(builder.String())
}

// classifyGeminiError maps API status codes onto error kinds so the retry
// loop only repeats calls that can succeed later.
func classifyGeminiError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Internal(op, err)
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		// transport failures never reached the API
		return apperror.Transient(op, err)
	}

	switch {
	case code == http.StatusTooManyRequests:
		return apperror.Wrap(apperror.KindRateLimited, op, err)
	case code >= 500:
		return apperror.Transient(op, err)
	case code == http.StatusBadRequest:
		return apperror.Wrap(apperror.KindInvalidInput, op, err)
	default:
		return apperror.External(op, err).WithDetail("status_code", code)
	}
}
