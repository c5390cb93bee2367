package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/genai"

	"alfredoptarigan/resume-matcher/internal/apperror"
)

type fakeModels struct {
	embedCalls    [][]*genai.Content
	embedErrs     []error
	generateCalls []*genai.GenerateContentConfig
	generateErrs  []error
	reply         string
}

func (f *fakeModels) EmbedContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.embedCalls = append(f.embedCalls, contents)
	if len(f.embedErrs) > 0 {
		err := f.embedErrs[0]
		f.embedErrs = f.embedErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	resp := &genai.EmbedContentResponse{}
	for i := range contents {
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: []float32{float32(len(f.embedCalls)), float32(i)}})
	}
	return resp, nil
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.generateCalls = append(f.generateCalls, config)
	if len(f.generateErrs) > 0 {
		err := f.generateErrs[0]
		f.generateErrs = f.generateErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func fastRetry() apperror.RetryPolicy {
	return apperror.RetryPolicy{MaxAttempts: 3, InitialDelay: time.Microsecond, MaxDelay: time.Microsecond}
}

func TestEmbedTextsBatches(t *testing.T) {
	models := &fakeModels{}
	g := newGeminiService(models, GeminiOptions{BatchSize: 2, Retry: fastRetry()}, nil)

	vectors, err := g.EmbedTexts(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("EmbedTexts() error: %v", err)
	}
	if len(models.embedCalls) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(models.embedCalls))
	}
	if len(vectors) != 5 {
		t.Fatalf("expected 5 vectors, got %d", len(vectors))
	}
	// fifth text is first in the third batch
	if vectors[4][0] != 3 || vectors[4][1] != 0 {
		t.Fatalf("vectors out of order: %v", vectors)
	}
}

func TestEmbedTextsRetriesTransientErrors(t *testing.T) {
	models := &fakeModels{embedErrs: []error{
		genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"},
		genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"},
	}}
	g := newGeminiService(models, GeminiOptions{Retry: fastRetry()}, nil)

	vectors, err := g.EmbedTexts(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("EmbedTexts() error: %v", err)
	}
	if len(models.embedCalls) != 3 || len(vectors) != 1 {
		t.Fatalf("expected success on third attempt, calls=%d", len(models.embedCalls))
	}
}

func TestEmbedTextsExhaustedRetriesAreExternal(t *testing.T) {
	unavailable := genai.APIError{Code: http.StatusServiceUnavailable}
	models := &fakeModels{embedErrs: []error{unavailable, unavailable, unavailable}}
	g := newGeminiService(models, GeminiOptions{Retry: fastRetry()}, nil)

	_, err := g.EmbedTexts(context.Background(), []string{"a"})
	if !apperror.Is(err, apperror.KindExternalService) {
		t.Fatalf("expected ExternalService after retries, got %v", err)
	}
	if apperror.DetailsOf(err)["attempts"] != 3 {
		t.Fatalf("attempts not reported: %v", apperror.DetailsOf(err))
	}
}

func TestGenerateJSONUsesJSONMode(t *testing.T) {
	models := &fakeModels{reply: `{"ok": true}`}
	g := newGeminiService(models, GeminiOptions{Temperature: 0.3, Retry: fastRetry()}, nil)

	out, err := g.GenerateJSON(context.Background(), "coach", "plan please")
	if err != nil {
		t.Fatalf("GenerateJSON() error: %v", err)
	}
	if out != `{"ok": true}` {
		t.Fatalf("unexpected output %q", out)
	}

	cfg := models.generateCalls[0]
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("JSON mode not requested: %q", cfg.ResponseMIMEType)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "coach" {
		t.Fatalf("system instruction missing")
	}
	if *cfg.Temperature != 0.3 {
		t.Fatalf("temperature = %v", *cfg.Temperature)
	}
}

func TestGenerateJSONDoesNotRetryBadRequest(t *testing.T) {
	models := &fakeModels{generateErrs: []error{genai.APIError{Code: http.StatusBadRequest}}}
	g := newGeminiService(models, GeminiOptions{Retry: fastRetry()}, nil)

	_, err := g.GenerateJSON(context.Background(), "", "x")
	if !apperror.Is(err, apperror.KindInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if len(models.generateCalls) != 1 {
		t.Fatalf("bad request must not be retried, calls=%d", len(models.generateCalls))
	}
}

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		err  error
		want apperror.Kind
	}{
		{genai.APIError{Code: 429}, apperror.KindRateLimited},
		{genai.APIError{Code: 500}, apperror.KindTransientConnection},
		{genai.APIError{Code: 400}, apperror.KindInvalidInput},
		{genai.APIError{Code: 403}, apperror.KindExternalService},
		{&genai.APIError{Code: 503}, apperror.KindTransientConnection},
		{errors.New("connection reset"), apperror.KindTransientConnection},
		{context.Canceled, apperror.KindInternal},
	}

	for _, tt := range tests {
		if got := apperror.KindOf(classifyGeminiError("op", tt.err)); got != tt.want {
			t.Errorf("classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
