// Package vision adapts multimodal model APIs to domain.VisionModel.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"foodscan/internal/domain"
	"foodscan/internal/infra"
)

var (
	// ErrEmptyResponse is returned when the model answered without any text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrMissingCredentials is returned by constructors when the provider key is absent.
	ErrMissingCredentials = errors.New("model credentials are required")
)

// StatusError carries a non-2xx answer from a model API.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Body)
}

// New builds the model selected by cfg.VisionProvider. The returned closer
// releases SDK clients and is never nil.
func New(ctx context.Context, cfg *infra.Config) (domain.VisionModel, func() error, error) {
	noop := func() error { return nil }
	httpClient := &http.Client{Timeout: cfg.ModelTimeout}

	switch cfg.VisionProvider {
	case infra.ProviderGemini:
		m, err := NewGeminiModel(GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, noop, err
		}
		return m, noop, nil
	case infra.ProviderOpenAI:
		m, err := NewOpenAIModel(OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, noop, err
		}
		return m, noop, nil
	case infra.ProviderVertex:
		m, err := NewVertexModel(ctx, VertexOptions{
			ProjectID:       cfg.VertexProjectID,
			Location:        cfg.VertexLocation,
			Model:           cfg.VertexModel,
			CredentialsFile: cfg.VertexCredentialsFile,
		})
		if err != nil {
			return nil, noop, err
		}
		return m, m.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown vision provider %q", cfg.VisionProvider)
	}
}

func dataURL(req domain.AnalysisRequest) string {
	return "data:" + mimeOrDefault(req.MimeType) + ";base64," + base64.StdEncoding.EncodeToString(req.ImageBytes)
}

func mimeOrDefault(mime string) string {
	mime = strings.TrimSpace(mime)
	if mime == "" {
		return "image/jpeg"
	}
	return mime
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
