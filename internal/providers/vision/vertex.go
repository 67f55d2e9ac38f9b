package vision

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"foodscan/internal/domain"
)

const (
	vertexProviderName = "vertex"
	vertexDefaultModel = "gemini-1.5-flash"
)

type VertexOptions struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
}

// VertexModel reaches Gemini through the Vertex AI SDK using service-account
// or application-default credentials.
type VertexModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewVertexModel(ctx context.Context, opts VertexOptions) (*VertexModel, error) {
	if strings.TrimSpace(opts.ProjectID) == "" {
		return nil, fmt.Errorf("vertex: %w", ErrMissingCredentials)
	}
	location := opts.Location
	if location == "" {
		location = "us-central1"
	}
	name := strings.TrimSpace(opts.Model)
	if name == "" {
		name = vertexDefaultModel
	}
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := genai.NewClient(ctx, opts.ProjectID, location, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("vertex: create client: %w", err)
	}
	model := client.GenerativeModel(name)
	model.SetCandidateCount(1)
	model.ResponseMIMEType = "application/json"
	return &VertexModel{client: client, model: model, name: name}, nil
}

func (v *VertexModel) Name() string  { return vertexProviderName }
func (v *VertexModel) Model() string { return v.name }

func (v *VertexModel) Generate(ctx context.Context, req domain.AnalysisRequest, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeOrDefault(req.MimeType), Data: req.ImageBytes},
	)
	if err != nil {
		return "", fmt.Errorf("vertex: generate content: %w", err)
	}
	text := vertexText(resp)
	if text == "" {
		return "", fmt.Errorf("vertex: %w", ErrEmptyResponse)
	}
	return text, nil
}

// Close releases the underlying gRPC connection.
func (v *VertexModel) Close() error {
	if v == nil || v.client == nil {
		return nil
	}
	return v.client.Close()
}

func vertexText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text
		}
	}
	return ""
}

var _ domain.VisionModel = (*VertexModel)(nil)
