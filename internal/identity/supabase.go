package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"foodscan/internal/domain"
)

// SupabaseResolver asks the hosted auth service who owns the token.
type SupabaseResolver struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewSupabaseResolver builds a resolver for the project at baseURL.
func NewSupabaseResolver(baseURL, anonKey string, client *http.Client) *SupabaseResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SupabaseResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: client,
	}
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r *SupabaseResolver) Resolve(ctx context.Context, credential string) (*domain.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrInvalidCredential
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("apikey", r.anonKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("auth lookup: read body: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidCredential
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("auth lookup: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var user supabaseUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("auth lookup: decode: %w", err)
	}
	if user.ID == "" {
		return nil, ErrInvalidCredential
	}
	return &domain.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

var _ domain.IdentityResolver = (*SupabaseResolver)(nil)
