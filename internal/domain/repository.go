package domain

import (
	"context"
	"time"
)

// UsageLedger is the append-only store of usage events.
type UsageLedger interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	Append(ctx context.Context, event UsageEvent) error
}

// IdentityResolver maps a bearer credential to a caller identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
}

// VisionModel sends one image and one instruction to a multimodal model and
// returns its raw text answer.
type VisionModel interface {
	Generate(ctx context.Context, req AnalysisRequest, prompt string) (string, error)
	Name() string
	Model() string
}
