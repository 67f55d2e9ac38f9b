package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"foodscan/internal/domain"
	"foodscan/internal/infra"
	"foodscan/internal/sqlinline"
)

// UsageRepositoryPG implements domain.UsageLedger on the api_usage table.
type UsageRepositoryPG struct {
	db infra.SQLExecutor
}

// NewUsageRepository wires the ledger to a marker-checked executor.
func NewUsageRepository(db infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{db: db}
}

// CountSince returns how many events the user logged at or after since.
func (r *UsageRepositoryPG) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var total int64
	if err := r.db.QueryRow(ctx, sqlinline.QCountUsageSince, userID, since.UTC()).Scan(&total); err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return int(total), nil
}

// Append inserts one usage event.
func (r *UsageRepositoryPG) Append(ctx context.Context, event domain.UsageEvent) error {
	event = normalizeEvent(event)
	props, err := encodeProperties(event.Properties)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sqlinline.QInsertUsageEvent, event.ID, event.UserID, event.CreatedAt, props); err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}
	return nil
}

func normalizeEvent(event domain.UsageEvent) domain.UsageEvent {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	event.CreatedAt = event.CreatedAt.UTC()
	return event
}

func encodeProperties(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("encode usage properties: %w", err)
	}
	return string(raw), nil
}

var _ domain.UsageLedger = (*UsageRepositoryPG)(nil)
