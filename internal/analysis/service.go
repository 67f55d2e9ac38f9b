// Package analysis runs the food-photo analysis pipeline:
// received, authenticated, quota checked, model invoked, parsed, logged, responded.
package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"foodscan/internal/domain"
	"foodscan/internal/metrics"
)

const (
	DefaultLimit  = 5
	DefaultWindow = 24 * time.Hour
)

var (
	ErrNoImage      = errors.New("no image data provided")
	ErrInvalidImage = errors.New("image is not valid base64")
	errNoCredential = errors.New("missing credential")
)

// Request is one analysis call as seen by the pipeline.
type Request struct {
	Credential  string
	ImageBase64 string
	RequestID   string
	Country     string
	Locale      string
}

// Result is a successful analysis plus the caller's quota after it.
type Result struct {
	Estimate  *domain.NutritionEstimate
	Limit     int
	Remaining int
}

// Service wires the pipeline collaborators. Limit and Window default to
// DefaultLimit and DefaultWindow when zero.
//
// The quota check is count-then-insert and is not atomic: concurrent requests
// from the same user can each observe the same count, so the ledger may end
// up holding up to (in-flight requests - 1) events above the limit.
type Service struct {
	Identity domain.IdentityResolver
	Ledger   domain.UsageLedger
	Model    domain.VisionModel
	Limit    int
	Window   time.Duration
	Clock    func() time.Time
	Logger   zerolog.Logger
	Metrics  *metrics.Analysis
}

func (s *Service) limit() int {
	if s.Limit > 0 {
		return s.Limit
	}
	return DefaultLimit
}

func (s *Service) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultWindow
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Analyze runs one request through the pipeline. Every failure is a
// *domain.AnalysisError whose kind is one of the domain sentinels.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	log := s.Logger.With().Str("request_id", req.RequestID).Logger()

	// RECEIVED
	image, err := DecodeImage(req.ImageBase64)
	if err != nil {
		return nil, s.fail(log, domain.Fail(domain.StageReceived, domain.ErrBadRequest, err))
	}

	// AUTHENTICATED
	if strings.TrimSpace(req.Credential) == "" {
		return nil, s.fail(log, domain.Fail(domain.StageAuthenticated, domain.ErrUnauthenticated, errNoCredential))
	}
	identity, err := s.Identity.Resolve(ctx, req.Credential)
	if err != nil {
		return nil, s.fail(log, domain.Fail(domain.StageAuthenticated, domain.ErrUnauthenticated, err))
	}
	if identity == nil || identity.UserID == "" {
		return nil, s.fail(log, domain.Fail(domain.StageAuthenticated, domain.ErrUnauthenticated, errNoCredential))
	}
	userID := identity.UserID
	log = log.With().Str("user_id", userID).Logger()

	// QUOTA_CHECKED
	limit := s.limit()
	now := s.now()
	used, err := s.Ledger.CountSince(ctx, userID, now.Add(-s.window()))
	if err != nil {
		return nil, s.fail(log, domain.Fail(domain.StageQuotaChecked, domain.ErrUpstreamUnavailable, err))
	}
	if used >= limit {
		return nil, s.fail(log, domain.Fail(domain.StageQuotaChecked, domain.ErrRateLimited, nil))
	}

	// MODEL_INVOKED
	start := time.Now()
	raw, err := s.Model.Generate(ctx, image, Prompt)
	took := time.Since(start)
	s.Metrics.ObserveModel(s.Model.Name(), took, err)
	if err != nil {
		return nil, s.fail(log, domain.Fail(domain.StageModelInvoked, domain.ErrUpstreamUnavailable, err))
	}

	// PARSED
	estimate, err := ParseEstimate(raw)
	if err != nil {
		log.Debug().Str("raw", truncate(raw, 512)).Msg("unparseable model output")
		return nil, s.fail(log, domain.Fail(domain.StageParsed, domain.ErrMalformedModelOutput, err))
	}

	// LOGGED
	event := domain.UsageEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now(),
		Properties: map[string]any{
			"request_id": req.RequestID,
			"provider":   s.Model.Name(),
			"model":      s.Model.Model(),
			"latency_ms": took.Milliseconds(),
			"country":    req.Country,
			"locale":     req.Locale,
		},
	}
	if err := s.Ledger.Append(ctx, event); err != nil {
		s.Metrics.UsageLogFailed()
		log.Error().Err(err).Str("stage", string(domain.StageLogged)).Msg("usage event not recorded")
	}

	// RESPONDED
	s.Metrics.ObserveOutcome(metrics.OutcomeSuccess)
	log.Info().
		Str("food", estimate.FoodName).
		Dur("model_latency", took).
		Int("used", used+1).
		Msg("analysis completed")

	remaining := limit - used - 1
	if remaining < 0 {
		remaining = 0
	}
	return &Result{Estimate: estimate, Limit: limit, Remaining: remaining}, nil
}

func (s *Service) fail(log zerolog.Logger, err *domain.AnalysisError) error {
	s.Metrics.ObserveOutcome(Outcome(err))
	ev := log.Warn()
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		ev = log.Error()
	}
	ev.Err(err).Str("stage", string(err.Stage)).Msg("analysis failed")
	return err
}

// Outcome maps an analysis error to its metrics label.
func Outcome(err error) string {
	switch domain.KindOf(err) {
	case nil:
		if err == nil {
			return metrics.OutcomeSuccess
		}
		return metrics.OutcomeInternal
	case domain.ErrBadRequest:
		return metrics.OutcomeBadRequest
	case domain.ErrUnauthenticated:
		return metrics.OutcomeUnauthenticated
	case domain.ErrRateLimited:
		return metrics.OutcomeRateLimited
	case domain.ErrUpstreamUnavailable:
		return metrics.OutcomeUpstreamUnavailable
	case domain.ErrMalformedModelOutput:
		return metrics.OutcomeMalformedOutput
	default:
		return metrics.OutcomeInternal
	}
}

// DecodeImage turns the submitted base64 payload into raw bytes. An optional
// data URI prefix is stripped. The MIME type is sniffed and falls back to
// image/jpeg.
func DecodeImage(payload string) (domain.AnalysisRequest, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}
	}
	if payload == "" {
		return domain.AnalysisRequest{}, ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return domain.AnalysisRequest{}, ErrInvalidImage
		}
	}
	if len(data) == 0 {
		return domain.AnalysisRequest{}, ErrNoImage
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return domain.AnalysisRequest{ImageBytes: data, MimeType: mime}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
