package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"foodscan/internal/analysis"
	"foodscan/internal/domain"
	"foodscan/internal/i18n"
	"foodscan/internal/identity"
	"foodscan/internal/metrics"
	"foodscan/internal/middleware"
)

const defaultMaxImageBytes = 10 << 20

type analyzeRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// AnalyzeFood handles POST /v1/analyze-food.
func (a *App) AnalyzeFood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locale := middleware.LocaleFromContext(ctx)

	maxImage := a.MaxImageBytes
	if maxImage <= 0 {
		maxImage = defaultMaxImageBytes
	}
	// base64 inflates by 4/3; leave room for the JSON envelope and a data URI prefix
	r.Body = http.MaxBytesReader(w, r.Body, int64(base64.StdEncoding.EncodedLen(int(maxImage)))+4096)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		key := i18n.MsgInvalidPayload
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			key = i18n.MsgImageTooLarge
		}
		a.Metrics.ObserveOutcome(metrics.OutcomeBadRequest)
		a.Logger.Warn().Err(err).Str("request_id", middleware.RequestIDFromContext(ctx)).Msg("rejected analyze payload")
		a.error(w, http.StatusBadRequest, i18n.T(locale, key))
		return
	}
	if int64(base64.StdEncoding.DecodedLen(len(req.ImageBase64))) > maxImage+64 {
		a.Metrics.ObserveOutcome(metrics.OutcomeBadRequest)
		a.error(w, http.StatusBadRequest, i18n.T(locale, i18n.MsgImageTooLarge))
		return
	}

	res, err := a.Analyzer.Analyze(ctx, analysis.Request{
		Credential:  identity.BearerToken(r.Header.Get("Authorization")),
		ImageBase64: req.ImageBase64,
		RequestID:   middleware.RequestIDFromContext(ctx),
		Country:     middleware.CountryFromContext(ctx),
		Locale:      locale,
	})
	if err != nil {
		status, key := errorResponse(err)
		if status == http.StatusTooManyRequests {
			w.Header().Set("X-RateLimit-Remaining", "0")
		}
		a.error(w, status, i18n.T(locale, key))
		return
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	a.json(w, http.StatusOK, res.Estimate)
}

// errorResponse maps a pipeline failure to its status code and message.
// Only the rate limit has its own status; everything else is a 400.
func errorResponse(err error) (int, i18n.Key) {
	switch domain.KindOf(err) {
	case domain.ErrRateLimited:
		return http.StatusTooManyRequests, i18n.MsgRateLimited
	case domain.ErrBadRequest:
		if errors.Is(err, analysis.ErrInvalidImage) {
			return http.StatusBadRequest, i18n.MsgInvalidImage
		}
		return http.StatusBadRequest, i18n.MsgNoImage
	case domain.ErrUnauthenticated:
		return http.StatusBadRequest, i18n.MsgUnauthenticated
	case domain.ErrUpstreamUnavailable:
		return http.StatusBadRequest, i18n.MsgUpstream
	case domain.ErrMalformedModelOutput:
		return http.StatusBadRequest, i18n.MsgMalformed
	default:
		return http.StatusBadRequest, i18n.MsgInternal
	}
}
