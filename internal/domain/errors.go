package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest           = errors.New("bad request")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrRateLimited          = errors.New("rate limited")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrMalformedModelOutput = errors.New("malformed model output")
)

// Stage names the pipeline step a request was in when it stopped.
type Stage string

const (
	StageReceived      Stage = "received"
	StageAuthenticated Stage = "authenticated"
	StageQuotaChecked  Stage = "quota_checked"
	StageModelInvoked  Stage = "model_invoked"
	StageParsed        Stage = "parsed"
	StageLogged        Stage = "logged"
	StageResponded     Stage = "responded"
)

// AnalysisError is the terminal failure of an analysis request. It unwraps to
// both its kind (one of the sentinels above) and the underlying cause.
type AnalysisError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Fail builds an AnalysisError.
func Fail(stage Stage, kind error, cause error) *AnalysisError {
	return &AnalysisError{Stage: stage, Kind: kind, Err: cause}
}

// KindOf returns the sentinel kind carried by err, or nil when err is not an
// analysis failure.
func KindOf(err error) error {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	for _, kind := range []error{ErrBadRequest, ErrUnauthenticated, ErrRateLimited, ErrUpstreamUnavailable, ErrMalformedModelOutput} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
