package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"foodscan/internal/domain"
	"foodscan/internal/metrics"
)

// jpegHeader is enough for content sniffing to report image/jpeg.
var jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

var testImageBase64 = base64.StdEncoding.EncodeToString(jpegHeader)

const spaghettiJSON = `{"foodName":"Spaghetti Bolognese","calories":550,"protein":25,"carbs":60,"fat":20}`

type fakeResolver struct {
	mu    sync.Mutex
	calls int
	users map[string]string
}

func (f *fakeResolver) Resolve(_ context.Context, credential string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if id, ok := f.users[credential]; ok {
		return &domain.Identity{UserID: id}, nil
	}
	return nil, errors.New("invalid JWT")
}

type memLedger struct {
	mu        sync.Mutex
	events    []domain.UsageEvent
	counts    int
	countErr  error
	appendErr error
}

func (m *memLedger) CountSince(_ context.Context, userID string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts++
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, ev := range m.events {
		if ev.UserID == userID && !ev.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memLedger) Append(_ context.Context, event domain.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memLedger) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// stubModel replays a canned answer. The default answer is the Spaghetti
// Bolognese estimate the hosted function used while the model was stubbed.
type stubModel struct {
	mu     sync.Mutex
	calls  int
	prompt string
	answer string
	err    error
	before func()
}

func (m *stubModel) Generate(_ context.Context, req domain.AnalysisRequest, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompt = prompt
	m.mu.Unlock()
	if m.before != nil {
		m.before()
	}
	if m.err != nil {
		return "", m.err
	}
	if m.answer == "" {
		return spaghettiJSON, nil
	}
	return m.answer, nil
}

func (m *stubModel) Name() string  { return "stub" }
func (m *stubModel) Model() string { return "stub-1" }

func (m *stubModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fixture struct {
	svc      *Service
	resolver *fakeResolver
	ledger   *memLedger
	model    *stubModel
	metrics  *metrics.Analysis
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		resolver: &fakeResolver{users: map[string]string{"good-token": "user-1", "other-token": "user-2"}},
		ledger:   &memLedger{},
		model:    &stubModel{},
		metrics:  metrics.New(),
		now:      time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC),
	}
	f.svc = &Service{
		Identity: f.resolver,
		Ledger:   f.ledger,
		Model:    f.model,
		Clock:    func() time.Time { return f.now },
		Logger:   zerolog.New(io.Discard),
		Metrics:  f.metrics,
	}
	return f
}

func (f *fixture) request(token string) Request {
	return Request{Credential: token, ImageBase64: testImageBase64, RequestID: "req-1", Country: "IT", Locale: "it"}
}
