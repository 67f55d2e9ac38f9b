package scanclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"foodscan/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

var testPhoto = &Photo{Name: "lunch.jpg", MimeType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}}

func TestSelectPhoto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lunch.jpg")
	data := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := SelectPhoto(path)
	if err != nil {
		t.Fatalf("SelectPhoto: %v", err)
	}
	if p.Name != "lunch.jpg" || p.MimeType != "image/jpeg" {
		t.Fatalf("unexpected photo %+v", p)
	}
	if !strings.HasPrefix(p.Preview(), "data:image/jpeg;base64,") {
		t.Fatalf("preview = %q", p.Preview())
	}
	if strings.Contains(p.Base64(), ",") || strings.HasPrefix(p.Base64(), "data:") {
		t.Fatalf("base64 still carries the prefix: %q", p.Base64())
	}

	if _, err := SelectPhoto(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSubmitSuccess(t *testing.T) {
	var calls int
	var sent map[string]string
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if r.Header.Get("Authorization") != "Bearer tok" || r.Header.Get("apikey") != "anon" {
			t.Fatalf("missing session headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return response(http.StatusOK, `{"foodName":"Spaghetti Bolognese","calories":550,"protein":25,"carbs":60,"fat":20}`), nil
	})}

	c := New("https://example.test/functions/v1/analyze-food", Session{Token: "tok", APIKey: "anon"}, hc)
	est, err := c.Submit(context.Background(), testPhoto)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if est.FoodName != "Spaghetti Bolognese" || est.Fat != 20 {
		t.Fatalf("estimate = %+v", est)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
	if sent["imageBase64"] != testPhoto.Base64() {
		t.Fatalf("imageBase64 = %q", sent["imageBase64"])
	}
	if c.Busy() {
		t.Fatal("guard not released after success")
	}
}

func TestSubmitFailures(t *testing.T) {
	tests := []struct {
		name  string
		rt    roundTripFunc
		check func(t *testing.T, err error)
	}{
		{
			name: "rate limited",
			rt: func(*http.Request) (*http.Response, error) {
				return response(http.StatusTooManyRequests, `{"error":"Rate limit exceeded. Please try again tomorrow."}`), nil
			},
			check: func(t *testing.T, err error) {
				var re *ResponseError
				if !errors.As(err, &re) || !re.RateLimited() || re.Message != "Rate limit exceeded. Please try again tomorrow." {
					t.Fatalf("unexpected error %#v", err)
				}
				if !re.QuotaExhausted() || re.Throttled() {
					t.Fatalf("daily quota misclassified %#v", re)
				}
			},
		},
		{
			name: "per-ip throttle",
			rt: func(*http.Request) (*http.Response, error) {
				resp := response(http.StatusTooManyRequests, `{"error":"Too many requests. Please slow down."}`)
				resp.Header.Set("Retry-After", "42")
				return resp, nil
			},
			check: func(t *testing.T, err error) {
				var re *ResponseError
				if !errors.As(err, &re) || !re.RateLimited() {
					t.Fatalf("unexpected error %#v", err)
				}
				if !re.Throttled() || re.QuotaExhausted() || re.RetryAfter != 42*time.Second {
					t.Fatalf("throttle misclassified %#v", re)
				}
			},
		},
		{
			name: "error body with 200",
			rt: func(*http.Request) (*http.Response, error) {
				return response(http.StatusOK, `{"error":"User not authenticated."}`), nil
			},
			check: func(t *testing.T, err error) {
				var re *ResponseError
				if !errors.As(err, &re) || re.RateLimited() || re.Message != "User not authenticated." {
					t.Fatalf("unexpected error %#v", err)
				}
			},
		},
		{
			name: "non json failure",
			rt: func(*http.Request) (*http.Response, error) {
				return response(http.StatusBadGateway, ``), nil
			},
			check: func(t *testing.T, err error) {
				var re *ResponseError
				if !errors.As(err, &re) || re.Message != "Bad Gateway" {
					t.Fatalf("unexpected error %#v", err)
				}
			},
		},
		{
			name: "transport",
			rt: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			check: func(t *testing.T, err error) {
				var re *ResponseError
				if !errors.Is(err, ErrTransport) || errors.As(err, &re) {
					t.Fatalf("unexpected error %#v", err)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls int
			rt := tc.rt
			hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				calls++
				return rt(r)
			})}
			c := New("https://example.test/analyze", Session{Token: "tok"}, hc)
			_, err := c.Submit(context.Background(), testPhoto)
			tc.check(t, err)
			if calls != 1 {
				t.Fatalf("calls = %d, want exactly 1", calls)
			}
			if c.Busy() {
				t.Fatal("guard not released after failure")
			}
		})
	}
}

func TestSubmitWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		close(started)
		<-release
		return response(http.StatusOK, `{"foodName":"Toast","calories":80,"protein":3,"carbs":15,"fat":1}`), nil
	})}
	c := New("https://example.test/analyze", Session{Token: "tok"}, hc)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), testPhoto)
		done <- err
	}()
	<-started

	if !c.Busy() {
		t.Fatal("expected busy while in flight")
	}
	if _, err := c.Submit(context.Background(), testPhoto); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("second submit error = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if c.Busy() {
		t.Fatal("guard not released")
	}
}

func TestSubmitWithoutPhoto(t *testing.T) {
	c := New("https://example.test/analyze", Session{}, nil)
	if _, err := c.Submit(context.Background(), nil); !errors.Is(err, ErrNoPhoto) {
		t.Fatalf("error = %v", err)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		locale string
		est    *domain.NutritionEstimate
		want   string
	}{
		{
			name:   "spaghetti",
			locale: "en",
			est:    &domain.NutritionEstimate{FoodName: "Spaghetti Bolognese", Calories: 550, Protein: 25, Carbs: 60, Fat: 20},
			want:   "Spaghetti Bolognese\n  Calories: 550 kcal\n  Protein: 25 g\n  Carbohydrates: 60 g\n  Fat: 20 g\n",
		},
		{
			name:   "zero and fractions verbatim",
			locale: "en",
			est:    &domain.NutritionEstimate{FoodName: "Apple", Calories: 52.5, Protein: 0.3, Carbs: 13.8, Fat: 0},
			want:   "Apple\n  Calories: 52.5 kcal\n  Protein: 0.3 g\n  Carbohydrates: 13.8 g\n  Fat: 0 g\n",
		},
		{
			name:   "italian labels",
			locale: "it",
			est:    &domain.NutritionEstimate{FoodName: "Pizza", Calories: 266, Protein: 11, Carbs: 33, Fat: 10},
			want:   "Pizza\n  Calorie: 266 kcal\n  Proteine: 11 g\n  Carboidrati: 33 g\n  Grassi: 10 g\n",
		},
		{
			name:   "missing name",
			locale: "en",
			est:    &domain.NutritionEstimate{Calories: 10},
			want:   "Could not analyze the food in the photo.\n",
		},
		{
			name:   "nil estimate",
			locale: "en",
			want:   "Could not analyze the food in the photo.\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, tc.locale, tc.est); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if buf.String() != tc.want {
				t.Fatalf("Render =\n%q\nwant\n%q", buf.String(), tc.want)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	var buf bytes.Buffer
	_ = RenderError(&buf, "en", &ResponseError{Status: 429, Message: "Rate limit exceeded. Please try again tomorrow."})
	if buf.String() != "Error: Rate limit exceeded. Please try again tomorrow.\n" {
		t.Fatalf("RenderError = %q", buf.String())
	}

	buf.Reset()
	_ = RenderError(&buf, "it", ErrSubmitInProgress)
	if !strings.HasPrefix(buf.String(), "Errore: ") {
		t.Fatalf("RenderError italian = %q", buf.String())
	}
}
