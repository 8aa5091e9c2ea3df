package tts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestMock(t *testing.T) {
	mock := NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns an MP3 clip", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "Look up and hold.")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(string(result.Audio), "ID3") {
			t.Errorf("Audio = %q, want an ID3 header", result.Audio)
		}
		if result.Format.Encoding != EncodingMP3 || result.Format.SampleRate != 44100 {
			t.Errorf("Format = %+v, want MP3", result.Format)
		}
		if result.CharCount != 17 {
			t.Errorf("expected 17 chars, got %d", result.CharCount)
		}
	})

	t.Run("Empty text is rejected", func(t *testing.T) {
		if _, err := mock.Synthesize(ctx, ""); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Synthesize(\"\") error = %v", err)
		}
	})

	t.Run("Texts are recorded", func(t *testing.T) {
		got := mock.Spoken()
		if len(got) != 2 || got[0] != "Look up and hold." {
			t.Errorf("Spoken() = %q", got)
		}
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := mock.Synthesize(cctx, "Look down and hold."); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestMock_Err(t *testing.T) {
	testErr := errors.New("test error")
	mock := &Mock{Err: testErr}

	if _, err := mock.Synthesize(context.Background(), "Hello"); !errors.Is(err, testErr) {
		t.Errorf("Synthesize() error = %v, want %v", err, testErr)
	}
	if err := mock.Health(context.Background()); !errors.Is(err, testErr) {
		t.Errorf("Health() error = %v, want %v", err, testErr)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{"missing key", nil, ErrNoAPIKey},
		{"default speed", []Option{WithAPIKey("k")}, nil},
		{"cue speed", []Option{WithAPIKey("k"), WithSpeed(0.7)}, nil},
		{"too slow", []Option{WithAPIKey("k"), WithSpeed(0.1)}, ErrInvalidSpeed},
		{"too fast", []Option{WithAPIKey("k"), WithSpeed(5)}, ErrInvalidSpeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Apply(tt.opts...)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
	}

	for _, tt := range tests {
		err := &APIError{StatusCode: tt.status, Provider: providerOpenAI}
		if err.IsRetryable() != tt.retryable {
			t.Errorf("status %d: IsRetryable() = %v, want %v", tt.status, err.IsRetryable(), tt.retryable)
		}
	}

	err := &APIError{StatusCode: 401, Message: "bad key", Code: "invalid_api_key", Provider: providerOpenAI}
	if !err.IsUnauthorized() {
		t.Error("expected IsUnauthorized")
	}
	if !strings.Contains(err.Error(), "invalid_api_key") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestProviderError(t *testing.T) {
	if WrapError("openai", nil) != nil {
		t.Error("WrapError(nil) should be nil")
	}
	err := WrapError("openai", ErrEmptyText)
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("errors.Is failed for %v", err)
	}
}

func TestOpenAI_SendsSpeed(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte("ID3-fake-mp3"))
	}))
	defer srv.Close()

	p, err := NewOpenAI(WithAPIKey("test-key"), WithBaseURL(srv.URL), WithSpeed(0.7))
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	defer p.Close()

	result, err := p.Synthesize(context.Background(), "Look center and hold.")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(result.Audio) != "ID3-fake-mp3" {
		t.Errorf("Audio = %q", result.Audio)
	}
	if result.Format.Encoding != EncodingMP3 {
		t.Errorf("Encoding = %v", result.Format.Encoding)
	}
	for _, want := range []string{`"speed":0.7`, `"input":"Look center and hold."`, `"voice":"shimmer"`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body %s missing %s", gotBody, want)
		}
	}
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p, _ := NewOpenAI(WithAPIKey("k"), WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	if _, err := p.Synthesize(context.Background(), "Look down and hold."); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestOpenAI_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid voice"}}`))
	}))
	defer srv.Close()

	p, _ := NewOpenAI(WithAPIKey("k"), WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	_, err := p.Synthesize(context.Background(), "Look up and hold.")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("error = %v, want a 400 APIError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestOpenAI_ParsesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	p, _ := NewOpenAI(WithAPIKey("k"), WithBaseURL(srv.URL))
	_, err := p.Synthesize(context.Background(), "Look up and hold.")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Incorrect API key" || apiErr.Code != "invalid_api_key" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestOpenAI_EmptyText(t *testing.T) {
	p, _ := NewOpenAI(WithAPIKey("k"))
	if _, err := p.Synthesize(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Synthesize(\"\") error = %v", err)
	}
}

func TestCache(t *testing.T) {
	mock := NewMock()
	cache := NewCache(mock, nil)
	ctx := context.Background()

	if err := cache.Warm(ctx, "Look up and hold.", "Look center and hold."); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := cache.Synthesize(ctx, "Look center and hold."); err != nil {
			t.Fatalf("Synthesize() error = %v", err)
		}
	}

	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
	if n := len(mock.Spoken()); n != 2 {
		t.Errorf("provider called %d times, want 2", n)
	}

	cache.Close()
	if !mock.Closed() {
		t.Error("Close() did not reach the provider")
	}
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	mock := &Mock{Err: errors.New("down")}
	cache := NewCache(mock, nil)

	cache.Synthesize(context.Background(), "Look up and hold.")
	cache.Synthesize(context.Background(), "Look up and hold.")

	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
	if n := len(mock.Spoken()); n != 2 {
		t.Errorf("provider called %d times, want 2", n)
	}
}
