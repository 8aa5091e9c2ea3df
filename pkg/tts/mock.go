package tts

import (
	"context"
	"sync"
)

const providerMock = "mock"

// Mock is an in-memory Provider for tests. Every cue comes back as a small
// MP3-tagged clip and the texts it was asked to speak are recorded.
type Mock struct {
	// Err, if set, fails Synthesize and Health.
	Err error

	mu     sync.Mutex
	spoken []string
	closed bool
}

// NewMock creates a working mock provider.
func NewMock() *Mock {
	return &Mock{}
}

// Synthesize records text and returns a fake clip shaped like an OpenAI
// response.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, WrapError(providerMock, m.Err)
	}
	if text == "" {
		return nil, WrapError(providerMock, ErrEmptyText)
	}

	return &AudioResult{
		Audio: append([]byte("ID3"), text...),
		Format: AudioFormat{
			Encoding:   EncodingMP3,
			SampleRate: SampleRateFromEncoding(EncodingMP3),
			Channels:   1,
		},
		CharCount: len(text),
	}, nil
}

// Health returns Err.
func (m *Mock) Health(ctx context.Context) error {
	if m.Err != nil {
		return WrapError(providerMock, m.Err)
	}
	return nil
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Spoken returns the texts passed to Synthesize, oldest first.
func (m *Mock) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Provider = (*Mock)(nil)
