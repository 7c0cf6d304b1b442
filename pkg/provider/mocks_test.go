package provider

import (
	"context"
)

// --- Mocks ---

type mockFetcher struct {
	data    []byte
	err     error
	lastURL string
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.lastURL = url
	return m.data, m.err
}
