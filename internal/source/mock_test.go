package source

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/grata"
	"github.com/sells-group/prospector/pkg/jina"
	"github.com/sells-group/prospector/pkg/perplexity"
	"github.com/sells-group/prospector/pkg/registry"
)

// --- Jina Mock ---

type mockJinaClient struct {
	mock.Mock
}

func (m *mockJinaClient) Read(ctx context.Context, targetURL string) (*jina.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.ReadResponse), args.Error(1)
}

func (m *mockJinaClient) Search(ctx context.Context, query string) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.SearchResponse), args.Error(1)
}

// --- Perplexity Mock ---

type mockPerplexityClient struct {
	mock.Mock
}

func (m *mockPerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

func (m *mockPerplexityClient) AskRecent(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// --- Grata Mock ---

type mockGrataClient struct {
	mock.Mock
}

func (m *mockGrataClient) EnrichByDomain(ctx context.Context, domain string) (*grata.Company, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grata.Company), args.Error(1)
}

// --- Registry Mock ---

type mockRegistryClient struct {
	mock.Mock
}

func (m *mockRegistryClient) FindFilings(ctx context.Context, name string) ([]registry.Filing, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]registry.Filing), args.Error(1)
}

func (m *mockRegistryClient) Close() {
	m.Called()
}

// --- Stub collector for orchestrator tests ---

type stubCollector struct {
	name       string
	configured bool
	payload    map[string]string
	err        error
	panicMsg   string
	calls      int
}

func (s *stubCollector) Name() string     { return s.name }
func (s *stubCollector) Configured() bool { return s.configured }

func (s *stubCollector) Collect(ctx context.Context, ident *model.ProspectIdentity) (map[string]string, error) {
	s.calls++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}
