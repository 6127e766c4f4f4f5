package main

import (
	"context"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/enhance"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/pipeline"
	"github.com/sells-group/prospector/internal/source"
	"github.com/sells-group/prospector/internal/store"
	anthropicpkg "github.com/sells-group/prospector/pkg/anthropic"
	"github.com/sells-group/prospector/pkg/grata"
	"github.com/sells-group/prospector/pkg/jina"
	"github.com/sells-group/prospector/pkg/perplexity"
	"github.com/sells-group/prospector/pkg/registry"
	sfpkg "github.com/sells-group/prospector/pkg/salesforce"
)

// pipelineEnv bundles the service with the resources it holds open.
type pipelineEnv struct {
	Service  *pipeline.Service
	Store    store.Store
	cache    *source.Cache
	registry registry.Querier
}

func (e *pipelineEnv) Close() {
	if e.registry != nil {
		e.registry.Close()
	}
	if e.cache != nil {
		_ = e.cache.Close()
	}
	_ = e.Store.Close()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "prospector.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline builds the research service. Collectors whose credentials are
// absent stay unconfigured and run in demo mode; the same applies to the
// generative backend.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var deps source.Deps
	deps.MaxFactBytes = cfg.Pipeline.MaxSectionPayloadBytes
	if cfg.Jina.Key != "" {
		deps.Jina = jina.NewClient(cfg.Jina.Key,
			jina.WithBaseURL(cfg.Jina.BaseURL),
			jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
		)
	}
	if cfg.Perplexity.Key != "" {
		deps.Perplexity = perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
	}
	if cfg.Grata.Key != "" {
		deps.Grata = grata.NewClient(cfg.Grata.Key, grata.WithBaseURL(cfg.Grata.BaseURL))
	}

	var regClient registry.Querier
	if cfg.Registry.URL != "" {
		rc, err := registry.New(ctx, registry.Config{
			URL:           cfg.Registry.URL,
			MaxCandidates: cfg.Registry.MaxCandidates,
		})
		if err != nil {
			zap.L().Warn("registry init failed, collector runs in demo mode", zap.Error(err))
		} else {
			deps.Registry = rc
			regClient = rc
		}
	}

	var cache *source.Cache
	if cfg.Cache.RedisAddr != "" {
		cache = source.NewCache(cfg.Cache.RedisAddr, cfg.Cache.TTL())
	}

	var backend enhance.Backend
	if cfg.Anthropic.Key != "" {
		backend = enhance.NewAnthropicBackend(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	}
	enh := enhance.NewEnhancer(backend, cfg.Pipeline.GenerativeTimeout(), cfg.Pipeline.DefaultRelevanceScore)

	orch := source.NewOrchestrator(source.Collectors(deps), cache)

	return &pipelineEnv{
		Service:  pipeline.New(st, orch, enh),
		Store:    st,
		cache:    cache,
		registry: regClient,
	}, nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (PROSPECTOR_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

// resolveDepth parses the flag value, falling back to the configured default
// when the flag is unset.
func resolveDepth(flag string) (model.Depth, error) {
	if flag == "" {
		flag = cfg.Pipeline.DefaultDepth
	}
	return model.ParseDepth(flag)
}
