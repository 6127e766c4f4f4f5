package enhance

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/anthropic"
)

// Backend is the generative capability behind both enhancement stages.
// Exactly one implementation calls the real model; tests substitute stubs so
// the fallback path and the generative path share the same validation code.
type Backend interface {
	Transform(ctx context.Context, system, prompt string) (string, error)
}

// AnthropicBackend implements Backend on the Anthropic messages API.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
}

// NewAnthropicBackend creates the real generative backend.
func NewAnthropicBackend(client anthropic.Client, model string) *AnthropicBackend {
	return &AnthropicBackend{client: client, model: model}
}

func (b *AnthropicBackend) Transform(ctx context.Context, system, prompt string) (string, error) {
	resp, err := b.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     b.model,
		MaxTokens: 4096,
		System:    []anthropic.SystemBlock{{Text: system}},
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", eris.Wrap(err, "enhance: backend call")
	}
	resp.Usage.LogCost(b.model, "enhance")
	return resp.Text(), nil
}

// Enhancer runs the two enhancement stages. Neither stage ever returns an
// error: generative failure, timeout, or non-conformant output all degrade to
// the deterministic fallback renderer.
type Enhancer struct {
	backend          Backend
	timeout          time.Duration
	defaultRelevance int
}

// NewEnhancer creates an Enhancer. backend may be nil, forcing fallback
// generation for every document. timeout bounds each backend call.
func NewEnhancer(backend Backend, timeout time.Duration, defaultRelevance int) *Enhancer {
	if defaultRelevance < 1 || defaultRelevance > 10 {
		defaultRelevance = 5
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Enhancer{backend: backend, timeout: timeout, defaultRelevance: defaultRelevance}
}

// EnhanceReport runs Stage A: bundle sections to a templated research report.
func (e *Enhancer) EnhanceReport(ctx context.Context, ident *model.ProspectIdentity, bundle model.ResearchBundle) model.Document {
	body, ok := e.tryTransform(ctx, reportSystem(), reportPrompt(ident, bundle), ValidateReport)
	source := model.GeneratedEnhanced
	if !ok {
		body = FallbackReport(ident, bundle)
		source = model.GeneratedFallback
	}
	zap.L().Info("enhance: report generated",
		zap.String("identity_id", ident.ID),
		zap.String("generation_source", string(source)),
	)
	return model.Document{
		IdentityID:       ident.ID,
		Kind:             model.KindReport,
		TemplateVersion:  ReportTemplate().Version,
		Body:             body,
		GenerationSource: source,
		Confidence:       bundle.ConfidenceScore,
		GeneratedAt:      time.Now().UTC(),
	}
}

// GenerateProfile runs Stage B: a rendered report to a sales profile. It
// consumes Stage A's document, never the raw bundle.
func (e *Enhancer) GenerateProfile(ctx context.Context, ident *model.ProspectIdentity, report model.Document, focusAreas []string) model.Document {
	body, ok := e.tryTransform(ctx, profileSystem(), profilePrompt(ident, report.Body, focusAreas), ValidateProfile)
	source := model.GeneratedEnhanced
	if !ok {
		body = FallbackProfile(ident, report.Body, e.defaultRelevance)
		source = model.GeneratedFallback
	}
	zap.L().Info("enhance: profile generated",
		zap.String("identity_id", ident.ID),
		zap.String("generation_source", string(source)),
	)
	return model.Document{
		IdentityID:       ident.ID,
		Kind:             model.KindProfile,
		TemplateVersion:  ProfileTemplate().Version,
		Body:             body,
		GenerationSource: source,
		Confidence:       report.Confidence,
		GeneratedAt:      time.Now().UTC(),
	}
}

// tryTransform calls the backend under the stage timeout and validates the
// output. Any failure reports false; the caller takes the fallback path.
func (e *Enhancer) tryTransform(ctx context.Context, system, prompt string, validate func(string) error) (string, bool) {
	if e.backend == nil {
		return "", false
	}
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.backend.Transform(tctx, system, prompt)
	if err != nil {
		zap.L().Warn("enhance: backend failed, using fallback", zap.Error(err))
		return "", false
	}
	if err := validate(out); err != nil {
		zap.L().Warn("enhance: backend output failed validation, using fallback", zap.Error(err))
		return "", false
	}
	return out, true
}
