// Package pipeline composes identity resolution, source collection,
// aggregation, and enhancement into the externally visible operations.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/aggregate"
	"github.com/sells-group/prospector/internal/enhance"
	"github.com/sells-group/prospector/internal/identity"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/search"
	"github.com/sells-group/prospector/internal/source"
	"github.com/sells-group/prospector/internal/store"
)

// Service wires the full research flow behind four operations. All source and
// enhancement failures degrade output; only caller-input errors and store
// failures surface as errors.
type Service struct {
	store    store.Store
	resolver *identity.Resolver
	orch     *source.Orchestrator
	enhancer *enhance.Enhancer
	searcher *search.Searcher
}

// New creates a Service over the given store, orchestrator, and enhancer.
func New(st store.Store, orch *source.Orchestrator, enh *enhance.Enhancer) *Service {
	return &Service{
		store:    st,
		resolver: identity.NewResolver(st),
		orch:     orch,
		enhancer: enh,
		searcher: search.NewSearcher(st),
	}
}

// ResearchResult summarizes one completed research pass.
type ResearchResult struct {
	IdentityID      string                 `json:"identity_id"`
	CompanyName     string                 `json:"company_name"`
	Domain          string                 `json:"domain,omitempty"`
	Status          model.ProspectStatus   `json:"status"`
	ConfidenceScore float64                `json:"confidence_score"`
	SectionsFound   []string               `json:"sections_found"`
	SourcesUsed     []string               `json:"sources_used"`
	Generation      model.GenerationSource `json:"generation"`
}

// Research resolves the identifier, fans out to the source set for the given
// depth, aggregates the results, and persists a rendered research report.
// Re-running for the same company reuses the existing identity and replaces
// its report atomically. Cancellation before collection completes leaves the
// identity in its prior status with nothing persisted.
func (s *Service) Research(ctx context.Context, ref model.Identifier, depth model.Depth) (*ResearchResult, error) {
	ident, created, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: research started",
		zap.String("identity_id", ident.ID),
		zap.String("company", ident.CompanyName),
		zap.String("depth", string(depth)),
		zap.Bool("new_identity", created),
	)

	results := s.orch.Run(ctx, ident, depth)
	if ctx.Err() != nil {
		return nil, eris.Wrap(ctx.Err(), "pipeline: research canceled")
	}

	bundle := aggregate.Aggregate(ident.ID, results)

	if err := s.store.AdvanceIdentityStatus(ctx, ident.ID, model.StatusResearched); err != nil {
		return nil, eris.Wrap(err, "pipeline: advance to researched")
	}
	ident.Status = model.StatusResearched

	report := s.enhancer.EnhanceReport(ctx, ident, bundle)
	if err := s.store.WriteDocument(ctx, &report); err != nil {
		if ferr := s.store.AdvanceIdentityStatus(ctx, ident.ID, model.StatusFailed); ferr != nil {
			zap.L().Warn("pipeline: could not mark identity failed",
				zap.String("identity_id", ident.ID), zap.Error(ferr))
		}
		return nil, eris.Wrap(err, "pipeline: persist research report")
	}

	res := &ResearchResult{
		IdentityID:      ident.ID,
		CompanyName:     ident.CompanyName,
		Domain:          ident.Domain,
		Status:          ident.Status,
		ConfidenceScore: bundle.ConfidenceScore,
		SectionsFound:   sectionsFound(bundle.Sections),
		SourcesUsed:     sourcesUsed(results),
		Generation:      report.GenerationSource,
	}

	zap.L().Info("pipeline: research finished",
		zap.String("identity_id", ident.ID),
		zap.Float64("confidence", res.ConfidenceScore),
		zap.Int("sections", len(res.SectionsFound)),
		zap.String("generation", string(res.Generation)),
	)
	return res, nil
}

// ProfileResult summarizes one generated sales profile.
type ProfileResult struct {
	IdentityID      string                 `json:"identity_id"`
	FieldsPopulated int                    `json:"fields_populated"`
	ConfidenceScore float64                `json:"confidence_score"`
	RelevanceScore  int                    `json:"relevance_score"`
	KeyFindings     []string               `json:"key_findings"`
	Generation      model.GenerationSource `json:"generation"`
}

// CreateProfile renders a sales profile from the identity's persisted
// research report. It requires a researched (or later) identity and an
// existing report; the profile write and the advance to profiled are the only
// mutations.
func (s *Service) CreateProfile(ctx context.Context, identityID string, focusAreas []string) (*ProfileResult, error) {
	ident, err := s.store.GetIdentity(ctx, identityID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load identity")
	}
	if ident == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "identity %q", identityID)
	}
	if ident.Status == model.StatusPending || ident.Status == model.StatusFailed {
		return nil, eris.Wrapf(model.ErrInvalidState, "identity %s is %s, research it first", identityID, ident.Status)
	}

	report, err := s.store.ReadDocument(ctx, identityID, model.KindReport)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load research report")
	}
	if report == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "no research report for identity %s", identityID)
	}

	profile := s.enhancer.GenerateProfile(ctx, ident, *report, focusAreas)
	if err := s.store.WriteDocument(ctx, &profile); err != nil {
		return nil, eris.Wrap(err, "pipeline: persist sales profile")
	}
	if err := s.store.AdvanceIdentityStatus(ctx, identityID, model.StatusProfiled); err != nil {
		return nil, eris.Wrap(err, "pipeline: advance to profiled")
	}

	fields := enhance.ParseProfileFields(profile.Body)
	score, err := enhance.RelevanceScore(profile.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read relevance score")
	}

	res := &ProfileResult{
		IdentityID:      identityID,
		FieldsPopulated: countPopulated(fields),
		ConfidenceScore: profile.Confidence,
		RelevanceScore:  score,
		KeyFindings:     keyFindings(fields),
		Generation:      profile.GenerationSource,
	}

	zap.L().Info("pipeline: profile created",
		zap.String("identity_id", identityID),
		zap.Int("fields_populated", res.FieldsPopulated),
		zap.Int("relevance_score", res.RelevanceScore),
		zap.String("generation", string(res.Generation)),
	)
	return res, nil
}

// ProspectData is the full retrievable state of one prospect.
type ProspectData struct {
	Identity  model.ProspectIdentity                    `json:"identity"`
	Documents map[model.DocumentKind]model.DocumentInfo `json:"documents"`
}

// GetProspectData returns the identity and per-kind document metadata,
// including bodies when includeContent is set. An empty kinds list means all
// kinds. It never mutates state.
func (s *Service) GetProspectData(ctx context.Context, identityID string, includeContent bool, kinds []model.DocumentKind) (*ProspectData, error) {
	ident, err := s.store.GetIdentity(ctx, identityID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load identity")
	}
	if ident == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "identity %q", identityID)
	}

	docs, err := s.store.ListDocuments(ctx, identityID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list documents")
	}

	if len(kinds) == 0 {
		kinds = []model.DocumentKind{model.KindReport, model.KindProfile}
	}
	wanted := make(map[model.DocumentKind]bool, len(kinds))

	data := &ProspectData{
		Identity:  *ident,
		Documents: make(map[model.DocumentKind]model.DocumentInfo, len(kinds)),
	}
	for _, kind := range kinds {
		wanted[kind] = true
		data.Documents[kind] = model.DocumentInfo{Kind: kind}
	}
	for _, doc := range docs {
		if !wanted[doc.Kind] {
			continue
		}
		info := model.DocumentInfo{
			Kind:      doc.Kind,
			Exists:    true,
			Size:      len(doc.Body),
			CreatedAt: doc.GeneratedAt,
		}
		if includeContent {
			info.Content = doc.Body
		}
		data.Documents[doc.Kind] = info
	}
	return data, nil
}

// SearchProspects runs a ranked query, applying the default limit when the
// caller leaves it unset. It returns the ranked page and the total match
// count before limiting.
func (s *Service) SearchProspects(ctx context.Context, q search.Query) ([]search.Result, int, error) {
	if q.Limit == 0 {
		q.Limit = search.DefaultLimit
	}
	return s.searcher.Search(ctx, q)
}

// RefreshStale re-researches identities whose last update is older than
// maxAge, and returns how many were refreshed. Failures are logged and
// skipped so one bad prospect never stalls the sweep.
func (s *Service) RefreshStale(ctx context.Context, maxAge time.Duration, depth model.Depth) (int, error) {
	idents, err := s.store.ListIdentities(ctx, store.IdentityFilter{
		Statuses: []model.ProspectStatus{model.StatusResearched, model.StatusProfiled},
	})
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: list identities for refresh")
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	refreshed := 0
	for _, ident := range idents {
		if ident.UpdatedAt.After(cutoff) {
			continue
		}
		ref := model.Identifier{Domain: ident.Domain, CompanyName: ident.CompanyName}
		if _, err := s.Research(ctx, ref, depth); err != nil {
			if ctx.Err() != nil {
				return refreshed, eris.Wrap(ctx.Err(), "pipeline: refresh canceled")
			}
			zap.L().Warn("pipeline: stale refresh failed",
				zap.String("identity_id", ident.ID), zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// sectionsFound lists the non-empty section keys in canonical order.
func sectionsFound(sections map[model.SectionKey]string) []string {
	found := make([]string, 0, len(sections))
	for _, key := range model.SectionKeys() {
		if sections[key] != "" {
			found = append(found, string(key))
		}
	}
	return found
}

// sourcesUsed lists the invoked source names in fan-out order.
func sourcesUsed(results []model.SourceResult) []string {
	used := make([]string, 0, len(results))
	for _, r := range results {
		used = append(used, r.SourceName)
	}
	return used
}

// countPopulated counts profile fields carrying real content.
func countPopulated(fields map[string]string) int {
	n := 0
	for _, val := range fields {
		if val != "" && val != enhance.Placeholder {
			n++
		}
	}
	return n
}

// keyFindings pulls the talking-point fields out of a rendered profile.
func keyFindings(fields map[string]string) []string {
	findings := make([]string, 0, 3)
	for _, name := range []string{"Conversation Starter 1", "Conversation Starter 2", "Value Proposition"} {
		if val := fields[name]; val != "" && val != enhance.Placeholder {
			findings = append(findings, val)
		}
	}
	return findings
}
