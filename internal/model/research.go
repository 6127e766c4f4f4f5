package model

// SourceOutcome classifies the result of a single collector invocation.
type SourceOutcome string

const (
	OutcomeOK          SourceOutcome = "ok"
	OutcomeError       SourceOutcome = "error"
	OutcomeTimeout     SourceOutcome = "timeout"
	OutcomeUnavailable SourceOutcome = "unavailable"
)

// SourceResult is the bounded outcome of one collector call. Every invoked
// source produces exactly one SourceResult, even on failure. Payload is empty
// whenever Outcome is not OK.
type SourceResult struct {
	SourceName string            `json:"source_name"`
	Outcome    SourceOutcome     `json:"outcome"`
	Payload    map[string]string `json:"payload,omitempty"`
	LatencyMS  int64             `json:"latency_ms"`
	// Demo marks a source that was never configured; the aggregator backfills
	// its sections with labeled synthetic content.
	Demo bool `json:"demo,omitempty"`
}

// Canonical source names, in fan-out order.
const (
	SourceWebPresence        = "web_presence"
	SourceProfessionalNet    = "professional_network"
	SourceEnrichmentAPI      = "enrichment_api"
	SourceJobPostings        = "job_postings"
	SourceNewsSearch         = "news_search"
	SourceGovernmentRegistry = "government_registry"
)

// SourceNames returns the full source set in canonical order.
func SourceNames() []string {
	return []string{
		SourceWebPresence,
		SourceProfessionalNet,
		SourceEnrichmentAPI,
		SourceJobPostings,
		SourceNewsSearch,
		SourceGovernmentRegistry,
	}
}

// SectionKey names one topic in the fixed research section set.
type SectionKey string

const (
	SectionCompanyOverview    SectionKey = "company_overview"
	SectionRecentDevelopments SectionKey = "recent_developments"
	SectionTechnologyStack    SectionKey = "technology_stack"
	SectionDecisionMakers     SectionKey = "decision_makers"
	SectionPainPoints         SectionKey = "pain_points"
	SectionHiringSignals      SectionKey = "hiring_signals"
)

// SectionKeys returns the fixed section set in canonical order.
func SectionKeys() []SectionKey {
	return []SectionKey{
		SectionCompanyOverview,
		SectionRecentDevelopments,
		SectionTechnologyStack,
		SectionDecisionMakers,
		SectionPainPoints,
		SectionHiringSignals,
	}
}

// ResearchBundle aggregates all SourceResults for one identity at one point in
// time. Each research call produces a fresh snapshot; bundles are superseded,
// never merged.
type ResearchBundle struct {
	IdentityID      string                `json:"identity_id"`
	Results         []SourceResult        `json:"results"`
	ConfidenceScore float64               `json:"confidence_score"`
	Sections        map[SectionKey]string `json:"sections"`
}
