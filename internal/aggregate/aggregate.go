// Package aggregate merges per-source research payloads into the fixed
// section mapping and scores the result. Aggregate is a pure function:
// identical inputs always produce identical bundles.
package aggregate

import (
	"github.com/sells-group/prospector/internal/model"
)

// sectionTarget routes one fact key from one source into a section.
type sectionTarget struct {
	fact    string
	section model.SectionKey
}

// factRouting holds the explicit (source, fact) -> section mapping. Facts a
// source emits outside this table are ignored rather than reflected over.
var factRouting = map[string][]sectionTarget{
	model.SourceWebPresence: {
		{"homepage_summary", model.SectionCompanyOverview},
		{"detected_technologies", model.SectionTechnologyStack},
	},
	model.SourceProfessionalNet: {
		{"company_page", model.SectionCompanyOverview},
		{"people", model.SectionDecisionMakers},
	},
	model.SourceEnrichmentAPI: {
		{"firmographics", model.SectionCompanyOverview},
		{"executives", model.SectionDecisionMakers},
		{"software_stack", model.SectionTechnologyStack},
	},
	model.SourceJobPostings: {
		{"open_roles", model.SectionHiringSignals},
		{"role_technologies", model.SectionTechnologyStack},
	},
	model.SourceNewsSearch: {
		{"recent_news", model.SectionRecentDevelopments},
		{"challenges", model.SectionPainPoints},
	},
	model.SourceGovernmentRegistry: {
		{"filings", model.SectionCompanyOverview},
	},
}

// sourcePrecedence fixes the trust order used when two sources feed the same
// section: the higher value wins outright, values never concatenate.
var sourcePrecedence = map[string]int{
	model.SourceEnrichmentAPI:      6,
	model.SourceGovernmentRegistry: 5,
	model.SourceProfessionalNet:    4,
	model.SourceWebPresence:        3,
	model.SourceNewsSearch:         2,
	model.SourceJobPostings:        1,
}

// Aggregate merges results into a ResearchBundle. Sections always contain
// the full fixed key set; sections no OK source reached are backfilled with
// labeled demo content where warranted (see backfillDemo), otherwise stay
// empty. The confidence score counts only genuinely collected sections.
func Aggregate(identityID string, results []model.SourceResult) model.ResearchBundle {
	sections := make(map[model.SectionKey]string, len(model.SectionKeys()))
	holder := make(map[model.SectionKey]int)
	for _, key := range model.SectionKeys() {
		sections[key] = ""
	}

	var okCount int
	for _, res := range results {
		if res.Outcome != model.OutcomeOK {
			continue
		}
		okCount++
		prec := sourcePrecedence[res.SourceName]
		for _, tgt := range factRouting[res.SourceName] {
			val, present := res.Payload[tgt.fact]
			if !present || val == "" {
				continue
			}
			if prec <= holder[tgt.section] {
				continue
			}
			sections[tgt.section] = val
			holder[tgt.section] = prec
		}
	}

	var nonEmpty int
	for _, key := range model.SectionKeys() {
		if sections[key] != "" {
			nonEmpty++
		}
	}

	score := 0.0
	if len(results) > 0 {
		score = 0.5*(float64(okCount)/float64(len(results))) +
			0.5*(float64(nonEmpty)/float64(len(model.SectionKeys())))
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	backfillDemo(sections, results)

	return model.ResearchBundle{
		IdentityID:      identityID,
		Results:         results,
		ConfidenceScore: score,
		Sections:        sections,
	}
}
