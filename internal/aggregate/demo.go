package aggregate

import "github.com/sells-group/prospector/internal/model"

// demoContent is the labeled synthetic text substituted for sections no
// configured source could populate. Every value carries the [demo] marker so
// downstream documents are never mistaken for collected intelligence.
var demoContent = map[model.SectionKey]string{
	model.SectionCompanyOverview:    "[demo] Placeholder overview: no configured source returned company details. Configure the enrichment or web presence sources for real data.",
	model.SectionRecentDevelopments: "[demo] Placeholder developments: no news source was configured for this run.",
	model.SectionTechnologyStack:    "[demo] Placeholder stack: no source reported technologies in use.",
	model.SectionDecisionMakers:     "[demo] Placeholder contacts: no source reported leadership or decision makers.",
	model.SectionPainPoints:         "[demo] Placeholder pain points: no source reported business challenges.",
	model.SectionHiringSignals:      "[demo] Placeholder hiring signals: no job posting source was configured for this run.",
}

// backfillDemo fills still-empty sections with demo content when the section
// was fed by an unconfigured source, or when depth trimming left it with no
// invoked source at all. Sections whose sources all ran and simply found
// nothing stay empty.
func backfillDemo(sections map[model.SectionKey]string, results []model.SourceResult) {
	realFeeds := make(map[model.SectionKey]bool)
	demoFeeds := make(map[model.SectionKey]bool)
	for _, res := range results {
		for _, tgt := range factRouting[res.SourceName] {
			if res.Demo {
				demoFeeds[tgt.section] = true
			} else {
				realFeeds[tgt.section] = true
			}
		}
	}
	for key, val := range sections {
		if val != "" {
			continue
		}
		if demoFeeds[key] || !realFeeds[key] {
			sections[key] = demoContent[key]
		}
	}
}
