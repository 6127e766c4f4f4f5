package enhance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/prospector/internal/model"
)

// FallbackReport deterministically fills the report template with the raw
// bundle sections verbatim. Output always passes ValidateReport.
func FallbackReport(ident *model.ProspectIdentity, bundle model.ResearchBundle) string {
	return RenderReport(ident.CompanyName, bundle.Sections)
}

// FallbackProfile deterministically extracts best-effort field values from a
// rendered report. Output always passes ValidateProfile.
func FallbackProfile(ident *model.ProspectIdentity, reportBody string, defaultRelevance int) string {
	sections := ParseReportSections(reportBody)

	fields := map[string]string{
		"Company Name":      ident.CompanyName,
		"Domain":            ident.Domain,
		"Overview":          firstSentences(sections["Company Overview"], 2),
		"Value Proposition": valueProposition(sections["Pain Points"]),
		"Relevance Score":   strconv.Itoa(defaultRelevance),
	}
	fields["Conversation Starter 1"], fields["Conversation Starter 2"] = conversationStarters(sections)
	return RenderProfile(ident.CompanyName, fields)
}

// conversationStarters derives two openers from whichever report sections
// carry real content, in a fixed preference order.
func conversationStarters(sections map[string]string) (string, string) {
	var starters []string
	if s := firstSentences(sections["Recent Developments"], 1); s != "" {
		starters = append(starters, "I saw some recent news about your company: "+s)
	}
	if s := firstSentences(sections["Hiring Signals"], 1); s != "" {
		starters = append(starters, "It looks like your team is growing: "+s)
	}
	if s := firstSentences(sections["Technology Stack"], 1); s != "" {
		starters = append(starters, "I noticed the technologies your team works with: "+s)
	}
	starters = append(starters,
		"What are your team's top priorities this quarter?",
		"How is your team currently handling prospect research?",
	)
	return starters[0], starters[1]
}

// valueProposition turns reported pain points into a pitch line, or a
// neutral line when none were collected.
func valueProposition(painPoints string) string {
	if s := firstSentences(painPoints, 1); s != "" {
		return fmt.Sprintf("We help companies facing challenges like: %s", s)
	}
	return "We help teams like yours save time on research and outreach."
}

// firstSentences returns up to n leading sentences of real content from a
// section, skipping placeholder and demo-labeled text.
func firstSentences(section string, n int) string {
	text := strings.TrimSpace(section)
	if text == "" || text == Placeholder || strings.HasPrefix(text, "[demo]") {
		return ""
	}
	text = strings.ReplaceAll(text, "\n", " ")
	var out strings.Builder
	count := 0
	for i, r := range text {
		out.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			count++
			if count >= n {
				break
			}
		}
		if i >= 300 {
			out.WriteString("...")
			break
		}
	}
	return strings.TrimSpace(out.String())
}
