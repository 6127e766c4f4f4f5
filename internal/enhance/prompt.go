package enhance

import (
	"fmt"
	"strings"

	"github.com/sells-group/prospector/internal/model"
)

const reportSystemPrompt = `You are a sales research analyst. You turn raw research notes into a polished prospect research report. Output ONLY the report in markdown. The report must contain exactly these level-2 headings, in this order, and no others: %s. Start with a single level-1 title line. If the notes contain nothing for a section, write "%s". Do not invent facts.`

const profileSystemPrompt = `You are a sales strategist. You condense a prospect research report into a compact sales profile. Output ONLY plain text lines of the form "Field: value", one per line, with exactly these fields, in this order: %s. The Relevance Score must be a whole number from 1 to 10 rating this prospect's sales fit. Each value must be a single line. If the report contains nothing for a field, write "%s".`

// reportPrompt builds the Stage A user prompt from the raw bundle sections.
func reportPrompt(ident *model.ProspectIdentity, bundle model.ResearchBundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", ident.CompanyName)
	if ident.Domain != "" {
		fmt.Fprintf(&b, "Domain: %s\n", ident.Domain)
	}
	b.WriteString("\nRaw research notes by topic:\n\n")
	for _, sh := range sectionHeadings {
		content := strings.TrimSpace(bundle.Sections[sh.Key])
		if content == "" {
			content = "(nothing collected)"
		}
		fmt.Fprintf(&b, "### %s\n%s\n\n", sh.Heading, content)
	}
	b.WriteString("Write the research report now.")
	return b.String()
}

// profilePrompt builds the Stage B user prompt from the rendered report.
func profilePrompt(ident *model.ProspectIdentity, reportBody string, focusAreas []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", ident.CompanyName)
	if ident.Domain != "" {
		fmt.Fprintf(&b, "Domain: %s\n", ident.Domain)
	}
	if len(focusAreas) > 0 {
		fmt.Fprintf(&b, "Focus areas to emphasize: %s\n", strings.Join(focusAreas, ", "))
	}
	b.WriteString("\nResearch report:\n\n")
	b.WriteString(reportBody)
	b.WriteString("\n\nWrite the sales profile now.")
	return b.String()
}

func reportSystem() string {
	return fmt.Sprintf(reportSystemPrompt, strings.Join(ReportTemplate().Headings, ", "), Placeholder)
}

func profileSystem() string {
	return fmt.Sprintf(profileSystemPrompt, strings.Join(ProfileTemplate().Fields, ", "), Placeholder)
}
