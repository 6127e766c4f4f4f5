// Package enhance renders, validates and generates the templated research
// report and sales profile documents.
package enhance

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/prospector/internal/model"
)

// Placeholder marks a template slot for which no factual data exists. It is
// a valid value; absence of the slot itself is not.
const Placeholder = "No data available."

//go:embed templates.yaml
var templateYAML []byte

// Template fixes the structural contract of one document kind.
type Template struct {
	Version  string   `yaml:"version"`
	Headings []string `yaml:"headings"`
	Fields   []string `yaml:"fields"`
}

type templateFile struct {
	Templates struct {
		ResearchReport Template `yaml:"research_report"`
		SalesProfile   Template `yaml:"sales_profile"`
	} `yaml:"templates"`
}

var templates = mustLoadTemplates()

func mustLoadTemplates() templateFile {
	var tf templateFile
	if err := yaml.Unmarshal(templateYAML, &tf); err != nil {
		panic(eris.Wrap(err, "enhance: parse embedded templates"))
	}
	return tf
}

// ReportTemplate returns the research report template.
func ReportTemplate() Template { return templates.Templates.ResearchReport }

// ProfileTemplate returns the sales profile template.
func ProfileTemplate() Template { return templates.Templates.SalesProfile }

// sectionHeadings pairs each bundle section key with its report heading, in
// template order.
var sectionHeadings = []struct {
	Key     model.SectionKey
	Heading string
}{
	{model.SectionCompanyOverview, "Company Overview"},
	{model.SectionRecentDevelopments, "Recent Developments"},
	{model.SectionTechnologyStack, "Technology Stack"},
	{model.SectionDecisionMakers, "Decision Makers"},
	{model.SectionPainPoints, "Pain Points"},
	{model.SectionHiringSignals, "Hiring Signals"},
}

// RenderReport fills the report template from bundle sections. Empty sections
// render the placeholder so the structural contract always holds.
func RenderReport(companyName string, sections map[model.SectionKey]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n", companyName)
	for _, sh := range sectionHeadings {
		content := strings.TrimSpace(sections[sh.Key])
		if content == "" {
			content = Placeholder
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", sh.Heading, content)
	}
	return b.String()
}

// ParseReportSections extracts heading -> content from a rendered report.
// Unknown headings are returned too; ValidateReport rejects them.
func ParseReportSections(body string) map[string]string {
	sections := make(map[string]string)
	var current string
	var buf strings.Builder
	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(buf.String())
		}
		buf.Reset()
	}
	for _, line := range strings.Split(body, "\n") {
		if heading, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			current = strings.TrimSpace(heading)
			continue
		}
		if current != "" {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	flush()
	return sections
}

// ValidateReport checks structural template conformance: every required
// heading present with a non-empty body, and no unknown top-level headings.
// Wording is not checked; only structure is a hard contract.
func ValidateReport(body string) error {
	if strings.TrimSpace(body) == "" {
		return eris.New("enhance: empty report body")
	}
	sections := ParseReportSections(body)
	required := ReportTemplate().Headings
	for _, h := range required {
		content, present := sections[h]
		if !present {
			return eris.New(fmt.Sprintf("enhance: missing report heading %q", h))
		}
		if content == "" {
			return eris.New(fmt.Sprintf("enhance: empty report section %q", h))
		}
	}
	known := make(map[string]bool, len(required))
	for _, h := range required {
		known[h] = true
	}
	for h := range sections {
		if !known[h] {
			return eris.New(fmt.Sprintf("enhance: unknown report heading %q", h))
		}
	}
	return nil
}

// RenderProfile fills the profile template from field values in template
// order. Missing fields render the placeholder.
func RenderProfile(companyName string, fields map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sales Profile: %s\n\n", companyName)
	for _, f := range ProfileTemplate().Fields {
		val := strings.TrimSpace(fields[f])
		if val == "" {
			val = Placeholder
		}
		fmt.Fprintf(&b, "%s: %s\n", f, strings.ReplaceAll(val, "\n", " "))
	}
	return b.String()
}

// ParseProfileFields extracts "Field: value" lines from a rendered profile.
func ParseProfileFields(body string) map[string]string {
	fields := make(map[string]string)
	known := make(map[string]bool)
	for _, f := range ProfileTemplate().Fields {
		known[f] = true
	}
	for _, line := range strings.Split(body, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if known[key] {
			fields[key] = strings.TrimSpace(val)
		}
	}
	return fields
}

// ValidateProfile checks that every profile field is present and non-empty
// and that the relevance score parses as an integer in [1,10].
func ValidateProfile(body string) error {
	if strings.TrimSpace(body) == "" {
		return eris.New("enhance: empty profile body")
	}
	fields := ParseProfileFields(body)
	for _, f := range ProfileTemplate().Fields {
		if strings.TrimSpace(fields[f]) == "" {
			return eris.New(fmt.Sprintf("enhance: missing profile field %q", f))
		}
	}
	score, err := strconv.Atoi(fields["Relevance Score"])
	if err != nil {
		return eris.Wrap(err, "enhance: relevance score not numeric")
	}
	if score < 1 || score > 10 {
		return eris.New(fmt.Sprintf("enhance: relevance score %d out of range", score))
	}
	return nil
}

// RelevanceScore extracts the numeric relevance score from a profile body.
func RelevanceScore(body string) (int, error) {
	fields := ParseProfileFields(body)
	score, err := strconv.Atoi(strings.TrimSpace(fields["Relevance Score"]))
	if err != nil {
		return 0, eris.Wrap(err, "enhance: parse relevance score")
	}
	return score, nil
}
