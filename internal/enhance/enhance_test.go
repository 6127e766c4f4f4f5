package enhance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/model"
)

// stubBackend returns a canned response or error.
type stubBackend struct {
	out   string
	err   error
	calls int
}

func (s *stubBackend) Transform(ctx context.Context, system, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.out, nil
}

func testIdent() *model.ProspectIdentity {
	return &model.ProspectIdentity{
		ID:          "ident-1",
		CompanyName: "Acme Corp",
		Domain:      "acme.com",
		Status:      model.StatusResearched,
	}
}

func testBundle() model.ResearchBundle {
	sections := map[model.SectionKey]string{
		model.SectionCompanyOverview:    "Acme Corp manufactures industrial anvils. Founded in 1947.",
		model.SectionRecentDevelopments: "Acme raised a Series B in June.",
		model.SectionTechnologyStack:    "AWS, Kubernetes, NetSuite.",
		model.SectionDecisionMakers:     "Jordan Veil (CEO).",
		model.SectionPainPoints:         "Supply chain delays in raw steel.",
		model.SectionHiringSignals:      "",
	}
	return model.ResearchBundle{
		IdentityID:      "ident-1",
		ConfidenceScore: 0.72,
		Sections:        sections,
	}
}

func validGeneratedReport() string {
	return RenderReport("Acme Corp", testBundle().Sections)
}

func validGeneratedProfile() string {
	return RenderProfile("Acme Corp", map[string]string{
		"Company Name":           "Acme Corp",
		"Domain":                 "acme.com",
		"Overview":               "Industrial anvil manufacturer.",
		"Conversation Starter 1": "Congrats on the Series B.",
		"Conversation Starter 2": "How is the steel sourcing going?",
		"Value Proposition":      "We smooth out supply chains.",
		"Relevance Score":        "8",
	})
}

func TestEnhanceReportUsesBackendWhenValid(t *testing.T) {
	backend := &stubBackend{out: validGeneratedReport()}
	e := NewEnhancer(backend, time.Minute, 5)

	doc := e.EnhanceReport(context.Background(), testIdent(), testBundle())

	assert.Equal(t, model.GeneratedEnhanced, doc.GenerationSource)
	assert.Equal(t, model.KindReport, doc.Kind)
	assert.InDelta(t, 0.72, doc.Confidence, 1e-9)
	require.NoError(t, ValidateReport(doc.Body))
}

func TestEnhanceReportFallsBackOnBackendError(t *testing.T) {
	backend := &stubBackend{err: eris.New("backend unreachable")}
	e := NewEnhancer(backend, time.Minute, 5)

	doc := e.EnhanceReport(context.Background(), testIdent(), testBundle())

	assert.Equal(t, model.GeneratedFallback, doc.GenerationSource)
	require.NoError(t, ValidateReport(doc.Body), "fallback output must pass template validation")
	assert.Contains(t, doc.Body, "Acme Corp manufactures industrial anvils.")
	assert.Contains(t, doc.Body, Placeholder, "empty sections render the placeholder")
}

func TestEnhanceReportFallsBackOnNonConformantOutput(t *testing.T) {
	backend := &stubBackend{out: "# Report\n\n## Company Overview\nGood stuff.\n\n## Made Up Heading\nNope.\n"}
	e := NewEnhancer(backend, time.Minute, 5)

	doc := e.EnhanceReport(context.Background(), testIdent(), testBundle())

	assert.Equal(t, model.GeneratedFallback, doc.GenerationSource)
	require.NoError(t, ValidateReport(doc.Body))
}

func TestEnhanceReportNilBackendFallsBack(t *testing.T) {
	e := NewEnhancer(nil, time.Minute, 5)
	doc := e.EnhanceReport(context.Background(), testIdent(), testBundle())
	assert.Equal(t, model.GeneratedFallback, doc.GenerationSource)
	require.NoError(t, ValidateReport(doc.Body))
}

func TestGenerateProfileUsesBackendWhenValid(t *testing.T) {
	backend := &stubBackend{out: validGeneratedProfile()}
	e := NewEnhancer(backend, time.Minute, 5)
	report := model.Document{IdentityID: "ident-1", Kind: model.KindReport, Body: validGeneratedReport(), Confidence: 0.72}

	doc := e.GenerateProfile(context.Background(), testIdent(), report, []string{"cloud costs"})

	assert.Equal(t, model.GeneratedEnhanced, doc.GenerationSource)
	assert.Equal(t, model.KindProfile, doc.Kind)
	require.NoError(t, ValidateProfile(doc.Body))

	score, err := RelevanceScore(doc.Body)
	require.NoError(t, err)
	assert.Equal(t, 8, score)
}

func TestGenerateProfileFallbackExtractsFromReport(t *testing.T) {
	backend := &stubBackend{err: eris.New("quota exhausted")}
	e := NewEnhancer(backend, time.Minute, 7)
	report := model.Document{IdentityID: "ident-1", Kind: model.KindReport, Body: validGeneratedReport(), Confidence: 0.72}

	doc := e.GenerateProfile(context.Background(), testIdent(), report, nil)

	assert.Equal(t, model.GeneratedFallback, doc.GenerationSource)
	require.NoError(t, ValidateProfile(doc.Body))

	fields := ParseProfileFields(doc.Body)
	assert.Equal(t, "Acme Corp", fields["Company Name"])
	assert.Equal(t, "acme.com", fields["Domain"])
	assert.Contains(t, fields["Overview"], "industrial anvils")

	score, err := RelevanceScore(doc.Body)
	require.NoError(t, err)
	assert.Equal(t, 7, score, "fallback assigns the neutral default score")
}

func TestGenerateProfileFallbackOnInvalidScore(t *testing.T) {
	bad := validGeneratedProfile()
	backend := &stubBackend{out: bad[:len(bad)-len("8\n")] + "eleven\n"}
	e := NewEnhancer(backend, time.Minute, 5)
	report := model.Document{Body: validGeneratedReport()}

	doc := e.GenerateProfile(context.Background(), testIdent(), report, nil)
	assert.Equal(t, model.GeneratedFallback, doc.GenerationSource)
}

func TestFallbackProfileFromAllDemoReport(t *testing.T) {
	sections := make(map[model.SectionKey]string)
	for _, k := range model.SectionKeys() {
		sections[k] = "[demo] synthetic content"
	}
	report := FallbackReport(testIdent(), model.ResearchBundle{Sections: sections})
	body := FallbackProfile(testIdent(), report, 5)

	require.NoError(t, ValidateProfile(body))
	fields := ParseProfileFields(body)
	assert.Equal(t, Placeholder, fields["Overview"], "demo text never leaks into profile fields")

	score, err := RelevanceScore(body)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 1)
	assert.LessOrEqual(t, score, 10)
}

func TestValidateReportRejectsMissingHeading(t *testing.T) {
	sections := testBundle().Sections
	body := RenderReport("Acme Corp", sections)
	broken := []string{}
	for _, line := range strings.Split(body, "\n") {
		if line == "## Pain Points" {
			continue
		}
		broken = append(broken, line)
	}
	err := ValidateReport(strings.Join(broken, "\n"))
	assert.Error(t, err)
}

func TestValidateProfileRejectsMissingField(t *testing.T) {
	body := RenderProfile("Acme Corp", map[string]string{
		"Company Name": "Acme Corp",
	})
	// RenderProfile fills placeholders, so trim a field out entirely.
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if len(line) >= 6 && line[:6] == "Domain" {
			continue
		}
		lines = append(lines, line)
	}
	assert.Error(t, ValidateProfile(strings.Join(lines, "\n")))
}

func TestRenderReportDeterministic(t *testing.T) {
	a := RenderReport("Acme Corp", testBundle().Sections)
	b := RenderReport("Acme Corp", testBundle().Sections)
	assert.Equal(t, a, b)
}
