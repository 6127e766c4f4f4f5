package source

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/grata"
	"github.com/sells-group/prospector/pkg/jina"
	"github.com/sells-group/prospector/pkg/registry"
)

func TestWebCollectorReadsHomepage(t *testing.T) {
	mj := &mockJinaClient{}
	mj.On("Read", mock.Anything, "https://acme.com").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			Title:   "Acme Corp",
			Content: "Acme builds anvils. Our stack runs on AWS and Kubernetes with PostgreSQL.",
		},
	}, nil)

	c := &webCollector{jina: mj}
	payload, err := c.Collect(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Contains(t, payload["homepage_summary"], "Acme builds anvils")
	assert.Equal(t, "AWS, Kubernetes, PostgreSQL", payload["detected_technologies"])
	mj.AssertExpectations(t)
}

func TestWebCollectorFallsBackToSearchWithoutDomain(t *testing.T) {
	mj := &mockJinaClient{}
	mj.On("Search", mock.Anything, "Acme Corp official website").Return(&jina.SearchResponse{
		Code: 200,
		Data: []jina.SearchResult{{Title: "Acme Corp", URL: "https://www.acme.com/"}},
	}, nil)
	mj.On("Read", mock.Anything, "https://www.acme.com/").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: "Acme builds anvils."},
	}, nil)

	ident := testIdentity()
	ident.Domain = ""
	c := &webCollector{jina: mj}
	payload, err := c.Collect(context.Background(), ident)

	require.NoError(t, err)
	assert.NotEmpty(t, payload["homepage_summary"])
	mj.AssertExpectations(t)
}

func TestWebCollectorHonorsPayloadBound(t *testing.T) {
	mj := &mockJinaClient{}
	mj.On("Read", mock.Anything, "https://acme.com").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: strings.Repeat("anvil ", 200)},
	}, nil)

	c := &webCollector{jina: mj, maxFact: 64}
	payload, err := c.Collect(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.NotEmpty(t, payload["homepage_summary"])
	assert.LessOrEqual(t, len(payload["homepage_summary"]), 64)

	// Zero falls back to the default cap rather than emptying the payload.
	uncapped := &webCollector{jina: mj}
	payload, err = uncapped.Collect(context.Background(), testIdentity())
	require.NoError(t, err)
	assert.Greater(t, len(payload["homepage_summary"]), 64)
}

func TestWebCollectorEmptyContentIsError(t *testing.T) {
	mj := &mockJinaClient{}
	mj.On("Read", mock.Anything, "https://acme.com").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: "   \n"},
	}, nil)

	c := &webCollector{jina: mj}
	_, err := c.Collect(context.Background(), testIdentity())
	assert.Error(t, err)
}

func TestEnrichCollectorFormatsFirmographics(t *testing.T) {
	mg := &mockGrataClient{}
	mg.On("EnrichByDomain", mock.Anything, "acme.com").Return(&grata.Company{
		Name:          "Acme Corp",
		Domain:        "acme.com",
		Description:   "Industrial anvil manufacturer.",
		EmployeeCount: 250,
		YearFounded:   1947,
		Executives: []grata.Person{
			{Name: "Jordan Veil", Title: "CEO"},
		},
		SoftwareStack: []string{"NetSuite", "Salesforce"},
	}, nil)

	c := &enrichCollector{grata: mg}
	payload, err := c.Collect(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Contains(t, payload["firmographics"], "Acme Corp (acme.com)")
	assert.Contains(t, payload["firmographics"], "Employees: 250")
	assert.Contains(t, payload["firmographics"], "Founded: 1947")
	assert.Contains(t, payload["executives"], "Jordan Veil (CEO)")
	assert.Equal(t, "NetSuite, Salesforce", payload["software_stack"])
	mg.AssertExpectations(t)
}

func TestEnrichCollectorRequiresDomain(t *testing.T) {
	c := &enrichCollector{grata: &mockGrataClient{}}
	ident := testIdentity()
	ident.Domain = ""

	_, err := c.Collect(context.Background(), ident)
	assert.Error(t, err)
}

func TestEnrichCollectorUnknownDomain(t *testing.T) {
	mg := &mockGrataClient{}
	mg.On("EnrichByDomain", mock.Anything, "acme.com").Return(nil, nil)

	c := &enrichCollector{grata: mg}
	_, err := c.Collect(context.Background(), testIdentity())
	assert.Error(t, err)
}

func TestNewsCollectorCollectsNewsAndChallenges(t *testing.T) {
	mp := &mockPerplexityClient{}
	mp.On("AskRecent", mock.Anything, mock.Anything).Return("- Raised a Series B\n- Opened a Denver office", nil).Once()
	mp.On("AskRecent", mock.Anything, mock.Anything).Return("- Supply chain delays", nil).Once()

	c := &newsCollector{perplexity: mp}
	payload, err := c.Collect(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Contains(t, payload["recent_news"], "Series B")
	assert.Contains(t, payload["challenges"], "Supply chain")
}

func TestNewsCollectorToleratesChallengeFailure(t *testing.T) {
	mp := &mockPerplexityClient{}
	mp.On("AskRecent", mock.Anything, mock.Anything).Return("- Raised a Series B", nil).Once()
	mp.On("AskRecent", mock.Anything, mock.Anything).Return("", eris.New("quota exceeded")).Once()

	c := &newsCollector{perplexity: mp}
	payload, err := c.Collect(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Contains(t, payload["recent_news"], "Series B")
	assert.NotContains(t, payload, "challenges")
}

func TestRegistryCollectorFormatsFilings(t *testing.T) {
	mr := &mockRegistryClient{}
	mr.On("FindFilings", mock.Anything, "Acme Corp").Return([]registry.Filing{
		{
			LegalName:    "ACME CORP",
			Jurisdiction: "DE",
			EntityType:   "Corporation",
			Status:       "Active",
			RegisteredOn: "1947-03-12",
			MatchTier:    1,
			MatchScore:   1.0,
		},
	}, nil)

	c := &registryCollector{registry: mr}
	payload, err := c.Collect(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Contains(t, payload["filings"], "ACME CORP, DE Corporation, status Active, registered 1947-03-12")
	mr.AssertExpectations(t)
}

func TestRegistryCollectorNoMatches(t *testing.T) {
	mr := &mockRegistryClient{}
	mr.On("FindFilings", mock.Anything, "Acme Corp").Return([]registry.Filing{}, nil)

	c := &registryCollector{registry: mr}
	_, err := c.Collect(context.Background(), testIdentity())
	assert.Error(t, err)
}

func TestTruncatePreservesRuneBoundaries(t *testing.T) {
	s := "héllo wörld"
	out := truncate(s, 3)
	assert.LessOrEqual(t, len(out), 3)
	assert.True(t, len(out) == 0 || out[0] == 'h')

	assert.Equal(t, "abc", truncate("abc", 10))
}

func TestCollectorsCanonicalOrder(t *testing.T) {
	cols := Collectors(Deps{})
	require.Len(t, cols, 6)
	for i, name := range model.SourceNames() {
		assert.Equal(t, name, cols[i].Name())
	}
	for _, c := range cols {
		assert.False(t, c.Configured(), "nil deps leave every collector unconfigured")
	}
}
