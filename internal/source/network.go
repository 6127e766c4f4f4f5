package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/jina"
)

// networkCollector searches professional network pages for company and
// leadership facts.
type networkCollector struct {
	jina    jina.Client
	maxFact int
}

func (c *networkCollector) Name() string { return model.SourceProfessionalNet }

func (c *networkCollector) Configured() bool { return c.jina != nil }

func (c *networkCollector) Collect(ctx context.Context, ident *model.ProspectIdentity) (map[string]string, error) {
	query := fmt.Sprintf("site:linkedin.com/company %s", ident.CompanyName)
	resp, err := c.jina.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "source: network search")
	}
	if len(resp.Data) == 0 {
		return nil, eris.New("source: no professional network presence found")
	}

	payload := map[string]string{
		"company_page": truncate(summarizeResults(resp.Data, 3), factCap(c.maxFact)),
	}

	people, err := c.jina.Search(ctx, fmt.Sprintf("site:linkedin.com/in %s CEO OR CTO OR VP", ident.CompanyName))
	if err == nil && len(people.Data) > 0 {
		payload["people"] = truncate(summarizeResults(people.Data, 5), factCap(c.maxFact))
	}
	return payload, nil
}

// summarizeResults joins the first n search hits into a newline-delimited digest.
func summarizeResults(results []jina.SearchResult, n int) string {
	if len(results) < n {
		n = len(results)
	}
	lines := make([]string, 0, n)
	for _, r := range results[:n] {
		desc := r.Description
		if desc == "" {
			desc = r.Content
		}
		lines = append(lines, strings.TrimSpace(r.Title+": "+desc))
	}
	return strings.Join(lines, "\n")
}
