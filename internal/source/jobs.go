package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/jina"
)

// jobsCollector searches job boards for open roles, a proxy for growth
// areas and the technologies a company is actually investing in.
type jobsCollector struct {
	jina    jina.Client
	maxFact int
}

func (c *jobsCollector) Name() string { return model.SourceJobPostings }

func (c *jobsCollector) Configured() bool { return c.jina != nil }

func (c *jobsCollector) Collect(ctx context.Context, ident *model.ProspectIdentity) (map[string]string, error) {
	query := fmt.Sprintf("%s jobs hiring site:greenhouse.io OR site:lever.co OR site:linkedin.com/jobs", ident.CompanyName)
	resp, err := c.jina.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "source: jobs search")
	}
	if len(resp.Data) == 0 {
		return nil, eris.New("source: no job postings found")
	}

	payload := map[string]string{
		"open_roles": truncate(summarizeResults(resp.Data, 5), factCap(c.maxFact)),
	}

	var corpus strings.Builder
	for _, r := range resp.Data {
		corpus.WriteString(r.Title)
		corpus.WriteString(" ")
		corpus.WriteString(r.Description)
		corpus.WriteString(" ")
		corpus.WriteString(r.Content)
		corpus.WriteString(" ")
	}
	if techs := detectTechnologies(corpus.String()); len(techs) > 0 {
		payload["role_technologies"] = strings.Join(techs, ", ")
	}
	return payload, nil
}
