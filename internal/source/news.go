package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/perplexity"
)

// newsCollector asks Perplexity for recent developments and publicly
// discussed challenges.
type newsCollector struct {
	perplexity perplexity.Client
	maxFact    int
}

func (c *newsCollector) Name() string { return model.SourceNewsSearch }

func (c *newsCollector) Configured() bool { return c.perplexity != nil }

func (c *newsCollector) Collect(ctx context.Context, ident *model.ProspectIdentity) (map[string]string, error) {
	subject := ident.CompanyName
	if ident.Domain != "" {
		subject = fmt.Sprintf("%s (%s)", ident.CompanyName, ident.Domain)
	}

	news, err := c.perplexity.AskRecent(ctx, fmt.Sprintf(
		"Summarize recent news about the company %s: funding, leadership changes, product launches, partnerships. Bullet points, facts only.", subject))
	if err != nil {
		return nil, eris.Wrap(err, "source: news query")
	}
	if strings.TrimSpace(news) == "" {
		return nil, eris.New("source: news query returned nothing")
	}

	payload := map[string]string{
		"recent_news": truncate(news, factCap(c.maxFact)),
	}

	challenges, err := c.perplexity.AskRecent(ctx, fmt.Sprintf(
		"What business challenges or operational pain points has the company %s publicly discussed or been reported to face? Bullet points, facts only.", subject))
	if err == nil && strings.TrimSpace(challenges) != "" {
		payload["challenges"] = truncate(challenges, factCap(c.maxFact))
	}
	return payload, nil
}
