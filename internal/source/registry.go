package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/registry"
)

// registryCollector looks up corporate filings in the mirrored government
// registry database.
type registryCollector struct {
	registry registry.Querier
	maxFact  int
}

func (c *registryCollector) Name() string { return model.SourceGovernmentRegistry }

func (c *registryCollector) Configured() bool { return c.registry != nil }

func (c *registryCollector) Collect(ctx context.Context, ident *model.ProspectIdentity) (map[string]string, error) {
	filings, err := c.registry.FindFilings(ctx, ident.CompanyName)
	if err != nil {
		return nil, eris.Wrap(err, "source: registry lookup")
	}
	if len(filings) == 0 {
		return nil, eris.New("source: no registry filings matched")
	}

	lines := make([]string, 0, len(filings))
	for _, f := range filings {
		line := fmt.Sprintf("%s, %s %s, status %s", f.LegalName, f.Jurisdiction, f.EntityType, f.Status)
		if f.RegisteredOn != "" {
			line += ", registered " + f.RegisteredOn
		}
		if f.MatchTier > 1 {
			line += fmt.Sprintf(" (fuzzy match %.2f)", f.MatchScore)
		}
		lines = append(lines, line)
	}
	return map[string]string{
		"filings": truncate(strings.Join(lines, "\n"), factCap(c.maxFact)),
	}, nil
}
