package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/grata"
)

// enrichCollector pulls firmographic facts from the Grata enrichment API.
// It requires a domain; name-only prospects are out of its reach.
type enrichCollector struct {
	grata grata.Client
}

func (c *enrichCollector) Name() string { return model.SourceEnrichmentAPI }

func (c *enrichCollector) Configured() bool { return c.grata != nil }

func (c *enrichCollector) Collect(ctx context.Context, ident *model.ProspectIdentity) (map[string]string, error) {
	if ident.Domain == "" {
		return nil, eris.New("source: enrichment requires a domain")
	}

	company, err := c.grata.EnrichByDomain(ctx, ident.Domain)
	if err != nil {
		return nil, eris.Wrap(err, "source: enrich lookup")
	}
	if company == nil {
		return nil, eris.New("source: domain not known to enrichment provider")
	}

	payload := map[string]string{
		"firmographics": formatFirmographics(company),
	}
	if len(company.Executives) > 0 {
		lines := make([]string, 0, len(company.Executives))
		for _, p := range company.Executives {
			lines = append(lines, p.Name+" ("+p.Title+")")
		}
		payload["executives"] = strings.Join(lines, "\n")
	}
	if len(company.SoftwareStack) > 0 {
		payload["software_stack"] = strings.Join(company.SoftwareStack, ", ")
	}
	return payload, nil
}

func formatFirmographics(co *grata.Company) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", co.Name, co.Domain)
	if co.Description != "" {
		fmt.Fprintf(&b, "\n%s", co.Description)
	}
	if co.EmployeeCount > 0 {
		fmt.Fprintf(&b, "\nEmployees: %d", co.EmployeeCount)
	} else if co.EmployeeRange != "" {
		fmt.Fprintf(&b, "\nEmployees: %s", co.EmployeeRange)
	}
	if co.YearFounded > 0 {
		fmt.Fprintf(&b, "\nFounded: %d", co.YearFounded)
	}
	if co.OwnershipType != "" {
		fmt.Fprintf(&b, "\nOwnership: %s", co.OwnershipType)
	}
	if co.HeadquartersC != "" {
		fmt.Fprintf(&b, "\nHeadquarters: %s", co.HeadquartersC)
	}
	if len(co.Industries) > 0 {
		fmt.Fprintf(&b, "\nIndustries: %s", strings.Join(co.Industries, ", "))
	}
	if co.RevenueEst != "" {
		fmt.Fprintf(&b, "\nEstimated revenue: %s", co.RevenueEst)
	}
	return b.String()
}
