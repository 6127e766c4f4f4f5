package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/jina"
)

// defaultFactBytes bounds each payload value so a single verbose page cannot
// dominate the bundle. Deps.MaxFactBytes overrides it.
const defaultFactBytes = 4096

// factCap resolves a collector's payload bound, falling back to the default
// when none was configured.
func factCap(n int) int {
	if n <= 0 {
		return defaultFactBytes
	}
	return n
}

// techKeywords are stack markers scanned for in page content.
var techKeywords = []string{
	"AWS", "Azure", "Google Cloud", "Kubernetes", "Docker", "Terraform",
	"Salesforce", "HubSpot", "Shopify", "WordPress", "React", "Angular",
	"Python", "Java", "PostgreSQL", "MongoDB", "Snowflake", "Databricks",
	"SAP", "Oracle", "NetSuite", "Workday", "ServiceNow", "Stripe",
}

// webCollector reads the prospect's homepage through the Jina reader.
type webCollector struct {
	jina    jina.Client
	maxFact int
}

func (c *webCollector) Name() string { return model.SourceWebPresence }

func (c *webCollector) Configured() bool { return c.jina != nil }

func (c *webCollector) Collect(ctx context.Context, ident *model.ProspectIdentity) (map[string]string, error) {
	target := ident.Domain
	if target == "" {
		resp, err := c.jina.Search(ctx, ident.CompanyName+" official website")
		if err != nil {
			return nil, eris.Wrap(err, "source: web search")
		}
		if len(resp.Data) == 0 {
			return nil, eris.New("source: web search returned no results")
		}
		target = resp.Data[0].URL
	} else {
		target = "https://" + target
	}

	resp, err := c.jina.Read(ctx, target)
	if err != nil {
		return nil, eris.Wrap(err, "source: web read")
	}
	content := resp.Data.Content
	if strings.TrimSpace(content) == "" {
		return nil, eris.New("source: web page had no readable content")
	}

	payload := map[string]string{
		"homepage_summary": truncate(content, factCap(c.maxFact)),
	}
	if techs := detectTechnologies(content); len(techs) > 0 {
		payload["detected_technologies"] = strings.Join(techs, ", ")
	}
	return payload, nil
}

// detectTechnologies returns the known stack markers present in content,
// preserving scan order and deduplicating.
func detectTechnologies(content string) []string {
	lower := strings.ToLower(content)
	var found []string
	for _, kw := range techKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for i := n; i > 0; i-- {
		if (s[i] & 0xC0) != 0x80 {
			return s[:i]
		}
	}
	return ""
}
