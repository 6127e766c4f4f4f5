// Package source implements the research source collectors and the
// orchestrator that fans out across them.
package source

import (
	"context"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/grata"
	"github.com/sells-group/prospector/pkg/jina"
	"github.com/sells-group/prospector/pkg/perplexity"
	"github.com/sells-group/prospector/pkg/registry"
)

// Collector gathers raw facts about a prospect from one external source.
// Collect returns a payload of fact keys to text values. Implementations
// must respect ctx cancellation; the orchestrator enforces deadlines.
type Collector interface {
	// Name returns the stable source name used in results and section mapping.
	Name() string
	// Configured reports whether the collector has the credentials it needs.
	// Unconfigured collectors are never invoked.
	Configured() bool
	Collect(ctx context.Context, ident *model.ProspectIdentity) (map[string]string, error)
}

// Deps carries the external clients the collectors draw from. Nil fields
// leave the corresponding collectors unconfigured.
type Deps struct {
	Jina       jina.Client
	Perplexity perplexity.Client
	Grata      grata.Client
	Registry   registry.Querier
	// MaxFactBytes bounds each payload value. Zero means the default cap.
	MaxFactBytes int
}

// Collectors returns the full source set in canonical order. The
// orchestrator trims this list according to the requested depth.
func Collectors(d Deps) []Collector {
	return []Collector{
		&webCollector{jina: d.Jina, maxFact: d.MaxFactBytes},
		&networkCollector{jina: d.Jina, maxFact: d.MaxFactBytes},
		&enrichCollector{grata: d.Grata},
		&jobsCollector{jina: d.Jina, maxFact: d.MaxFactBytes},
		&newsCollector{perplexity: d.Perplexity, maxFact: d.MaxFactBytes},
		&registryCollector{registry: d.Registry, maxFact: d.MaxFactBytes},
	}
}
