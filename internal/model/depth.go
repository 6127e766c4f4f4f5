package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Depth controls how many sources a research pass queries and the per-source
// timeout budget.
type Depth string

const (
	DepthBasic         Depth = "basic"
	DepthStandard      Depth = "standard"
	DepthComprehensive Depth = "comprehensive"
)

// ParseDepth validates a depth string, defaulting empty input to standard.
func ParseDepth(s string) (Depth, error) {
	switch Depth(s) {
	case "":
		return DepthStandard, nil
	case DepthBasic, DepthStandard, DepthComprehensive:
		return Depth(s), nil
	default:
		return "", eris.Wrapf(ErrInvalidIdentifier, "unknown depth %q", s)
	}
}

// SourceCount returns how many sources of the ordered set this depth invokes.
func (d Depth) SourceCount() int {
	switch d {
	case DepthBasic:
		return 3
	case DepthComprehensive:
		return 6
	default:
		return 5
	}
}

// SourceTimeout returns the per-collector timeout budget.
func (d Depth) SourceTimeout() time.Duration {
	switch d {
	case DepthBasic:
		return 5 * time.Second
	case DepthComprehensive:
		return 20 * time.Second
	default:
		return 10 * time.Second
	}
}
