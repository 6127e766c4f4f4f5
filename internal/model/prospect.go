// Package model defines the core data types shared across the research pipeline.
package model

import "time"

// ProspectStatus represents the lifecycle state of a prospect identity.
type ProspectStatus string

const (
	StatusPending    ProspectStatus = "pending"
	StatusResearched ProspectStatus = "researched"
	StatusProfiled   ProspectStatus = "profiled"
	StatusFailed     ProspectStatus = "failed"
)

// statusRank orders the forward progression pending -> researched -> profiled.
// Failed is terminal and reachable from any state.
var statusRank = map[ProspectStatus]int{
	StatusPending:    0,
	StatusResearched: 1,
	StatusProfiled:   2,
}

// CanTransition reports whether a status change from cur to next is allowed.
// Status advances monotonically; re-running a stage may set the same status
// again (idempotent overwrite), but never moves backwards.
func CanTransition(cur, next ProspectStatus) bool {
	if next == StatusFailed {
		return true
	}
	curRank, ok := statusRank[cur]
	if !ok {
		// Failed identities are only revived by a fresh research pass.
		return next == StatusResearched
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return false
	}
	return nextRank >= curRank
}

// ProspectIdentity is the stable record for one researched company.
// ID is immutable once created; CreatedAt is preserved across re-runs.
type ProspectIdentity struct {
	ID          string         `json:"id"`
	CompanyName string         `json:"company_name"`
	Domain      string         `json:"domain,omitempty"`
	Status      ProspectStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Identifier is the caller-supplied reference to a prospect. At least one of
// Domain or CompanyName must carry a usable token.
type Identifier struct {
	Domain      string `json:"domain,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}
