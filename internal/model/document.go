package model

import "time"

// DocumentKind distinguishes the two generated artifacts per identity.
type DocumentKind string

const (
	KindReport  DocumentKind = "report"
	KindProfile DocumentKind = "profile"
)

// GenerationSource records how a document body was produced.
type GenerationSource string

const (
	GeneratedEnhanced GenerationSource = "enhanced"
	GeneratedFallback GenerationSource = "fallback"
)

// Document is a rendered, template-conformant artifact. Body always parses
// into the full template field set; missing facts appear as explicit
// placeholder text, never as absent fields.
type Document struct {
	IdentityID       string           `json:"identity_id"`
	Kind             DocumentKind     `json:"kind"`
	TemplateVersion  string           `json:"template_version"`
	Body             string           `json:"body"`
	GenerationSource GenerationSource `json:"generation_source"`
	// Confidence carries the bundle score the document was rendered from, so
	// profile generation does not need to re-run source collection.
	Confidence  float64   `json:"confidence"`
	GeneratedAt time.Time `json:"generated_at"`
}

// DocumentInfo is document metadata without the body, for listings.
type DocumentInfo struct {
	Kind      DocumentKind `json:"kind"`
	Exists    bool         `json:"exists"`
	Size      int          `json:"size"`
	CreatedAt time.Time    `json:"created_at"`
	Content   string       `json:"content,omitempty"`
}
