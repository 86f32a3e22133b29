// Package psd parses Photoshop documents into absolute-coordinate layer
// metadata. Only the structure needed for template curation is read:
// the file header, the layer records with their section dividers, names,
// bounds, visibility and opacity. Pixel data is never decoded.
package psd

import (
	"fmt"

	"github.com/matchday/tifo/template"
)

// UnreadableDocumentError reports a corrupt or unsupported document.
type UnreadableDocumentError struct {
	Reason string
	Err    error
}

func (e *UnreadableDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("psd: unreadable document: %s: %v", e.Reason, e.Err)
	}
	return "psd: unreadable document: " + e.Reason
}

func (e *UnreadableDocumentError) Unwrap() error { return e.Err }

// NoLayersError reports a structurally valid document with zero leaf
// layers, e.g. a flattened export.
type NoLayersError struct{}

func (e *NoLayersError) Error() string { return "psd: document contains no layers" }

// ExtractedLayer is one leaf layer. Group layers never appear as
// entries; they only contribute to QualifiedName. The bbox is absolute
// to the document origin regardless of nesting depth.
type ExtractedLayer struct {
	QualifiedName string               `json:"qualifiedName"` // group-path-prefixed, e.g. "kit/home/badge"
	BBox          template.BBox        `json:"bbox"`
	Visible       bool                 `json:"visible"`
	Opacity       float64              `json:"opacity"` // percent, 0-100
	KindHint      template.ElementKind `json:"kindHint"`
}

// ExtractedDocument is the layer metadata of one design document.
type ExtractedDocument struct {
	Width  int              `json:"width"`
	Height int              `json:"height"`
	Layers []ExtractedLayer `json:"layers"` // document stacking order, bottom first
}
