package layout

import (
	"fmt"

	"github.com/matchday/tifo/template"
)

// Context holds the per-request field bindings filling a template. It is
// borrowed read-only by the engine for the duration of one call.
type Context map[string]string

// Lookup implements the binding.Lookup contract.
func (c Context) Lookup(name string) (string, bool) {
	v, ok := c[name]
	return v, ok
}

// Warning records a non-fatal issue (dropped asset, text overflow, font
// clamp). Warnings are accumulated in element order and attached to the
// generated artifact; none is ever silently dropped.
type Warning struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (w Warning) String() string { return w.Field + ": " + w.Reason }

// Warningf builds a Warning with a formatted reason.
func Warningf(field, format string, args ...any) Warning {
	return Warning{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// MissingFieldError aborts generation before any rendering: a required
// field has neither a context entry nor a default.
type MissingFieldError struct {
	Template string
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("template %s: missing required field %q", e.Template, e.Field)
}

// ResolvedElement is one template element bound to request content. For
// text elements Content is the final string; for image elements it is
// the fetchable reference.
type ResolvedElement struct {
	Element template.Element `json:"element"`
	Content string           `json:"content"`
}
