// Package layout binds a template's declared elements to per-request
// data, producing the resolved elements the compositor draws.
package layout

import (
	"github.com/matchday/tifo/binding"
	"github.com/matchday/tifo/template"
)

// Resolve produces one ResolvedElement per visible template element, in
// draw order. It fails with *MissingFieldError when a required field has
// no context entry and no default; that check runs for every element
// before anything is rendered. Unknown extra context fields are ignored.
// Optional elements without a value are dropped with a Warning.
func Resolve(t *template.Template, ctx Context) ([]ResolvedElement, []Warning, error) {
	var resolved []ResolvedElement
	var warnings []Warning

	for _, el := range t.Ordered() {
		if !el.Visible {
			continue
		}
		content, ok, err := elementContent(t, el, ctx)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			warnings = append(warnings, Warningf(el.FieldName, "no value supplied, element dropped"))
			continue
		}
		resolved = append(resolved, ResolvedElement{Element: el, Content: content})
	}
	return resolved, warnings, nil
}

// elementContent resolves the content for one element. The bool result
// reports whether the element has usable content at all.
func elementContent(t *template.Template, el template.Element, ctx Context) (string, bool, error) {
	// Templated content: every placeholder must resolve; a missing one
	// follows the element's required/optional contract.
	if el.Kind == template.KindText && el.Content != "" {
		for _, name := range binding.Placeholders(el.Content) {
			if _, ok := ctx.Lookup(name); ok {
				continue
			}
			if el.Required {
				return "", false, &MissingFieldError{Template: t.ID, Field: name}
			}
			return "", false, nil
		}
		return binding.Interpolate(el.Content, ctx.Lookup), true, nil
	}

	if value, ok := ctx.Lookup(el.FieldName); ok {
		return value, true, nil
	}
	if el.Default != "" {
		return el.Default, true, nil
	}
	if el.Required {
		return "", false, &MissingFieldError{Template: t.ID, Field: el.FieldName}
	}
	return "", false, nil
}
