// Package generate orchestrates template lookup, layout resolution and
// compositing into one synchronous, request-scoped unit of work.
package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matchday/tifo/binding"
	"github.com/matchday/tifo/layout"
	"github.com/matchday/tifo/renderer"
	"github.com/matchday/tifo/template"
)

// TemplateStore supplies the active template for a content type. The
// surrounding application owns template CRUD; the pipeline only reads.
// *template.Registry satisfies this.
type TemplateStore interface {
	ActiveTemplate(ctx context.Context, ct template.ContentType) (*template.Template, bool)
}

// EntityDataProvider maps an entity ID (match, player, club) to its
// attribute bundle, shaped like decoded JSON so dotted field paths such
// as "club.name" resolve.
type EntityDataProvider interface {
	Attributes(ctx context.Context, entityID string) (map[string]any, error)
}

// StorageSink persists the rendered image and returns a durable
// reference, opaque to the pipeline.
type StorageSink interface {
	Store(ctx context.Context, artifactID string, png []byte) (string, error)
}

// TemplateNotFoundError means no template is registered for the
// requested content type.
type TemplateNotFoundError struct {
	ContentType template.ContentType
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("generate: no template for content type %q", e.ContentType)
}

// GenerationError wraps an unrecoverable failure after template lookup,
// e.g. an unreadable base image or a compositor error.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate: %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GeneratedArtifact is the immutable result of one generation call.
type GeneratedArtifact struct {
	ID          uuid.UUID            `json:"id"`
	TemplateID  string               `json:"templateId"`
	ContentType template.ContentType `json:"contentType"`
	EntityIDs   []string             `json:"entityIds"`
	Image       []byte               `json:"-"`
	Ref         string               `json:"ref,omitempty"` // set when a StorageSink is configured
	Warnings    []layout.Warning     `json:"warnings,omitempty"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// Config wires the pipeline's collaborators. Templates, Assets and
// Renderer are required; Entities and Storage are optional.
type Config struct {
	Templates TemplateStore
	Entities  EntityDataProvider
	Assets    renderer.AssetFetcher
	Storage   StorageSink
	Renderer  renderer.Renderer
}

// Generator runs generation calls. Safe for concurrent use; all
// per-call state is request-scoped.
type Generator struct {
	cfg Config
}

// New validates the wiring and returns a Generator.
func New(cfg Config) (*Generator, error) {
	if cfg.Templates == nil {
		return nil, fmt.Errorf("generate: missing template store")
	}
	if cfg.Assets == nil {
		return nil, fmt.Errorf("generate: missing asset fetcher")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("generate: missing renderer")
	}
	return &Generator{cfg: cfg}, nil
}

// Generate renders the active template for ct with the attributes of
// entityIDs. Fatal errors (*TemplateNotFoundError,
// *layout.MissingFieldError, *GenerationError) return before any image
// is produced; element-level issues surface as artifact Warnings.
func (g *Generator) Generate(ctx context.Context, ct template.ContentType, entityIDs ...string) (*GeneratedArtifact, error) {
	tpl, ok := g.cfg.Templates.ActiveTemplate(ctx, ct)
	if !ok {
		return nil, &TemplateNotFoundError{ContentType: ct}
	}

	rctx, err := g.assembleContext(ctx, tpl, entityIDs)
	if err != nil {
		return nil, err
	}

	resolved, warnings, err := layout.Resolve(tpl, rctx)
	if err != nil {
		return nil, err // *layout.MissingFieldError aborts before rendering
	}

	base, err := g.cfg.Assets.Fetch(ctx, tpl.BaseImage)
	if err != nil {
		return nil, &GenerationError{Stage: "fetch base image", Err: err}
	}

	png, renderWarnings, err := g.cfg.Renderer.Composite(ctx, base, resolved)
	if err != nil {
		return nil, &GenerationError{Stage: "composite", Err: err}
	}
	warnings = append(warnings, renderWarnings...)

	artifact := &GeneratedArtifact{
		ID:          uuid.New(),
		TemplateID:  tpl.ID,
		ContentType: ct,
		EntityIDs:   entityIDs,
		Image:       png,
		Warnings:    warnings,
		GeneratedAt: time.Now().UTC(),
	}

	if g.cfg.Storage != nil {
		ref, err := g.cfg.Storage.Store(ctx, artifact.ID.String(), png)
		if err != nil {
			return nil, &GenerationError{Stage: "store artifact", Err: err}
		}
		artifact.Ref = ref
	}
	return artifact, nil
}

// assembleContext merges the entity attribute bundles and maps them onto
// the template's declared field names, including placeholder names in
// templated content. Later entities win on conflicting attributes.
func (g *Generator) assembleContext(ctx context.Context, tpl *template.Template, entityIDs []string) (layout.Context, error) {
	merged := map[string]any{}
	if g.cfg.Entities != nil {
		for _, id := range entityIDs {
			attrs, err := g.cfg.Entities.Attributes(ctx, id)
			if err != nil {
				return nil, &GenerationError{Stage: "load entity " + id, Err: err}
			}
			for k, v := range attrs {
				merged[k] = v
			}
		}
	}

	rctx := layout.Context{}
	bind := func(name string) {
		if _, done := rctx[name]; done {
			return
		}
		if value, ok := binding.ResolveString(merged, name); ok {
			rctx[name] = value
		}
	}
	for _, el := range tpl.Elements {
		bind(el.FieldName)
		for _, name := range binding.Placeholders(el.Content) {
			bind(name)
		}
	}
	return rctx, nil
}
