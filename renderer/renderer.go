// Package renderer defines the compositing contract between the
// generation pipeline and its rendering backends.
package renderer

import (
	"context"
	"image"

	"github.com/matchday/tifo/layout"
)

// AssetFetcher resolves an image reference (URL or storage key) into a
// decoded image. Implementations must honor ctx cancellation and carry a
// bounded timeout so a slow asset degrades to an element Warning.
type AssetFetcher interface {
	Fetch(ctx context.Context, ref string) (image.Image, error)
}

// Renderer rasterizes a base image plus resolved elements into one
// encoded output image with the base image's exact dimensions. Element
// failures (fetch, decode) surface as Warnings, not errors; a returned
// error means no usable image was produced.
type Renderer interface {
	Composite(ctx context.Context, base image.Image, elements []layout.ResolvedElement) ([]byte, []layout.Warning, error)
}
