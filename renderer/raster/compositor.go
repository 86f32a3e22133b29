// Package raster composites resolved elements over a base image using
// github.com/tdewolff/canvas and encodes the result as PNG.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	xdraw "golang.org/x/image/draw"

	"github.com/matchday/tifo/fonts"
	"github.com/matchday/tifo/layout"
	"github.com/matchday/tifo/renderer"
	"github.com/matchday/tifo/template"
	"github.com/matchday/tifo/textfit"
)

// Options configures the compositor.
type Options struct {
	Fetcher renderer.AssetFetcher // required for image elements
	Fonts   *fonts.Library        // nil means builtin faces only
}

// Compositor draws elements in layout order onto the base image. Safe
// for concurrent use: all per-call state lives on the stack.
type Compositor struct {
	fetcher renderer.AssetFetcher
	fonts   *fonts.Library
}

var _ renderer.Renderer = (*Compositor)(nil)

// New creates a compositor.
func New(opts Options) *Compositor {
	lib := opts.Fonts
	if lib == nil {
		lib = fonts.NewLibrary()
	}
	return &Compositor{fetcher: opts.Fetcher, fonts: lib}
}

// Composite renders the elements over base and returns PNG bytes with
// the base image's exact dimensions. Per-element failures drop the
// element and record a Warning; composition continues.
func (c *Compositor) Composite(ctx context.Context, base image.Image, elements []layout.ResolvedElement) ([]byte, []layout.Warning, error) {
	if base == nil {
		return nil, nil, fmt.Errorf("raster: nil base image")
	}
	bounds := base.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	if w <= 0 || h <= 0 {
		return nil, nil, fmt.Errorf("raster: empty base image")
	}

	cnv := canvas.New(w, h)
	cctx := canvas.NewContext(cnv)
	cctx.SetCoordSystem(canvas.CartesianIV) // top-left origin, as in template coordinates
	cctx.DrawImage(0, 0, base, canvas.DPMM(1.0))

	var warnings []layout.Warning
	for _, el := range elements {
		var warn []layout.Warning
		var err error
		switch el.Element.Kind {
		case template.KindText:
			warn, err = c.drawText(cctx, el)
		case template.KindImage:
			warn, err = c.drawImage(ctx, cctx, el)
		default:
			err = fmt.Errorf("unknown element kind %q", el.Element.Kind)
		}
		warnings = append(warnings, warn...)
		if err != nil {
			warnings = append(warnings, layout.Warningf(el.Element.FieldName, "dropped: %v", err))
		}
	}

	img := rasterizer.Draw(cnv, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, warnings, fmt.Errorf("raster: encode png: %w", err)
	}
	return buf.Bytes(), warnings, nil
}

func (c *Compositor) drawText(cctx *canvas.Context, el layout.ResolvedElement) ([]layout.Warning, error) {
	style := el.Element.Style
	box := el.Element.BBox

	family, err := c.fonts.Family(style.FontFamily)
	if err != nil {
		return nil, err
	}
	fontStyle := fonts.ParseStyle(style.FontStyle)

	fit := textfit.Fit(textfit.Request{
		Text:       el.Content,
		BoxW:       box.W,
		BoxH:       box.H,
		Family:     family,
		Style:      fontStyle,
		MinSize:    style.MinFontSize,
		MaxSize:    style.MaxFontSize,
		LineHeight: style.LineHeight,
	})

	var warnings []layout.Warning
	if fit.Overflow {
		warnings = append(warnings, layout.Warningf(el.Element.FieldName,
			"text overflows box vertically at minimum font size %g", fit.Size))
	}
	if fit.WideWord {
		warnings = append(warnings, layout.Warningf(el.Element.FieldName,
			"word wider than box, left unbroken"))
	}

	align, anchorX := horizontalAnchor(style.Align, box)
	top := verticalAnchor(style.VAlign, box, fit.BlockHeight)

	restore := applyRotation(cctx, el.Element)
	defer restore()

	if style.Shadow != nil {
		shadowFace := family.Face(textfit.FaceSize(fit.Size), toColor(style.Shadow.Color), fontStyle, canvas.FontNormal)
		drawLines(cctx, fit, shadowFace, align, anchorX+style.Shadow.DX, top+style.Shadow.DY)
	}
	face := family.Face(textfit.FaceSize(fit.Size), toColor(style.Color), fontStyle, canvas.FontNormal)
	drawLines(cctx, fit, face, align, anchorX, top)
	return warnings, nil
}

func drawLines(cctx *canvas.Context, fit textfit.Result, face *canvas.FontFace, align canvas.TextAlign, anchorX, top float64) {
	cursorY := top
	for _, line := range fit.Lines {
		if line.Content != "" {
			baseline := cursorY + fit.Ascent
			cctx.DrawText(anchorX, baseline, canvas.NewTextLine(face, line.Content, align))
		}
		cursorY += fit.LineAdvance
	}
}

func (c *Compositor) drawImage(ctx context.Context, cctx *canvas.Context, el layout.ResolvedElement) ([]layout.Warning, error) {
	if c.fetcher == nil {
		return nil, fmt.Errorf("no asset fetcher configured")
	}
	box := el.Element.BBox
	img, err := c.fetcher.Fetch(ctx, el.Content)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", el.Content, err)
	}
	srcW, srcH := img.Bounds().Dx(), img.Bounds().Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("empty image %q", el.Content)
	}

	// Proportional scale to fit inside the box, then center.
	scale := math.Min(box.W/float64(srcW), box.H/float64(srcH))
	dstW := int(math.Max(math.Round(float64(srcW)*scale), 1))
	dstH := int(math.Max(math.Round(float64(srcH)*scale), 1))
	scaled := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	x := box.X + (box.W-float64(dstW))/2
	y := box.Y + (box.H-float64(dstH))/2

	restore := applyRotation(cctx, el.Element)
	defer restore()
	cctx.DrawImage(x, y, scaled, canvas.DPMM(1.0))
	return nil, nil
}

// applyRotation pushes a view rotated about the element's bbox center
// and returns the matching pop. A zero rotation is a no-op.
func applyRotation(cctx *canvas.Context, el template.Element) func() {
	if el.Rotation == 0 {
		return func() {}
	}
	cctx.Push()
	cctx.RotateAbout(el.Rotation, el.BBox.X+el.BBox.W/2, el.BBox.Y+el.BBox.H/2)
	return cctx.Pop
}

func horizontalAnchor(align string, box template.BBox) (canvas.TextAlign, float64) {
	switch align {
	case "center":
		return canvas.Center, box.X + box.W/2
	case "right", "end":
		return canvas.Right, box.X + box.W
	default:
		return canvas.Left, box.X
	}
}

func verticalAnchor(valign string, box template.BBox, blockH float64) float64 {
	switch valign {
	case "middle", "center":
		return box.Y + (box.H-blockH)/2
	case "bottom":
		return box.Y + box.H - blockH
	default:
		return box.Y
	}
}

func toColor(c template.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
