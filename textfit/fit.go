// Package textfit computes the largest font size at which a text block,
// greedily word-wrapped, fits a box. It is pure: identical inputs always
// produce identical outputs.
package textfit

import (
	"image/color"
	"math"
	"strings"

	"github.com/tdewolff/canvas"
)

// Canvas font faces take point sizes while this engine works in pixels
// of the base image; drawing units equal pixels throughout the module.
const pxToPt = 1.0 / 0.352777

// FaceSize converts a pixel font size to the point size canvas faces
// expect, so renderers measure and draw with the same geometry.
func FaceSize(px float64) float64 { return px * pxToPt }

// DefaultLineHeight is the line advance multiplier when a style does not
// set one.
const DefaultLineHeight = 1.2

const eps = 1e-6

// Line is one wrapped line with its measured width in pixels.
type Line struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
}

// Result describes the chosen size and wrap for one text element.
type Result struct {
	Size        float64 `json:"size"` // font size in px
	Lines       []Line  `json:"lines"`
	LineAdvance float64 `json:"lineAdvance"` // vertical step per line, px
	Ascent      float64 `json:"ascent"`      // baseline offset from line top, px
	BlockHeight float64 `json:"blockHeight"`
	// Overflow is set when even the minimum size exceeds the box height;
	// the block then overflows vertically by the minimal amount.
	Overflow bool `json:"overflow,omitempty"`
	// WideWord is set when a single unbroken word is wider than the box
	// at the minimum size; wide words drive the search down to MinSize
	// before the flag surfaces.
	WideWord bool `json:"wideWord,omitempty"`
}

// Request bundles the fitting inputs.
type Request struct {
	Text       string
	BoxW, BoxH float64
	Family     *canvas.FontFamily
	Style      canvas.FontStyle
	MinSize    float64 // px; defaults to 8
	MaxSize    float64 // px; defaults to 72
	LineHeight float64 // multiplier; defaults to DefaultLineHeight
}

// Fit binary-searches integer sizes in [MinSize, MaxSize], keeping the
// largest size whose wrapped block fits the box in both dimensions.
// When no size fits it clamps to MinSize instead of failing; at that
// point an over-tall block reports Overflow and an over-wide single
// word stays unbroken with WideWord set.
func Fit(req Request) Result {
	minSize := req.MinSize
	if minSize <= 0 {
		minSize = 8
	}
	maxSize := req.MaxSize
	if maxSize <= 0 {
		maxSize = 72
	}
	if maxSize < minSize {
		maxSize = minSize
	}
	factor := req.LineHeight
	if factor <= 0 {
		factor = DefaultLineHeight
	}

	lo := int(math.Ceil(minSize))
	hi := int(math.Floor(maxSize))
	if hi < lo {
		hi = lo
	}

	var best *Result
	for lo <= hi {
		mid := (lo + hi) / 2
		cand := measure(req, float64(mid), factor)
		if cand.BlockHeight <= req.BoxH+eps && !cand.WideWord {
			best = &cand
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best == nil {
		clamped := measure(req, math.Max(minSize, 1), factor)
		clamped.Overflow = clamped.BlockHeight > req.BoxH+eps
		best = &clamped
	}
	return *best
}

func measure(req Request, size, factor float64) Result {
	face := req.Family.Face(size*pxToPt, color.Black, req.Style, canvas.FontNormal)
	metrics := face.Metrics()
	advance := metrics.LineHeight * factor
	if advance <= 0 {
		advance = size * factor
	}

	lines, wide := wrap(req.Text, req.BoxW, face)
	return Result{
		Size:        size,
		Lines:       lines,
		LineAdvance: advance,
		Ascent:      metrics.Ascent,
		BlockHeight: float64(len(lines)) * advance,
		WideWord:    wide,
	}
}

// wrap performs order-preserving greedy word wrap: words are appended to
// the current line until the next one would exceed limit. Explicit
// newlines are honored. A single word wider than the box stays unbroken;
// the second result reports that case.
func wrap(text string, limit float64, face *canvas.FontFace) ([]Line, bool) {
	var lines []Line
	wide := false
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, Line{})
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			next := current + " " + word
			if face.TextWidth(next) > limit+eps {
				lines = append(lines, measureLine(current, face, limit, &wide))
				current = word
				continue
			}
			current = next
		}
		lines = append(lines, measureLine(current, face, limit, &wide))
	}
	if len(lines) == 0 {
		lines = []Line{{}}
	}
	return lines, wide
}

func measureLine(content string, face *canvas.FontFace, limit float64, wide *bool) Line {
	w := face.TextWidth(content)
	if w > limit+eps {
		*wide = true
	}
	return Line{Content: content, Width: w}
}
