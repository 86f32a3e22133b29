package template

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines the template data model shared by the resolver,
// the compositor and the registry.

// ContentType identifies the kind of post a template produces.
type ContentType string

// The post kinds supported by the generation pipeline. The engine never
// branches on these; they only scope template lookup and validation.
const (
	ContentMatchday         ContentType = "matchday"
	ContentResult           ContentType = "result"
	ContentLineup           ContentType = "lineup"
	ContentFixture          ContentType = "fixture"
	ContentUpcomingFixture  ContentType = "upcomingFixture"
	ContentUpcomingFixtures ContentType = "upcomingFixtures"
	ContentStartingXI       ContentType = "startingXI"
	ContentGoal             ContentType = "goal"
	ContentSub              ContentType = "sub"
	ContentHalftime         ContentType = "halftime"
	ContentFulltime         ContentType = "fulltime"
	ContentAlert            ContentType = "alert"
	ContentPlayer           ContentType = "player"
)

var knownContentTypes = map[ContentType]bool{
	ContentMatchday: true, ContentResult: true, ContentLineup: true,
	ContentFixture: true, ContentUpcomingFixture: true, ContentUpcomingFixtures: true,
	ContentStartingXI: true, ContentGoal: true, ContentSub: true,
	ContentHalftime: true, ContentFulltime: true, ContentAlert: true,
	ContentPlayer: true,
}

// ElementKind distinguishes text placeholders from image placeholders.
type ElementKind string

const (
	KindText  ElementKind = "text"
	KindImage ElementKind = "image"
)

// BBox is an axis-aligned box in base-image pixel coordinates.
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether other lies entirely inside b.
func (b BBox) Contains(other BBox) bool {
	return other.X >= b.X && other.Y >= b.Y &&
		other.X+other.W <= b.X+b.W && other.Y+other.H <= b.Y+b.H
}

// Color is an 8-bit RGB value.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// ParseColor parses "#RGB" or "#RRGGBB" hex notation.
func ParseColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", value, err)
	}
	return Color{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
}

// Hex returns the "#RRGGBB" form.
func (c Color) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

// Shadow describes an optional drop shadow behind a text element.
type Shadow struct {
	Color Color   `json:"color"`
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
}

// Style carries the visual attributes of an element. Only text elements
// consult the font fields; images only consult alignment (for anchoring
// inside the box, the default being centered both ways).
type Style struct {
	FontFamily  string  `json:"fontFamily,omitempty"`
	FontStyle   string  `json:"fontStyle,omitempty"` // regular/bold/italic etc.
	MinFontSize float64 `json:"minFontSize,omitempty"`
	MaxFontSize float64 `json:"maxFontSize,omitempty"`
	Color       Color   `json:"color"`
	Align       string  `json:"align,omitempty"`  // left/center/right
	VAlign      string  `json:"valign,omitempty"` // top/middle/bottom
	LineHeight  float64 `json:"lineHeight,omitempty"`
	Shadow      *Shadow `json:"shadow,omitempty"`
}

// Element is one placeholder inside a template layout.
type Element struct {
	FieldName string      `json:"fieldName"`
	Kind      ElementKind `json:"kind"`
	BBox      BBox        `json:"bbox"`
	Style     Style       `json:"style"`
	// Content optionally templates the rendered text, e.g.
	// "${club} vs ${opponent}". Empty means the field value is used as-is.
	Content  string  `json:"content,omitempty"`
	Default  string  `json:"default,omitempty"`
	Required bool    `json:"required,omitempty"`
	Visible  bool    `json:"visible"`
	ZIndex   int     `json:"zIndex,omitempty"`
	Rotation float64 `json:"rotation,omitempty"` // degrees, about bbox center
}

// Template is a reusable visual layout bound to a content type.
type Template struct {
	ID          string      `json:"id"`
	Pack        string      `json:"pack,omitempty"`
	ContentType ContentType `json:"contentType"`
	Sport       string      `json:"sport,omitempty"`
	BaseImage   string      `json:"baseImage"` // fetchable reference
	Width       float64     `json:"width"`     // base image dimensions
	Height      float64     `json:"height"`
	Elements    []Element   `json:"elements"` // draw order; ties broken by ZIndex
}

// Ordered returns the elements in draw order: ascending ZIndex, ties by
// declaration order. The receiver is not modified.
func (t *Template) Ordered() []Element {
	out := make([]Element, len(t.Elements))
	copy(out, t.Elements)
	// insertion sort keeps the declaration order stable for equal z
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ZIndex < out[j-1].ZIndex; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Validate checks the structural invariants: known content type, positive
// base dimensions, unique field names, and every bbox inside the base
// image bounds with positive width and height.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("template: missing id")
	}
	if !knownContentTypes[t.ContentType] {
		return fmt.Errorf("template %s: unknown content type %q", t.ID, t.ContentType)
	}
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("template %s: invalid base dimensions %gx%g", t.ID, t.Width, t.Height)
	}
	base := BBox{X: 0, Y: 0, W: t.Width, H: t.Height}
	seen := make(map[string]bool, len(t.Elements))
	for _, el := range t.Elements {
		if el.FieldName == "" {
			return fmt.Errorf("template %s: element with empty field name", t.ID)
		}
		if seen[el.FieldName] {
			return fmt.Errorf("template %s: duplicate field name %q", t.ID, el.FieldName)
		}
		seen[el.FieldName] = true
		if el.Kind != KindText && el.Kind != KindImage {
			return fmt.Errorf("template %s: element %q has unknown kind %q", t.ID, el.FieldName, el.Kind)
		}
		if el.BBox.W <= 0 || el.BBox.H <= 0 {
			return fmt.Errorf("template %s: element %q has empty bbox", t.ID, el.FieldName)
		}
		if !base.Contains(el.BBox) {
			return fmt.Errorf("template %s: element %q bbox exceeds base image bounds", t.ID, el.FieldName)
		}
		if el.Kind == KindText && el.Style.MinFontSize > el.Style.MaxFontSize && el.Style.MaxFontSize > 0 {
			return fmt.Errorf("template %s: element %q has min font size above max", t.ID, el.FieldName)
		}
	}
	return nil
}
