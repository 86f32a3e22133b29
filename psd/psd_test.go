package psd

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/matchday/tifo/template"
)

// testLayer describes one synthetic layer record in file order (bottom
// of the layer stack first).
type testLayer struct {
	name                     string
	top, left, bottom, right int32
	opacity                  uint8
	hidden                   bool
	divider                  int
}

func be16(buf *[]byte, v uint16) { *buf = binary.BigEndian.AppendUint16(*buf, v) }
func be32(buf *[]byte, v uint32) { *buf = binary.BigEndian.AppendUint32(*buf, v) }

func buildRecord(l testLayer) []byte {
	var rec []byte
	be32(&rec, uint32(l.top))
	be32(&rec, uint32(l.left))
	be32(&rec, uint32(l.bottom))
	be32(&rec, uint32(l.right))
	be16(&rec, 0) // channel count
	rec = append(rec, "8BIM"...)
	rec = append(rec, "norm"...)
	rec = append(rec, l.opacity, 0)
	flags := byte(0)
	if l.hidden {
		flags |= 0x02
	}
	rec = append(rec, flags, 0)

	var extra []byte
	be32(&extra, 0) // layer mask data
	be32(&extra, 0) // blending ranges
	extra = append(extra, byte(len(l.name)))
	extra = append(extra, l.name...)
	for pad := (1 + len(l.name)) % 4; pad != 0 && pad < 4; pad++ {
		extra = append(extra, 0)
	}
	if l.divider != dividerLayer {
		extra = append(extra, "8BIM"...)
		extra = append(extra, "lsct"...)
		be32(&extra, 4)
		be32(&extra, uint32(l.divider))
	}

	be32(&rec, uint32(len(extra)))
	rec = append(rec, extra...)
	return rec
}

func buildPSD(width, height uint32, layers []testLayer) []byte {
	var info []byte
	be16(&info, uint16(len(layers)))
	for _, l := range layers {
		info = append(info, buildRecord(l)...)
	}

	var section []byte
	be32(&section, uint32(len(info)))
	section = append(section, info...)

	var doc []byte
	doc = append(doc, "8BPS"...)
	be16(&doc, 1)
	doc = append(doc, make([]byte, 6)...)
	be16(&doc, 3) // channels
	be32(&doc, height)
	be32(&doc, width)
	be16(&doc, 8) // depth
	be16(&doc, 3) // RGB
	be32(&doc, 0) // color mode data
	be32(&doc, 0) // image resources
	be32(&doc, uint32(len(section)))
	doc = append(doc, section...)
	return doc
}

func TestExtractFlatSingleLayer(t *testing.T) {
	data := buildPSD(1080, 1350, []testLayer{
		{name: "logo", top: 10, left: 10, bottom: 60, right: 110, opacity: 255},
	})
	doc, err := Extract(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Width != 1080 || doc.Height != 1350 {
		t.Fatalf("unexpected dimensions: %dx%d", doc.Width, doc.Height)
	}
	if len(doc.Layers) != 1 {
		t.Fatalf("expected exactly one layer, got %d", len(doc.Layers))
	}
	layer := doc.Layers[0]
	if layer.QualifiedName != "logo" {
		t.Fatalf("unexpected name: %q", layer.QualifiedName)
	}
	if layer.BBox != (template.BBox{X: 10, Y: 10, W: 100, H: 50}) {
		t.Fatalf("unexpected bbox: %+v", layer.BBox)
	}
	if !layer.Visible || layer.Opacity != 100 {
		t.Fatalf("unexpected visibility/opacity: %+v", layer)
	}
	if layer.KindHint != template.KindImage {
		t.Fatalf("'logo' should hint image, got %q", layer.KindHint)
	}
}

func TestExtractNestedGroupsQualifyNamesKeepingAbsoluteBBoxes(t *testing.T) {
	// File order is bottom-to-top: the bounding dividers precede the
	// group members, the named folder records follow them.
	data := buildPSD(2000, 2000, []testLayer{
		{name: "</Layer group>", divider: dividerBounding},
		{name: "</Layer group>", divider: dividerBounding},
		{name: "badge", top: 300, left: 400, bottom: 420, right: 560, opacity: 255},
		{name: "home", divider: dividerOpenFolder},
		{name: "kit", divider: dividerOpenFolder},
	})
	doc, err := Extract(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Layers) != 1 {
		t.Fatalf("groups must not appear as entries, got %d layers", len(doc.Layers))
	}
	layer := doc.Layers[0]
	if layer.QualifiedName != "kit/home/badge" {
		t.Fatalf("unexpected qualified name: %q", layer.QualifiedName)
	}
	if layer.BBox != (template.BBox{X: 400, Y: 300, W: 160, H: 120}) {
		t.Fatalf("bbox must stay absolute to the document origin: %+v", layer.BBox)
	}
}

func TestExtractCopiesVisibilityAndOpacity(t *testing.T) {
	data := buildPSD(500, 500, []testLayer{
		{name: "watermark", top: 0, left: 0, bottom: 50, right: 50, opacity: 128, hidden: true},
	})
	doc, err := Extract(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	layer := doc.Layers[0]
	if layer.Visible {
		t.Fatalf("hidden flag not honored")
	}
	if math.Abs(layer.Opacity-50.196) > 0.01 {
		t.Fatalf("unexpected opacity: %g", layer.Opacity)
	}
}

func TestExtractClampsLayersOverhangingCanvas(t *testing.T) {
	data := buildPSD(100, 100, []testLayer{
		{name: "bleed", top: -20, left: -10, bottom: 50, right: 120, opacity: 255},
	})
	doc, err := Extract(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Layers[0].BBox != (template.BBox{X: 0, Y: 0, W: 100, H: 50}) {
		t.Fatalf("unexpected clamped bbox: %+v", doc.Layers[0].BBox)
	}
}

func TestExtractStackingOrderBottomFirst(t *testing.T) {
	data := buildPSD(500, 500, []testLayer{
		{name: "background_photo", top: 0, left: 0, bottom: 500, right: 500, opacity: 255},
		{name: "score", top: 10, left: 10, bottom: 60, right: 210, opacity: 255},
	})
	doc, err := Extract(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(doc.Layers))
	}
	if doc.Layers[0].QualifiedName != "background_photo" || doc.Layers[1].QualifiedName != "score" {
		t.Fatalf("unexpected order: %q, %q", doc.Layers[0].QualifiedName, doc.Layers[1].QualifiedName)
	}
	if doc.Layers[1].KindHint != template.KindText {
		t.Fatalf("'score' should hint text, got %q", doc.Layers[1].KindHint)
	}
}

func TestExtractRejectsBadSignature(t *testing.T) {
	_, err := Extract([]byte("GIF89a definitely not a psd"))
	var unreadable *UnreadableDocumentError
	if !errors.As(err, &unreadable) {
		t.Fatalf("expected UnreadableDocumentError, got %v", err)
	}
}

func TestExtractRejectsUnsupportedVersion(t *testing.T) {
	data := buildPSD(100, 100, []testLayer{
		{name: "x", top: 0, left: 0, bottom: 10, right: 10, opacity: 255},
	})
	data[4], data[5] = 0, 2 // PSB
	var unreadable *UnreadableDocumentError
	if _, err := Extract(data); !errors.As(err, &unreadable) {
		t.Fatalf("expected UnreadableDocumentError for version 2")
	}
}

func TestExtractRejectsTruncatedDocument(t *testing.T) {
	data := buildPSD(100, 100, []testLayer{
		{name: "x", top: 0, left: 0, bottom: 10, right: 10, opacity: 255},
	})
	var unreadable *UnreadableDocumentError
	if _, err := Extract(data[:len(data)-6]); !errors.As(err, &unreadable) {
		t.Fatalf("expected UnreadableDocumentError for truncated input")
	}
}

func TestExtractNoLayers(t *testing.T) {
	var noLayers *NoLayersError

	if _, err := Extract(buildPSD(100, 100, nil)); !errors.As(err, &noLayers) {
		t.Fatalf("expected NoLayersError for empty document")
	}

	// Groups alone do not count as leaves.
	groupsOnly := buildPSD(100, 100, []testLayer{
		{name: "</Layer group>", divider: dividerBounding},
		{name: "empty_group", divider: dividerClosedFolder},
	})
	if _, err := Extract(groupsOnly); !errors.As(err, &noLayers) {
		t.Fatalf("expected NoLayersError for group-only document")
	}
}

func TestElementsProducesCurationStubs(t *testing.T) {
	data := buildPSD(1080, 1350, []testLayer{
		{name: "</Layer group>", divider: dividerBounding},
		{name: "club logo", top: 60, left: 60, bottom: 260, right: 260, opacity: 255},
		{name: "score", top: 500, left: 240, bottom: 700, right: 840, opacity: 255},
		{name: "overlays", divider: dividerOpenFolder},
	})
	doc, err := Extract(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elements := doc.Elements()
	if len(elements) != 2 {
		t.Fatalf("expected 2 stubs, got %d", len(elements))
	}
	logo := elements[0]
	if logo.FieldName != "overlays_club_logo" || logo.Kind != template.KindImage {
		t.Fatalf("unexpected logo stub: %+v", logo)
	}
	score := elements[1]
	if score.Kind != template.KindText || score.Style.MaxFontSize != 48 {
		t.Fatalf("unexpected score stub: %+v", score)
	}
}
