package psd

import (
	"strings"

	"github.com/matchday/tifo/template"
)

// Extract parses a design document and returns its leaf layers with
// group-path-qualified names and absolute bboxes. It fails with
// *UnreadableDocumentError on corrupt or unsupported input and with
// *NoLayersError when no usable leaf layer exists.
func Extract(data []byte) (*ExtractedDocument, error) {
	doc, err := parse(data)
	if err != nil {
		return nil, err
	}

	out := &ExtractedDocument{Width: doc.width, Height: doc.height}

	// Records are stored bottom-of-stack first; a group's bounding
	// divider precedes its members and the named folder record follows
	// them. Walking in reverse turns that into natural tree order:
	// folder opens a group, bounding divider closes it.
	var path []string
	var leaves []ExtractedLayer
	for i := len(doc.records) - 1; i >= 0; i-- {
		rec := doc.records[i]
		switch rec.divider {
		case dividerOpenFolder, dividerClosedFolder:
			path = append(path, rec.name)
		case dividerBounding:
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		default:
			leaf, ok := makeLeaf(rec, path, doc.width, doc.height)
			if ok {
				leaves = append(leaves, leaf)
			}
		}
	}

	if len(leaves) == 0 {
		return nil, &NoLayersError{}
	}
	// Restore document stacking order, bottom first.
	for i := len(leaves) - 1; i >= 0; i-- {
		out.Layers = append(out.Layers, leaves[i])
	}
	return out, nil
}

func makeLeaf(rec record, path []string, docW, docH int) (ExtractedLayer, bool) {
	x, y := float64(rec.left), float64(rec.top)
	w, h := float64(rec.right-rec.left), float64(rec.bottom-rec.top)
	if w <= 0 || h <= 0 {
		// Empty bbox: adjustment or fill layer with no pixels.
		return ExtractedLayer{}, false
	}
	// Layers can hang over the canvas edge; clamp to document bounds.
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > float64(docW) {
		w = float64(docW) - x
	}
	if y+h > float64(docH) {
		h = float64(docH) - y
	}
	if w <= 0 || h <= 0 {
		return ExtractedLayer{}, false
	}

	name := rec.name
	if len(path) > 0 {
		name = strings.Join(path, "/") + "/" + rec.name
	}
	return ExtractedLayer{
		QualifiedName: name,
		BBox:          template.BBox{X: x, Y: y, W: w, H: h},
		Visible:       !rec.hidden,
		Opacity:       float64(rec.opacity) / 255.0 * 100.0,
		KindHint:      inferKind(name),
	}, true
}

// imageTokens drive the naming-convention kind heuristic. Advisory
// only: the curation step overrides kind before a layer becomes a
// template element.
var imageTokens = []string{"logo", "pic", "photo", "img", "image", "badge", "crest"}

func inferKind(qualifiedName string) template.ElementKind {
	lower := strings.ToLower(qualifiedName)
	for _, tok := range imageTokens {
		if strings.Contains(lower, tok) {
			return template.KindImage
		}
	}
	return template.KindText
}

// Elements converts the extracted layers into candidate template
// element stubs for curation. Kind and style are defaults suggested by
// the heuristic, never ground truth.
func (d *ExtractedDocument) Elements() []template.Element {
	elements := make([]template.Element, 0, len(d.Layers))
	for _, layer := range d.Layers {
		el := template.Element{
			FieldName: fieldName(layer.QualifiedName),
			Kind:      layer.KindHint,
			BBox:      layer.BBox,
			Visible:   layer.Visible,
		}
		if el.Kind == template.KindText {
			el.Style = template.Style{
				MinFontSize: 12,
				MaxFontSize: 48,
				Color:       template.Color{R: 255, G: 255, B: 255},
			}
		}
		elements = append(elements, el)
	}
	return elements
}

func fieldName(qualifiedName string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, qualifiedName)
	return strings.Trim(mapped, "_")
}
