package fonts

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFamily is the builtin face used when a template names no font
// family or an unknown one.
const DefaultFamily = "Go"

type blob struct {
	data  []byte
	style canvas.FontStyle
}

// Library maps family names to canvas font families, loading lazily and
// caching loaded families. The zero value is not usable; call NewLibrary.
// Safe for concurrent use.
type Library struct {
	mu       sync.Mutex
	blobs    map[string][]blob
	families map[string]*canvas.FontFamily
}

// NewLibrary creates a library seeded with the builtin Go typeface in
// regular, bold and italic styles.
func NewLibrary() *Library {
	l := &Library{
		blobs:    map[string][]blob{},
		families: map[string]*canvas.FontFamily{},
	}
	l.blobs[DefaultFamily] = []blob{
		{data: goregular.TTF, style: canvas.FontRegular},
		{data: gobold.TTF, style: canvas.FontBold},
		{data: goitalic.TTF, style: canvas.FontItalic},
	}
	return l
}

// Register adds TTF/OTF bytes for a family and style; styles registered
// under the same family accumulate. Must be called before the family is
// first loaded.
func (l *Library) Register(family, style string, data []byte) error {
	if family == "" {
		return fmt.Errorf("fonts: empty family name")
	}
	if len(data) == 0 {
		return fmt.Errorf("fonts: family %s has no font data", family)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, loaded := l.families[family]; loaded {
		return fmt.Errorf("fonts: family %s already loaded", family)
	}
	l.blobs[family] = append(l.blobs[family], blob{data: data, style: ParseStyle(style)})
	return nil
}

// Family returns the loaded canvas family for name, falling back to the
// builtin default when name is unknown. Loading errors of registered
// data are returned, not masked.
func (l *Library) Family(name string) (*canvas.FontFamily, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if name == "" {
		name = DefaultFamily
	}
	if _, known := l.blobs[name]; !known {
		name = DefaultFamily
	}
	if fam, ok := l.families[name]; ok {
		return fam, nil
	}
	fam := canvas.NewFontFamily(name)
	for _, b := range l.blobs[name] {
		if err := fam.LoadFont(b.data, 0, b.style); err != nil {
			return nil, fmt.Errorf("fonts: load family %s: %w", name, err)
		}
	}
	l.families[name] = fam
	return fam, nil
}

// ParseStyle maps a style word like "bold" or "bold italic" to the
// canvas font style flags. Unknown words mean regular.
func ParseStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}
