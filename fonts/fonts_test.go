package fonts

import (
	"testing"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

func TestFamilyLoadsBuiltinAndCaches(t *testing.T) {
	lib := NewLibrary()
	fam, err := lib.Family(DefaultFamily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := lib.Family(DefaultFamily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fam != again {
		t.Fatalf("expected cached family instance")
	}
}

func TestFamilyFallsBackForUnknownName(t *testing.T) {
	lib := NewLibrary()
	fam, err := lib.Family("Comic Papyrus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fam == nil {
		t.Fatalf("expected fallback family")
	}
}

func TestRegisterRejectsEmptyData(t *testing.T) {
	lib := NewLibrary()
	if err := lib.Register("Club", "regular", nil); err == nil {
		t.Fatalf("expected error for empty font data")
	}
}

func TestRegisterAccumulatesStylesUntilLoaded(t *testing.T) {
	lib := NewLibrary()
	if err := lib.Register("Club", "regular", goregular.TTF); err != nil {
		t.Fatalf("register regular: %v", err)
	}
	if err := lib.Register("Club", "bold", gobold.TTF); err != nil {
		t.Fatalf("second style must accumulate: %v", err)
	}
	fam, err := lib.Family("Club")
	if err != nil || fam == nil {
		t.Fatalf("load family: %v", err)
	}
	if err := lib.Register("Club", "italic", goitalic.TTF); err == nil {
		t.Fatalf("expected error once the family is loaded")
	}
}

func TestParseStyle(t *testing.T) {
	cases := []struct {
		in   string
		want canvas.FontStyle
	}{
		{"", canvas.FontRegular},
		{"bold", canvas.FontBold},
		{"Bold Italic", canvas.FontBold | canvas.FontItalic},
		{"extrabold", canvas.FontExtraBold},
		{"light", canvas.FontLight},
		{"comic", canvas.FontRegular},
	}
	for _, c := range cases {
		if got := ParseStyle(c.in); got != c.want {
			t.Errorf("ParseStyle(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
