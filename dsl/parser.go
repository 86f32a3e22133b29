// Package dsl parses the template definition language: text files
// declaring templates, their base image and their elements, e.g.
//
//	template matchday {
//	  sport: "soccer"
//	  base: "https://cdn.example.com/packs/classic/matchday.png"
//	  size: 1080 1350
//	  text kickoff {
//	    box: 40 900 1000 120
//	    sizes: 18 64
//	    color: #FFFFFF
//	    align: center middle
//	    content: "${club} vs ${opponent}"
//	    required
//	  }
//	  image club_logo {
//	    box: 60 60 200 200
//	  }
//	}
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/matchday/tifo/template"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[{}:;]`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
)

// File is the root AST node of a template definition file.
type File struct {
	Templates []*TemplateDecl `parser:"Newline* ( @@ Newline* )*"`
}

// TemplateDecl declares one template for a content type.
type TemplateDecl struct {
	Pos         lexer.Position `parser:""`
	ContentType string         `parser:"'template' @Ident"`
	Body        []*Stmt        `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Stmt is either an element declaration or a template attribute.
type Stmt struct {
	Element *ElementDecl `parser:"  @@"`
	Attr    *Attr        `parser:"| @@"`
}

// ElementDecl declares a text or image placeholder.
type ElementDecl struct {
	Pos  lexer.Position `parser:""`
	Kind string         `parser:"@('text' | 'image')"`
	Name string         `parser:"@Ident"`
	Body []*ElementStmt `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// ElementStmt is a flag or an attribute inside an element body.
type ElementStmt struct {
	Flag string `parser:"  @('required' | 'hidden')"`
	Attr *Attr  `parser:"| @@"`
}

// Attr is a "key: values" assignment.
type Attr struct {
	Pos    lexer.Position `parser:""`
	Key    string         `parser:"@Ident ':'"`
	Values []*Value       `parser:"@@+"`
}

// Value is one attribute operand.
type Value struct {
	Str    *string  `parser:"  @String"`
	Color  *string  `parser:"| @Color"`
	Number *float64 `parser:"| @Number"`
	Word   *string  `parser:"| @Ident"`
}

func (v *Value) text() string {
	switch {
	case v.Str != nil:
		return *v.Str
	case v.Color != nil:
		return *v.Color
	case v.Number != nil:
		return strconv.FormatFloat(*v.Number, 'g', -1, 64)
	case v.Word != nil:
		return *v.Word
	}
	return ""
}

// Parse reads template declarations and converts them into validated
// templates.
func Parse(r io.Reader) ([]*template.Template, error) {
	file, err := fileParser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("dsl: %w", err)
	}
	return convert(file)
}

// ParseString is Parse over an in-memory definition.
func ParseString(src string) ([]*template.Template, error) {
	file, err := fileParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("dsl: %w", err)
	}
	return convert(file)
}

func convert(file *File) ([]*template.Template, error) {
	templates := make([]*template.Template, 0, len(file.Templates))
	for _, decl := range file.Templates {
		tpl, err := convertTemplate(decl)
		if err != nil {
			return nil, err
		}
		if err := tpl.Validate(); err != nil {
			return nil, fmt.Errorf("dsl: %s: %w", decl.Pos, err)
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

func convertTemplate(decl *TemplateDecl) (*template.Template, error) {
	tpl := &template.Template{
		ID:          decl.ContentType,
		ContentType: template.ContentType(decl.ContentType),
	}
	for _, stmt := range decl.Body {
		switch {
		case stmt.Element != nil:
			el, err := convertElement(stmt.Element)
			if err != nil {
				return nil, err
			}
			tpl.Elements = append(tpl.Elements, el)
		case stmt.Attr != nil:
			if err := applyTemplateAttr(tpl, stmt.Attr); err != nil {
				return nil, err
			}
		}
	}
	return tpl, nil
}

func applyTemplateAttr(tpl *template.Template, attr *Attr) error {
	switch attr.Key {
	case "id":
		tpl.ID = attr.Values[0].text()
	case "pack":
		tpl.Pack = attr.Values[0].text()
	case "sport":
		tpl.Sport = attr.Values[0].text()
	case "base":
		tpl.BaseImage = attr.Values[0].text()
	case "size":
		nums, err := attr.numbers(2)
		if err != nil {
			return err
		}
		tpl.Width, tpl.Height = nums[0], nums[1]
	default:
		return fmt.Errorf("dsl: %s: unknown template attribute %q", attr.Pos, attr.Key)
	}
	return nil
}

func convertElement(decl *ElementDecl) (template.Element, error) {
	el := template.Element{
		FieldName: decl.Name,
		Kind:      template.ElementKind(decl.Kind),
		Visible:   true,
	}
	for _, stmt := range decl.Body {
		switch stmt.Flag {
		case "required":
			el.Required = true
			continue
		case "hidden":
			el.Visible = false
			continue
		}
		if stmt.Attr == nil {
			continue
		}
		if err := applyElementAttr(&el, stmt.Attr); err != nil {
			return el, err
		}
	}
	return el, nil
}

func applyElementAttr(el *template.Element, attr *Attr) error {
	switch attr.Key {
	case "box":
		nums, err := attr.numbers(4)
		if err != nil {
			return err
		}
		el.BBox = template.BBox{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]}
	case "font":
		el.Style.FontFamily = attr.Values[0].text()
		if len(attr.Values) > 1 {
			el.Style.FontStyle = attr.Values[1].text()
		}
	case "sizes":
		nums, err := attr.numbers(2)
		if err != nil {
			return err
		}
		el.Style.MinFontSize, el.Style.MaxFontSize = nums[0], nums[1]
	case "color":
		col, err := template.ParseColor(attr.Values[0].text())
		if err != nil {
			return fmt.Errorf("dsl: %s: %w", attr.Pos, err)
		}
		el.Style.Color = col
	case "align":
		el.Style.Align = attr.Values[0].text()
		if len(attr.Values) > 1 {
			el.Style.VAlign = attr.Values[1].text()
		}
	case "line-height":
		nums, err := attr.numbers(1)
		if err != nil {
			return err
		}
		el.Style.LineHeight = nums[0]
	case "shadow":
		col, err := template.ParseColor(attr.Values[0].text())
		if err != nil {
			return fmt.Errorf("dsl: %s: %w", attr.Pos, err)
		}
		shadow := &template.Shadow{Color: col, DX: 2, DY: 2}
		if len(attr.Values) >= 3 {
			if attr.Values[1].Number == nil || attr.Values[2].Number == nil {
				return fmt.Errorf("dsl: %s: shadow offsets must be numbers", attr.Pos)
			}
			shadow.DX, shadow.DY = *attr.Values[1].Number, *attr.Values[2].Number
		}
		el.Style.Shadow = shadow
	case "content":
		el.Content = attr.Values[0].text()
	case "default":
		el.Default = attr.Values[0].text()
	case "z":
		nums, err := attr.numbers(1)
		if err != nil {
			return err
		}
		el.ZIndex = int(nums[0])
	case "rotate":
		nums, err := attr.numbers(1)
		if err != nil {
			return err
		}
		el.Rotation = nums[0]
	default:
		return fmt.Errorf("dsl: %s: unknown element attribute %q", attr.Pos, attr.Key)
	}
	return nil
}

// numbers returns exactly want numeric operands.
func (a *Attr) numbers(want int) ([]float64, error) {
	if len(a.Values) < want {
		return nil, fmt.Errorf("dsl: %s: attribute %q wants %d numbers, got %d", a.Pos, a.Key, want, len(a.Values))
	}
	out := make([]float64, want)
	for i := 0; i < want; i++ {
		if a.Values[i].Number == nil {
			return nil, fmt.Errorf("dsl: %s: attribute %q operand %d is not a number", a.Pos, a.Key, i+1)
		}
		out[i] = *a.Values[i].Number
	}
	return out, nil
}
