package psd

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// The on-disk structures below follow the published Photoshop file
// format: big-endian, a fixed 26-byte header, three length-prefixed
// sections, then layer records inside the layer info block. Layer
// record bounds are stored absolute to the document origin; nesting is
// expressed through 'lsct' section divider records, not through
// relative offsets, so no coordinate folding is needed during the walk.

const (
	signature        = "8BPS"
	blockSignature   = "8BIM"
	blockSignature64 = "8B64"

	// 'lsct' section divider types.
	dividerLayer        = 0
	dividerOpenFolder   = 1
	dividerClosedFolder = 2
	dividerBounding     = 3 // marks the far end of a group
)

// record is one parsed layer record in file order (bottom of the layer
// stack first).
type record struct {
	name    string
	top     int32
	left    int32
	bottom  int32
	right   int32
	opacity uint8 // 0-255
	hidden  bool
	divider int // one of the divider* constants
}

type document struct {
	width   int
	height  int
	records []record
}

// cursor reads big-endian values from a byte slice with a sticky
// truncation error, surfaced as UnreadableDocumentError.
type cursor struct {
	buf []byte
	off int
	err error
}

func (c *cursor) fail(reason string) {
	if c.err == nil {
		c.err = &UnreadableDocumentError{Reason: reason}
	}
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.buf) {
		c.fail(fmt.Sprintf("truncated at offset %d", c.off))
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) skip(n int) { c.take(n) }

func (c *cursor) uint8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) uint16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (c *cursor) uint32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (c *cursor) int32() int32 { return int32(c.uint32()) }

func (c *cursor) remaining() int { return len(c.buf) - c.off }

// parse reads the document header and all layer records.
func parse(data []byte) (*document, error) {
	c := &cursor{buf: data}

	if string(c.take(4)) != signature {
		return nil, &UnreadableDocumentError{Reason: "bad signature, not a PSD file"}
	}
	if v := c.uint16(); c.err == nil && v != 1 {
		return nil, &UnreadableDocumentError{Reason: fmt.Sprintf("unsupported version %d", v)}
	}
	c.skip(6)  // reserved
	c.uint16() // channels
	height := c.uint32()
	width := c.uint32()
	c.uint16() // depth
	c.uint16() // color mode
	if c.err != nil {
		return nil, c.err
	}
	if width == 0 || height == 0 {
		return nil, &UnreadableDocumentError{Reason: "zero document dimensions"}
	}

	c.skip(int(c.uint32())) // color mode data
	c.skip(int(c.uint32())) // image resources

	layerMaskLen := int(c.uint32())
	if c.err != nil {
		return nil, c.err
	}
	doc := &document{width: int(width), height: int(height)}
	if layerMaskLen == 0 {
		return doc, nil
	}
	section := &cursor{buf: c.take(layerMaskLen)}
	if c.err != nil {
		return nil, c.err
	}

	layerInfoLen := int(section.uint32())
	if section.err != nil {
		return nil, section.err
	}
	if layerInfoLen == 0 {
		return doc, nil
	}
	info := &cursor{buf: section.take(layerInfoLen)}
	if section.err != nil {
		return nil, section.err
	}

	count := int(int16(info.uint16()))
	if count < 0 {
		// Negative means the first alpha channel holds merged transparency.
		count = -count
	}
	for i := 0; i < count; i++ {
		rec, err := parseRecord(info)
		if err != nil {
			return nil, err
		}
		doc.records = append(doc.records, rec)
	}
	if info.err != nil {
		return nil, info.err
	}
	return doc, nil
}

func parseRecord(c *cursor) (record, error) {
	var rec record
	rec.top = c.int32()
	rec.left = c.int32()
	rec.bottom = c.int32()
	rec.right = c.int32()

	channels := int(c.uint16())
	for i := 0; i < channels; i++ {
		c.uint16() // channel id
		c.uint32() // channel data length
	}

	if sig := string(c.take(4)); c.err == nil && sig != blockSignature {
		return rec, &UnreadableDocumentError{Reason: "bad blend mode signature"}
	}
	c.take(4) // blend mode key
	rec.opacity = c.uint8()
	c.uint8() // clipping
	flags := c.uint8()
	rec.hidden = flags&0x02 != 0
	c.uint8() // filler

	extraLen := int(c.uint32())
	if c.err != nil {
		return rec, c.err
	}
	extra := &cursor{buf: c.take(extraLen)}
	if c.err != nil {
		return rec, c.err
	}

	extra.skip(int(extra.uint32())) // layer mask data
	extra.skip(int(extra.uint32())) // blending ranges
	rec.name = pascalName(extra)

	// Additional info blocks: unicode name and section divider.
	for extra.err == nil && extra.remaining() >= 12 {
		sig := string(extra.take(4))
		if sig != blockSignature && sig != blockSignature64 {
			break
		}
		key := string(extra.take(4))
		blockLen := int(extra.uint32())
		block := &cursor{buf: extra.take(blockLen)}
		if blockLen%2 != 0 {
			extra.skip(1)
		}
		switch key {
		case "luni":
			if name := unicodeName(block); name != "" {
				rec.name = name
			}
		case "lsct":
			rec.divider = int(block.uint32())
		}
	}
	if extra.err != nil {
		return rec, extra.err
	}
	return rec, nil
}

// pascalName reads the layer's Pascal string, padded to a multiple of 4.
func pascalName(c *cursor) string {
	n := int(c.uint8())
	name := c.take(n)
	if pad := (1 + n) % 4; pad != 0 {
		c.skip(4 - pad)
	}
	if name == nil {
		return ""
	}
	return string(name)
}

// unicodeName reads a UTF-16BE unicode string block.
func unicodeName(c *cursor) string {
	n := int(c.uint32())
	units := make([]uint16, 0, n)
	for i := 0; i < n; i++ {
		units = append(units, c.uint16())
	}
	if c.err != nil {
		return ""
	}
	// Photoshop sometimes null-terminates; trim it.
	for len(units) > 0 && units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units))
}
