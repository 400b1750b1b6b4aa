package outputset

// Color is a display color as a "#rrggbb" hex string.
type Color string

// Palette is the fixed color rotation for new output sets.
var Palette = []Color{
	"#000000", // black
	"#0000ff", // blue
	"#ff0000", // red
	"#404040", // dark gray
	"#00ff00", // green
	"#ffc800", // orange
	"#ff00ff", // magenta
}

// Cursor walks the palette round-robin. The zero value starts at black.
// A Cursor is not safe for concurrent use; its owner serializes access.
type Cursor struct {
	next int
}

// Next returns the current color and advances the cursor.
func (c *Cursor) Next() Color {
	col := Palette[c.next%len(Palette)]
	c.next = (c.next + 1) % len(Palette)
	return col
}

// Peek returns the color Next would return without advancing.
func (c *Cursor) Peek() Color {
	return Palette[c.next%len(Palette)]
}

// Position returns the cursor's index into Palette.
func (c *Cursor) Position() int { return c.next }

// Seek moves the cursor to index i (taken modulo the palette length).
func (c *Cursor) Seek(i int) {
	n := len(Palette)
	c.next = ((i % n) + n) % n
}
