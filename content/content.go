// Package content defines the normalized document model produced by source
// normalizers and consumed by the layout engine. A document is a flat ordered
// list of blocks; inline formatting inside block text is carried by the
// in-band marker encoding (see markup.go), never by a tree.
package content

// Block is one semantic unit of document content. The set of implementations
// is closed: Paragraph, Heading, List, Quote, Code, Table and Image.
type Block interface {
	block()
}

// Paragraph is a run of flowing text. Text may embed markup markers.
type Paragraph struct {
	Text string
}

// Heading is a section title. Level follows HTML, 1 (largest) through 6.
type Heading struct {
	Text  string
	Level int
}

// List is an ordered collection of items, each wrapped independently.
type List struct {
	Items []string
}

// Quote preserves its internal line breaks and is rendered with a left rule.
type Quote struct {
	Text string
}

// Code is preformatted text handed to the syntax highlighter as-is.
// Lang is a lowercase language token, empty when unknown.
type Code struct {
	Lang string
	Text string
}

// Table holds rows of cells. Rows may be ragged, layout pads them.
type Table struct {
	Rows [][]TableCell
}

// TableCell is a single table cell. Header cells are rendered bold and
// a contiguous leading run of header rows is followed by a rule line.
type TableCell struct {
	Text   string
	Header bool
}

// Image references a raster (or vector) illustration. Data holds the raw
// encoded bytes when the normalizer could resolve them; Width and Height are
// pixel dimensions, zero when unknown. Without Data the layout degrades to a
// text fallback.
type Image struct {
	ID      string
	Data    []byte
	Alt     string
	Caption string
	Width   int
	Height  int
}

func (Paragraph) block() {}
func (Heading) block()   {}
func (List) block()      {}
func (Quote) block()     {}
func (Code) block()      {}
func (Table) block()     {}
func (Image) block()     {}
