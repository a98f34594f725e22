package decode

// SectionID is a top-level Wasm binary section identifier.
type SectionID byte

const (
	SectionCustom   SectionID = 0x00
	SectionType     SectionID = 0x01
	SectionImport   SectionID = 0x02
	SectionFunction SectionID = 0x03
	SectionTable    SectionID = 0x04
	SectionMemory   SectionID = 0x05
	SectionGlobal   SectionID = 0x06
	SectionExport   SectionID = 0x07
	SectionStart    SectionID = 0x08
	SectionElement  SectionID = 0x09
	SectionCode     SectionID = 0x0A
	SectionData     SectionID = 0x0B
	SectionDataCount SectionID = 0x0C
	SectionTag      SectionID = 0x0D
)

// Payload is one section (or pseudo-section, for the header) yielded by
// the module payload iterator -- the decoder collaborator's contract per
// spec §6. PayloadIterator.Next populates ID and Bytes for a section, and
// IsHeader and Version for the header; the parser driver Parse interprets
// Bytes according to ID.
type Payload struct {
	ID    SectionID
	Bytes []byte

	// Version carries the binary version for the synthetic "header"
	// payload that precedes every section.
	Version uint32
	IsHeader bool
}
