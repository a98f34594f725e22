package decode

const (
	wasmMagic   = 0x6d736100 // "\0asm"
	wasmVersion = 1
)

// PayloadIterator walks a Wasm binary's header and top-level sections,
// handing each one's raw bytes to the caller without interpreting them --
// this is the "streaming payload sequence from the decoder collaborator"
// spec §4.1 names. Modeled on 0x5457/wasm-go's parser.sectionHeader loop
// and wippyai-wasm-runtime's package-level ParseModule entrypoint.
type PayloadIterator struct {
	r        *Reader
	gaveHeader bool
}

// NewPayloadIterator wraps buf, which must start with the 8-byte Wasm
// preamble (magic + version).
func NewPayloadIterator(buf []byte) *PayloadIterator {
	return &PayloadIterator{r: NewReader(buf)}
}

// Next returns the next payload, or (Payload{}, false, err) once input is
// exhausted (err == nil) or malformed (err != nil).
func (it *PayloadIterator) Next() (Payload, bool, error) {
	if !it.gaveHeader {
		it.gaveHeader = true
		magicBytes, err := it.r.Bytes(4)
		if err != nil {
			return Payload{}, false, err
		}
		magic := uint32(magicBytes[0]) | uint32(magicBytes[1])<<8 | uint32(magicBytes[2])<<16 | uint32(magicBytes[3])<<24
		if magic != wasmMagic {
			return Payload{}, false, errInvalidMagic
		}
		versionBytes, err := it.r.Bytes(4)
		if err != nil {
			return Payload{}, false, err
		}
		version := uint32(versionBytes[0]) | uint32(versionBytes[1])<<8 | uint32(versionBytes[2])<<16 | uint32(versionBytes[3])<<24
		return Payload{IsHeader: true, Version: version}, true, nil
	}

	if it.r.EOF() {
		return Payload{}, false, nil
	}

	idByte, err := it.r.Byte()
	if err != nil {
		return Payload{}, false, err
	}
	length, err := it.r.U32()
	if err != nil {
		return Payload{}, false, err
	}
	body, err := it.r.Bytes(int(length))
	if err != nil {
		return Payload{}, false, err
	}
	return Payload{ID: SectionID(idByte), Bytes: body}, true, nil
}

type invalidMagicError struct{}

func (invalidMagicError) Error() string { return "decode: invalid wasm magic number" }

var errInvalidMagic invalidMagicError
