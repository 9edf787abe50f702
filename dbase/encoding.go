package dbase

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// EncodingConverter is the interface as passed to Open
type EncodingConverter interface {
	Decode(in []byte) ([]byte, error)
	Encode(in []byte) ([]byte, error)
	CodePage() byte
}

// DefaultConverter converts between UTF-8 and a golang.org/x/text encoding
type DefaultConverter struct {
	encoding encoding.Encoding
}

// Decode decodes a specified encoding to byte slice to a UTF8 byte slice
func (c DefaultConverter) Decode(in []byte) ([]byte, error) {
	out, err := c.encoding.NewDecoder().Bytes(in)
	if err != nil {
		return nil, newError("dbase-encoding-decode-1", ErrInvalidEncoding)
	}
	return out, nil
}

// Encode encodes a UTF8 byte slice to the specified encoding byte slice
func (c DefaultConverter) Encode(in []byte) ([]byte, error) {
	out, err := c.encoding.NewEncoder().Bytes(in)
	if err != nil {
		return nil, newErrorf("dbase-encoding-encode-1", "%w: %q can not be represented: %v", ErrInvalidEncoding, in, err)
	}
	return out, nil
}

// CodePage returns corresponding code page mark for the encoding
func (c DefaultConverter) CodePage() byte {
	for mark, enc := range codePages {
		if enc == c.encoding {
			return mark
		}
	}
	return 0x00
}

// Name returns the IANA name of the encoding, e.g. windows-1252
func (c DefaultConverter) Name() string {
	name, err := ianaindex.IANA.Name(c.encoding)
	if err != nil || len(name) == 0 {
		return "unknown"
	}
	return strings.ToLower(name)
}

// Encoding returns the wrapped encoding
func (c DefaultConverter) Encoding() encoding.Encoding {
	return c.encoding
}

func NewDefaultConverter(enc encoding.Encoding) DefaultConverter {
	return DefaultConverter{encoding: enc}
}

var codePages = map[byte]encoding.Encoding{
	0x01: charmap.CodePage437,  // U.S. MS-DOS
	0x02: charmap.CodePage850,  // International MS-DOS
	0x03: charmap.Windows1252,  // Windows ANSI
	0x64: charmap.CodePage852,  // Eastern European MS-DOS
	0x65: charmap.CodePage866,  // Russian MS-DOS
	0x66: charmap.CodePage865,  // Nordic MS-DOS
	0x7C: charmap.Windows874,   // Thai Windows
	0x7D: charmap.Windows1255,  // Hebrew Windows
	0x7E: charmap.Windows1256,  // Arabic Windows
	0xC8: charmap.Windows1250,  // Central European Windows
	0xC9: charmap.Windows1251,  // Russian Windows
	0xCA: charmap.Windows1254,  // Turkish Windows
	0xCB: charmap.Windows1253,  // Greek Windows
}

// DefaultEncoding is used when neither a converter is configured nor a known code page mark is found
var DefaultEncoding encoding.Encoding = charmap.Windows1252

// CodePageConverter returns the converter for a code page mark and whether the mark is known
func CodePageConverter(mark byte) (DefaultConverter, bool) {
	enc, ok := codePages[mark]
	if !ok {
		return NewDefaultConverter(DefaultEncoding), false
	}
	return NewDefaultConverter(enc), true
}

// ConverterFromCodePage returns a new EncodingConverter from a code page mark.
// Unknown marks fall back to DefaultEncoding.
func ConverterFromCodePage(mark byte) DefaultConverter {
	c, _ := CodePageConverter(mark)
	return c
}

// ConverterFromName returns the converter for an IANA or WHATWG charset name, e.g. "cp1252" or "ISO-8859-1"
func ConverterFromName(name string) (DefaultConverter, error) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return NewDefaultConverter(unicode.UTF8), nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		enc, err = htmlindex.Get(name)
		if err != nil {
			return DefaultConverter{}, newErrorf("dbase-encoding-converterfromname-1", "%w: unknown charset %q", ErrInvalidEncoding, name)
		}
	}
	return NewDefaultConverter(enc), nil
}
