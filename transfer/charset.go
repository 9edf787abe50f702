package transfer

import (
	"github.com/Valentin-Kaiser/dbasesql/dbase"
)

// CharsetResolver decides the character encoding of a DBF file.
// An explicit override wins over the code page mark of the file,
// unknown or missing marks fall back to dbase.DefaultEncoding.
type CharsetResolver struct {
	// Override is an IANA or WHATWG charset name, e.g. cp1252 or ISO-8859-1
	Override string
}

// ForFile resolves the converter of a file with the given code page mark
func (r CharsetResolver) ForFile(mark byte) (dbase.DefaultConverter, error) {
	if len(r.Override) > 0 {
		return dbase.ConverterFromName(r.Override)
	}
	return dbase.ConverterFromCodePage(mark), nil
}

// ForTable resolves the converter used to dump a table.
// Without an override the charset the table was loaded with in the session is reused.
func (r CharsetResolver) ForTable(session *Session, table string) (dbase.DefaultConverter, error) {
	if len(r.Override) > 0 {
		return dbase.ConverterFromName(r.Override)
	}
	if session != nil {
		if name, ok := session.Charset(table); ok {
			return dbase.ConverterFromName(name)
		}
	}
	return dbase.NewDefaultConverter(dbase.DefaultEncoding), nil
}
