// Package dbase reads and writes dBase and FoxPro tables (DBF) together with
// their FoxPro memo sidecar files (FPT).
//
// Tables are opened with OpenTable and read sequentially row by row. New tables
// are created with NewTable and filled with WriteRow. Character data is converted
// between the code page of the table and UTF-8 by an EncodingConverter, which is
// either configured explicitly or derived from the code page mark of the header.
//
// The file handles are provided by an IO implementation. FileIO works on the
// local file system and can lock tables exclusively, GenericIO wraps any
// io.ReadWriteSeeker.
package dbase

// Config is a struct containing the configuration for opening or creating a table.
// The filename is mandatory unless a GenericIO with handles is used.
//
// The other fields are optional and are false by default.
// If Converter is not set or InterpretCodePage is true the package will interpret the code page mark.
// To open untested files set Untested to true. Tested files are defined in the constants.go file.
type Config struct {
	Filename          string            // The filename of the DBF file.
	Converter         EncodingConverter // The encoding converter to use.
	Exclusive         bool              // If true the file is locked exclusively while it is open.
	Untested          bool              // If true the file version is not checked.
	TrimSpaces        bool              // Trim trailing spaces of character values.
	ReadOnly          bool              // If true the file is opened in read-only mode.
	InterpretCodePage bool              // Whether or not the code page mark should be interpreted. Ignores the defined converter.
	IO                IO                // The IO interface to use, defaults to FileIO.
}
