package dbase

import "time"

// Containing DBF header information like dBase FileType, last change and rows count.
// https://docs.microsoft.com/en-us/previous-versions/visualstudio/foxpro/st4a0s68(v=vs.80)#table-header-record-structure
type Header struct {
	FileType   byte     // File type flag
	Year       uint8    // Last update year (0-99)
	Month      uint8    // Last update month
	Day        uint8    // Last update day
	RowsCount  uint32   // Number of rows in file
	FirstRow   uint16   // Position of first data row
	RowLength  uint16   // Length of one data row, including delete flag
	Reserved   [16]byte // Reserved
	TableFlags byte     // Table flags
	CodePage   byte     // Code page mark
	Reserved2  [2]byte  // Reserved, contains 0x00
}

// The raw header of the Memo file.
type MemoHeader struct {
	NextFree  uint32  // Location of next free block
	Unused    [2]byte // Unused
	BlockSize uint16  // Block size (bytes per block)
}

// Version returns the file version of the table
func (h *Header) Version() FileVersion {
	return FileVersion(h.FileType)
}

// Parses the year, month and day to time.Time.
// The year is stored in decades (2 digits) and added to the base century (2000).
func (h *Header) Modified() time.Time {
	return time.Date(2000+int(h.Year), time.Month(h.Month), int(h.Day), 0, 0, 0, 0, time.Local)
}

// Returns the amount of records in the table
func (h *Header) RecordsCount() uint32 {
	return h.RowsCount
}

// Returns the calculated file size based on the header info
func (h *Header) FileSize() int64 {
	return int64(h.FirstRow) + int64(h.RowsCount)*int64(h.RowLength) + 1
}

// touch sets the last modification date to the given time
func (h *Header) touch(t time.Time) {
	h.Year = uint8(t.Year() % 100)
	h.Month = uint8(t.Month())
	h.Day = uint8(t.Day())
}

// headerLength returns the position of the first row for the given number of columns.
// FoxPro tables reserve 263 bytes after the column terminator for the database container backlink.
func headerLength(version FileVersion, columns int) uint16 {
	length := 32 + uint16(columns)*32 + 1
	if version.foxPro() {
		length += 263
	}
	return length
}
