package dbase

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// File is the main struct to handle a dBase table and its memo file.
type File struct {
	config         *Config     // The config used when working with the DBF file.
	handle         Handle      // DBase file handle.
	memo           Handle      // Memo file handle.
	header         *Header     // DBase file header containing relevant information.
	memoHeader     *MemoHeader // Memo file header containing relevant information.
	dbaseMutex     *sync.Mutex // Mutex locks for concurrent writing access to the DBF file.
	memoMutex      *sync.Mutex // Mutex locks for concurrent writing access to the FPT file.
	columns        []*Column   // Visible columns.
	bits           []nullBits  // Positions in the null flags per visible column.
	nullFlagColumn *Column     // The hidden column containing the null flags (if nullable or variable length columns exist).
	rowPointer     uint32      // Internal row pointer, zero based.
	writable       bool        // Created by NewTable, the header is finalized on close.
	closed         bool
}

// nullBits holds the bit positions of a column inside the null flags, -1 if the column has none
type nullBits struct {
	varlength int
	null      int
}

// assignNullBits assigns the null flag bits in column order.
// Variable length columns get a bit marking a value shorter than the column, nullable columns a null bit.
func assignNullBits(columns []*Column) ([]nullBits, int) {
	bits := make([]nullBits, len(columns))
	n := 0
	for i, column := range columns {
		bits[i] = nullBits{varlength: -1, null: -1}
		if column.variable() {
			bits[i].varlength = n
			n++
		}
		if column.Nullable() {
			bits[i].null = n
			n++
		}
	}
	return bits, n
}

func bitSet(flags []byte, bit int) bool {
	if bit < 0 || bit/8 >= len(flags) {
		return false
	}
	return flags[bit/8]&(1<<uint(bit%8)) != 0
}

func setBit(flags []byte, bit int) {
	if bit < 0 || bit/8 >= len(flags) {
		return
	}
	flags[bit/8] |= 1 << uint(bit%8)
}

/**
 *	################################################################
 *	#					Open and create tables
 *	################################################################
 */

// OpenTable opens a dBase table for reading.
// The memo file is opened as well if the table defines memo columns.
func OpenTable(config *Config) (*File, error) {
	if config == nil {
		return nil, newErrorf("dbase-file-opentable-1", "missing configuration")
	}
	cfg := *config
	if cfg.IO == nil {
		if len(strings.TrimSpace(cfg.Filename)) == 0 {
			return nil, newErrorf("dbase-file-opentable-2", "missing filename")
		}
		cfg.IO = DefaultIO
	}
	debugf("Opening table: %s - Exclusive: %v - Untested: %v - Trim spaces: %v - InterpretCodepage: %v", cfg.Filename, cfg.Exclusive, cfg.Untested, cfg.TrimSpaces, cfg.InterpretCodePage)
	handle, err := cfg.IO.Open(&cfg, false)
	if err != nil {
		return nil, newError("dbase-file-opentable-3", err)
	}
	file := &File{
		config:     &cfg,
		handle:     handle,
		dbaseMutex: &sync.Mutex{},
		memoMutex:  &sync.Mutex{},
	}
	if err := file.prepare(); err != nil {
		return nil, multierr.Append(newError("dbase-file-opentable-4", err), file.Close())
	}
	return file, nil
}

// prepare reads the header and the columns and opens the memo file
func (file *File) prepare() error {
	if err := file.readHeader(); err != nil {
		return err
	}
	if !file.config.Untested && !file.header.Version().tested() {
		return newErrorf("dbase-file-prepare-1", "%w: file version 0x%02x", ErrUntested, file.header.FileType)
	}
	if err := file.readColumns(); err != nil {
		return err
	}
	if file.config.InterpretCodePage || file.config.Converter == nil {
		debugf("Interpreting code page mark...")
		file.config.Converter = ConverterFromCodePage(file.header.CodePage)
		debugf("Code page: 0x%02x => interpreted: 0x%02x", file.header.CodePage, file.config.Converter.CodePage())
	}
	if !file.hasMemo() {
		return nil
	}
	memo, err := file.config.IO.Open(file.config, true)
	if err != nil {
		return newError("dbase-file-prepare-2", err)
	}
	file.memo = memo
	return file.readMemoHeader()
}

// hasMemo reports whether the table refers to a memo file
func (file *File) hasMemo() bool {
	if TableFlag(file.header.TableFlags)&MemoFlag != 0 {
		return true
	}
	for _, column := range file.columns {
		if column.DataType.memo() {
			return true
		}
	}
	return false
}

// NewTable creates a new FoxPro table with the given columns and writes its header.
// A memo file is created if any column stores its values in a memo file,
// memoBlockSize defaults to DefaultMemoBlockSize if 0.
func NewTable(version FileVersion, config *Config, columns []*Column, memoBlockSize uint16) (*File, error) {
	if config == nil {
		return nil, newErrorf("dbase-file-newtable-1", "missing configuration")
	}
	if len(columns) == 0 {
		return nil, newErrorf("dbase-file-newtable-2", "no columns defined")
	}
	cfg := *config
	if cfg.IO == nil {
		if len(strings.TrimSpace(cfg.Filename)) == 0 {
			return nil, newErrorf("dbase-file-newtable-3", "missing filename")
		}
		cfg.IO = DefaultIO
	}
	if cfg.Converter == nil {
		cfg.Converter = NewDefaultConverter(DefaultEncoding)
	}
	names := make(map[string]bool, len(columns))
	for _, column := range columns {
		if names[column.Name()] {
			return nil, newErrorf("dbase-file-newtable-4", "duplicate column name %v", column.Name())
		}
		names[column.Name()] = true
	}
	file := &File{
		config:     &cfg,
		columns:    columns,
		dbaseMutex: &sync.Mutex{},
		memoMutex:  &sync.Mutex{},
		writable:   true,
	}
	var count int
	file.bits, count = assignNullBits(columns)
	all := columns
	if count > 0 {
		file.nullFlagColumn = &Column{
			name:     "_NullFlags",
			DataType: NullFlags,
			Length:   uint8((count + 7) / 8),
			Flag:     HiddenFlag | BinaryFlag,
		}
		all = append(append([]*Column(nil), columns...), file.nullFlagColumn)
	}
	position := uint32(1)
	memo := false
	for _, column := range all {
		column.Position = position
		position += uint32(column.Length)
		memo = memo || column.DataType.memo()
	}
	file.header = &Header{
		FileType:  byte(version),
		FirstRow:  headerLength(version, len(all)),
		RowLength: uint16(position),
		CodePage:  cfg.Converter.CodePage(),
	}
	if memo {
		file.header.TableFlags |= byte(MemoFlag)
	}
	file.header.touch(time.Now())
	debugf("Creating table: %s - version: 0x%02x - columns: %d - row length: %d", cfg.Filename, version, len(columns), position)

	handle, err := cfg.IO.Create(&cfg, false)
	if err != nil {
		return nil, newError("dbase-file-newtable-5", err)
	}
	file.handle = handle
	if err := file.writeHeader(); err != nil {
		return nil, multierr.Append(err, file.handle.Close())
	}
	if err := file.writeColumns(all); err != nil {
		return nil, multierr.Append(err, file.handle.Close())
	}
	if !memo {
		return file, nil
	}
	if memoBlockSize == 0 {
		memoBlockSize = DefaultMemoBlockSize
	}
	file.memoHeader = &MemoHeader{
		NextFree:  uint32((memoHeaderSize + int(memoBlockSize) - 1) / int(memoBlockSize)),
		BlockSize: memoBlockSize,
	}
	file.memo, err = cfg.IO.Create(&cfg, true)
	if err != nil {
		return nil, multierr.Append(newError("dbase-file-newtable-6", err), file.handle.Close())
	}
	if err := file.writeMemoHeader(); err != nil {
		return nil, multierr.Append(err, file.Close())
	}
	return file, nil
}

// Close writes the final header of created tables and closes all handles.
func (file *File) Close() error {
	if file.closed {
		return nil
	}
	file.closed = true
	var err error
	if file.writable && file.handle != nil {
		err = multierr.Append(err, file.finalize())
	}
	if file.handle != nil {
		debugf("Closing file: %s", file.config.Filename)
		err = multierr.Append(err, file.handle.Close())
	}
	if file.memo != nil {
		debugf("Closing related file: %s", file.config.Filename)
		err = multierr.Append(err, file.memo.Close())
	}
	if err != nil {
		return newError("dbase-file-close-1", err)
	}
	return nil
}

// finalize writes the row count, the EOF marker and the memo header
func (file *File) finalize() error {
	file.dbaseMutex.Lock()
	defer file.dbaseMutex.Unlock()
	file.header.touch(time.Now())
	if err := file.writeHeader(); err != nil {
		return err
	}
	if _, err := file.handle.Seek(file.header.FileSize()-1, io.SeekStart); err != nil {
		return newError("dbase-file-finalize-1", err)
	}
	if _, err := file.handle.Write([]byte{byte(EOFMarker)}); err != nil {
		return newError("dbase-file-finalize-2", err)
	}
	if file.memo != nil {
		return file.writeMemoHeader()
	}
	return nil
}

/**
 *	################################################################
 *	#					Header and columns
 *	################################################################
 */

func (file *File) readHeader() error {
	debugf("Reading header...")
	if _, err := file.handle.Seek(0, io.SeekStart); err != nil {
		return newError("dbase-file-readheader-1", err)
	}
	h := &Header{}
	// LittleEndian - Integers in table files are stored with the least significant byte first.
	if err := binary.Read(file.handle, binary.LittleEndian, h); err != nil {
		return newErrorf("dbase-file-readheader-2", "%w: %v", ErrIncomplete, err)
	}
	file.header = h
	return nil
}

func (file *File) writeHeader() error {
	debugf("Writing header - rows: %d", file.header.RowsCount)
	if _, err := file.handle.Seek(0, io.SeekStart); err != nil {
		return newError("dbase-file-writeheader-1", err)
	}
	if err := binary.Write(file.handle, binary.LittleEndian, file.header); err != nil {
		return newError("dbase-file-writeheader-2", err)
	}
	return nil
}

// readColumns reads the column definitions until the column terminator
func (file *File) readColumns() error {
	debugf("Reading columns...")
	if _, err := file.handle.Seek(32, io.SeekStart); err != nil {
		return newError("dbase-file-readcolumns-1", err)
	}
	version := file.header.Version()
	columns := make([]*Column, 0)
	offset := uint32(1)
	for pos := int64(32); pos+32 <= int64(file.header.FirstRow); pos += 32 {
		buf := make([]byte, 32)
		n, err := io.ReadFull(file.handle, buf)
		if err != nil && !(n > 0 && buf[0] == byte(ColumnEnd)) {
			return newErrorf("dbase-file-readcolumns-2", "%w: %v", ErrIncomplete, err)
		}
		if buf[0] == byte(ColumnEnd) {
			break
		}
		raw := rawColumn{}
		if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &raw); err != nil {
			return newError("dbase-file-readcolumns-3", err)
		}
		column := columnFromRaw(raw, version)
		// dBase III files do not store the displacement
		column.Position = offset
		offset += uint32(column.Length)
		if column.DataType == NullFlags {
			file.nullFlagColumn = column
			continue
		}
		columns = append(columns, column)
	}
	if offset > uint32(file.header.RowLength) {
		return newErrorf("dbase-file-readcolumns-4", "%w: columns need %d bytes, row length is %d", ErrIncomplete, offset, file.header.RowLength)
	}
	file.columns = columns
	file.bits, _ = assignNullBits(columns)
	debugf("Read %d columns", len(columns))
	return nil
}

func (file *File) writeColumns(columns []*Column) error {
	debugf("Writing columns...")
	if _, err := file.handle.Seek(32, io.SeekStart); err != nil {
		return newError("dbase-file-writecolumns-1", err)
	}
	buf := new(bytes.Buffer)
	for _, column := range columns {
		if err := binary.Write(buf, binary.LittleEndian, column.raw(file.header.Version())); err != nil {
			return newError("dbase-file-writecolumns-2", err)
		}
	}
	buf.WriteByte(byte(ColumnEnd))
	// Database container backlink
	buf.Write(make([]byte, int(file.header.FirstRow)-32-buf.Len()))
	if _, err := file.handle.Write(buf.Bytes()); err != nil {
		return newError("dbase-file-writecolumns-3", err)
	}
	return nil
}

/**
 *	################################################################
 *	#					Table information
 *	################################################################
 */

// Returns if the internal row pointer is at end of file
func (file *File) EOF() bool {
	return file.rowPointer >= file.header.RowsCount
}

// Returns if the internal row pointer is before first row
func (file *File) BOF() bool {
	return file.rowPointer == 0
}

// Returns the current row pointer position
func (file *File) Pointer() uint32 {
	return file.rowPointer
}

// Returns the dBase table file header struct for inspecting
func (file *File) Header() *Header {
	return file.header
}

// Returns the number of rows
func (file *File) RowsCount() uint32 {
	return file.header.RowsCount
}

// Returns all visible columns, the null flags column is hidden
func (file *File) Columns() []*Column {
	return file.columns
}

// Returns the requested column
func (file *File) Column(pos int) *Column {
	if pos < 0 || pos >= len(file.columns) {
		return nil
	}
	return file.columns[pos]
}

// Returns a slice of all the column names
func (file *File) ColumnNames() []string {
	names := make([]string, len(file.columns))
	for i, column := range file.columns {
		names[i] = column.Name()
	}
	return names
}

// Returns the column position of a column by name or -1 if not found.
func (file *File) ColumnPosByName(name string) int {
	for i, column := range file.columns {
		if strings.EqualFold(column.Name(), name) {
			return i
		}
	}
	return -1
}

// Returns the encoding converter of the table
func (file *File) Converter() EncodingConverter {
	return file.config.Converter
}

// SetConverter replaces the encoding converter used for the following rows
func (file *File) SetConverter(converter EncodingConverter) {
	if converter == nil {
		return
	}
	file.config.Converter = converter
}

/**
 *	################################################################
 *	#					Reading rows
 *	################################################################
 */

// GoTo sets the internal row pointer to the zero based row position
func (file *File) GoTo(row uint32) error {
	if row > file.header.RowsCount {
		return newErrorf("dbase-file-goto-1", "%w: row %d of %d", ErrInvalidPosition, row, file.header.RowsCount)
	}
	file.rowPointer = row
	return nil
}

// Next reads the row at the internal row pointer and moves the pointer forward.
// Deleted rows are returned with the Deleted flag set. ErrEOF is returned after the last row.
func (file *File) Next() (*Row, error) {
	if file.EOF() {
		return nil, newError("dbase-file-next-1", ErrEOF)
	}
	data, err := file.readRow(file.rowPointer)
	if err != nil {
		return nil, newError("dbase-file-next-2", err)
	}
	file.rowPointer++
	row, err := file.BytesToRow(data)
	if err != nil {
		return nil, newError("dbase-file-next-3", err)
	}
	row.Position = file.rowPointer
	return row, nil
}

// Rows reads all rows from the current row pointer on.
func (file *File) Rows(skipDeleted bool) ([]*Row, error) {
	rows := make([]*Row, 0, file.header.RowsCount-file.rowPointer)
	for !file.EOF() {
		row, err := file.Next()
		if err != nil {
			return nil, newError("dbase-file-rows-1", err)
		}
		if skipDeleted && row.Deleted {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (file *File) readRow(position uint32) ([]byte, error) {
	offset := int64(file.header.FirstRow) + int64(position)*int64(file.header.RowLength)
	if _, err := file.handle.Seek(offset, io.SeekStart); err != nil {
		return nil, newError("dbase-file-readrow-1", err)
	}
	data := make([]byte, file.header.RowLength)
	if _, err := io.ReadFull(file.handle, data); err != nil {
		return nil, newErrorf("dbase-file-readrow-2", "%w: row %d: %v", ErrIncomplete, position+1, err)
	}
	return data, nil
}

// BytesToRow converts raw row data to a row, applying the null flags
func (file *File) BytesToRow(data []byte) (*Row, error) {
	if len(data) < int(file.header.RowLength) {
		return nil, newErrorf("dbase-file-bytestorow-1", "%w: row needs %d bytes, got %d", ErrIncomplete, file.header.RowLength, len(data))
	}
	row := &Row{
		Deleted: Marker(data[0]) == Deleted,
		fields:  make([]*Field, 0, len(file.columns)),
	}
	var flags []byte
	if file.nullFlagColumn != nil {
		flags = data[file.nullFlagColumn.Position : file.nullFlagColumn.Position+uint32(file.nullFlagColumn.Length)]
	}
	for i, column := range file.columns {
		raw := data[column.Position : column.Position+uint32(column.Length)]
		if column.Nullable() && bitSet(flags, file.bits[i].null) {
			row.fields = append(row.fields, &Field{column: column})
			continue
		}
		if column.variable() && bitSet(flags, file.bits[i].varlength) && len(raw) > 0 {
			if n := int(raw[len(raw)-1]); n < len(raw) {
				raw = raw[:n]
			}
		}
		value, err := file.Interpret(raw, column)
		if err != nil {
			return nil, newError("dbase-file-bytestorow-2", err)
		}
		row.fields = append(row.fields, &Field{column: column, value: value})
	}
	return row, nil
}

/**
 *	################################################################
 *	#					Writing rows
 *	################################################################
 */

// WriteRow appends a row with one value per visible column.
// Nil values are written as null if the column is nullable, otherwise as blank.
func (file *File) WriteRow(values []interface{}) error {
	if !file.writable {
		return newError("dbase-file-writerow-1", ErrReadOnly)
	}
	data, err := file.rowToBytes(values)
	if err != nil {
		return newError("dbase-file-writerow-2", err)
	}
	file.dbaseMutex.Lock()
	defer file.dbaseMutex.Unlock()
	offset := int64(file.header.FirstRow) + int64(file.header.RowsCount)*int64(file.header.RowLength)
	if _, err := file.handle.Seek(offset, io.SeekStart); err != nil {
		return newError("dbase-file-writerow-3", err)
	}
	if _, err := file.handle.Write(data); err != nil {
		return newError("dbase-file-writerow-4", err)
	}
	file.header.RowsCount++
	return nil
}

func (file *File) rowToBytes(values []interface{}) ([]byte, error) {
	if len(values) != len(file.columns) {
		return nil, newErrorf("dbase-file-rowtobytes-1", "%w: %d values for %d columns", ErrInvalidValue, len(values), len(file.columns))
	}
	data := make([]byte, file.header.RowLength)
	data[0] = byte(Active)
	var flags []byte
	if file.nullFlagColumn != nil {
		flags = make([]byte, file.nullFlagColumn.Length)
	}
	for i, column := range file.columns {
		value := values[i]
		if value == nil && column.Nullable() {
			setBit(flags, file.bits[i].null)
		}
		raw, err := file.Represent(value, column)
		if err != nil {
			return nil, err
		}
		if column.variable() {
			if len(raw) < int(column.Length) {
				setBit(flags, file.bits[i].varlength)
				padded := make([]byte, column.Length)
				copy(padded, raw)
				padded[len(padded)-1] = byte(len(raw))
				raw = padded
			}
		}
		copy(data[column.Position:column.Position+uint32(column.Length)], raw)
	}
	if flags != nil {
		copy(data[file.nullFlagColumn.Position:], flags)
	}
	return data, nil
}
