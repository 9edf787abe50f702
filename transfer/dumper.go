package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Valentin-Kaiser/dbasesql/dbase"
	"github.com/Valentin-Kaiser/dbasesql/store"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	defaultNumericLength  = 20
	defaultNumericDecimal = 8
	maxCharacterLength    = 254
	maxColumnNameLength   = 10
)

// Dumper writes the tables of a store into DBF files
type Dumper struct {
	// OnRecordError decides whether a table dump continues after a record could not be written.
	// Defaults to AbortOnRecordError.
	OnRecordError RecordPolicy
	// Version is the file version of the created tables, defaults to dbase.FoxPro
	Version dbase.FileVersion

	store    store.Store
	catalog  *Catalog
	session  *Session
	resolver CharsetResolver
	options  Options
	logger   *zap.SugaredLogger
}

// NewDumper returns a dumper reading from the store.
// The session may be nil if no table has been loaded before.
func NewDumper(s store.Store, session *Session, options Options, logger *zap.SugaredLogger) *Dumper {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Dumper{
		OnRecordError: AbortOnRecordError,
		Version:       dbase.FoxPro,
		store:         s,
		catalog:       NewCatalog(s),
		session:       session,
		resolver:      CharsetResolver{Override: options.Charset},
		options:       options,
		logger:        logger.Named("dumper"),
	}
}

// DumpFolder writes one <table>.dbf file per table of the store into the destination folder.
// System tables and the field catalog are skipped.
func (d *Dumper) DumpFolder(ctx context.Context, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	schema, err := d.Schema(ctx)
	if err != nil {
		return err
	}
	for _, table := range schema.Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.DumpTable(ctx, dest, table); err != nil {
			return err
		}
	}
	return nil
}

// Schema introspects the store and returns the DBF fields of every user table in introspection order
func (d *Dumper) Schema(ctx context.Context) (*Schema, error) {
	columns, err := d.store.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}
	dialect := d.store.Dialect()
	schema := &Schema{}
	cataloged := false
	for _, column := range columns {
		if strings.EqualFold(column.Table, CatalogTable) {
			cataloged = true
			continue
		}
		if dialect.SystemTable(column.Table) {
			continue
		}
		schema.Table(column.Table).AddField(FieldFromColumn(column.Name, column.Type, column.Length, column.Decimal))
	}
	for _, table := range schema.Tables() {
		var entries map[string]CatalogEntry
		if cataloged {
			entries, err = d.catalog.Entries(ctx, table.Name)
			if err != nil {
				return nil, err
			}
		}
		used := make(map[string]bool, len(table.Fields))
		for i, field := range table.Fields {
			var entry *CatalogEntry
			if e, ok := entries[strings.ToUpper(field.Name)]; ok {
				entry = &e
			}
			field = completeField(field, entry)
			field.Name = columnName(field.Name, used)
			table.Fields[i] = field
		}
	}
	return schema, nil
}

// completeField fills the length and decimals the store did not report.
// The catalog is only consulted if it recorded the same DBF type.
func completeField(field Field, entry *CatalogEntry) Field {
	if entry != nil && entry.Type == field.Type && field.Length <= 0 {
		field.Length = entry.Length
		field.Decimal = entry.Decimal
	}
	switch field.Type {
	case dbase.Numeric, dbase.Float:
		if field.Length <= 0 {
			field.Length = defaultNumericLength
			field.Decimal = defaultNumericDecimal
		}
		if field.Length > defaultNumericLength {
			field.Length = defaultNumericLength
		}
		if field.Decimal < 0 {
			field.Decimal = 0
		}
		if field.Decimal > 0 && field.Decimal >= field.Length-1 {
			field.Decimal = field.Length - 2
			if field.Decimal < 0 {
				field.Decimal = 0
			}
		}
	case dbase.Character, dbase.NullFlags:
		if field.Length <= 0 {
			field.Length = 1
			if field.Type == dbase.Character {
				field.Length = maxCharacterLength
			}
		}
		if field.Length > maxCharacterLength {
			field.Length = maxCharacterLength
		}
		field.Decimal = 0
	default:
		field.Decimal = 0
	}
	return field
}

// columnName shortens a column name to the 10 bytes of a DBF field name, keeping it unique
func columnName(name string, used map[string]bool) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if len(name) > maxColumnNameLength {
		name = name[:maxColumnNameLength]
	}
	candidate := name
	for n := 1; used[candidate]; n++ {
		suffix := strconv.Itoa(n)
		base := name
		if len(base)+len(suffix) > maxColumnNameLength {
			base = base[:maxColumnNameLength-len(suffix)]
		}
		candidate = base + suffix
	}
	used[candidate] = true
	return candidate
}

// nullable reports whether a DBF type needs the null flags to tell a missing value from zero
func nullable(t dbase.DataType) bool {
	switch t {
	case dbase.Long, dbase.Autoincrement, dbase.Currency, dbase.Double:
		return true
	}
	return false
}

// DumpTable writes all rows of the table into dest/<table>.dbf.
// A failed record is passed to OnRecordError; the file written so far is kept if the dump aborts.
func (d *Dumper) DumpTable(ctx context.Context, dest string, table *Table) (err error) {
	path := filepath.Join(dest, filepath.FromSlash(table.Name)+".dbf")
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	converter, err := d.resolver.ForTable(d.session, table.Name)
	if err != nil {
		return fmt.Errorf("%w: charset of %s: %w", ErrDataConversion, table.Name, err)
	}

	columns := make([]*dbase.Column, len(table.Fields))
	for i, field := range table.Fields {
		column, err := dbase.NewColumn(field.Name, field.Type, uint8(field.Length), uint8(field.Decimal), nullable(field.Type))
		if err != nil {
			return fmt.Errorf("%w: column %s of %s: %w", ErrDataConversion, field.Name, table.Name, err)
		}
		columns[i] = column
		d.logger.Debugf("%s: %v", table.Name, column)
	}

	version := d.Version
	if version == 0 {
		version = dbase.FoxPro
	}
	file, err := dbase.NewTable(version, &dbase.Config{
		Filename:  abs,
		Converter: converter,
		Exclusive: d.options.Exclusive,
	}, columns, 0)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, abs, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: close %s: %w", ErrIO, abs, cerr))
		}
	}()

	rows, err := d.store.Query(ctx, "SELECT * FROM "+d.store.Dialect().Quote(table.Name))
	if err != nil {
		return fmt.Errorf("read table %s: %w", table.Name, err)
	}
	defer func() {
		err = multierr.Append(err, rows.Close())
	}()

	policy := d.OnRecordError
	if policy == nil {
		policy = AbortOnRecordError
	}
	records, skipped := 0, 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("read table %s: %w", table.Name, err)
		}
		if err := file.WriteRow(values); err != nil {
			recordErr := &RecordError{Path: abs, Row: values, Err: err}
			if perr := policy(recordErr); perr != nil {
				d.logger.Error(recordErr.Error())
				return perr
			}
			d.logger.Warn(recordErr.Error())
			skipped++
			continue
		}
		records++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read table %s: %w", table.Name, err)
	}
	if skipped > 0 {
		d.logger.Infof("Stored %s %d records, skipped %d.", table.Name, records, skipped)
		return nil
	}
	d.logger.Infof("Stored %s %d records.", table.Name, records)
	return nil
}
