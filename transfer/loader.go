// Package transfer moves data between DBF files and a relational store.
//
// A Loader creates one table per DBF file and records the original field
// definitions in the field catalog (dbs_meta_columns). A Dumper writes every
// table of the store back into a DBF file, restoring the field definitions from
// the column types and the catalog. A Session ties both directions together,
// e.g. a dump reuses the charset a table was loaded with.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Valentin-Kaiser/dbasesql/dbase"
	"github.com/Valentin-Kaiser/dbasesql/store"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Options configure loads and dumps
type Options struct {
	// Charset overrides the charset of every DBF file, e.g. cp850
	Charset string
	// BatchSize is the number of records inserted per commit, values below 2 commit every record
	BatchSize int
	// SkipUnchanged skips files that have been loaded unchanged in the session
	SkipUnchanged bool
	// Exclusive locks the DBF files while they are read or written
	Exclusive bool
}

// Loader loads DBF files into a store
type Loader struct {
	store    store.Store
	catalog  *Catalog
	session  *Session
	resolver CharsetResolver
	options  Options
	logger   *zap.SugaredLogger
}

// NewLoader returns a loader writing into the store.
// A nil session is replaced by a new one, a nil logger discards the log.
func NewLoader(s store.Store, session *Session, options Options, logger *zap.SugaredLogger) *Loader {
	if session == nil {
		session = NewSession()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Loader{
		store:    s,
		catalog:  NewCatalog(s),
		session:  session,
		resolver: CharsetResolver{Override: options.Charset},
		options:  options,
		logger:   logger.Named("loader"),
	}
}

// Session returns the session the loaded files are registered in
func (l *Loader) Session() *Session {
	return l.session
}

// LoadFolder loads every .dbf file below the root folder, in lexical order.
// The first failing file aborts the load.
func (l *Loader) LoadFolder(ctx context.Context, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a folder", ErrIO, root)
	}
	files := make([]string, 0)
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && isDBF(entry.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: walk %s: %w", ErrIO, root, err)
	}
	l.logger.Infof("Transfer folder %s: %d files - session %s", root, len(files), l.session.ID)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.LoadFile(ctx, root, path); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile loads one DBF file into the table named after its path relative to root.
// The field catalog and the table are dropped and recreated.
func (l *Loader) LoadFile(ctx context.Context, root, path string) (err error) {
	name := TableName(root, path)
	fingerprint, err := Fingerprint(path)
	if err != nil {
		return err
	}
	if l.options.SkipUnchanged && l.session.Loaded(fingerprint) {
		l.logger.Debugf("Skip unchanged file %s", path)
		return nil
	}

	file, err := dbase.OpenTable(&dbase.Config{
		Filename:   path,
		Exclusive:  l.options.Exclusive,
		Untested:   true,
		TrimSpaces: true,
		ReadOnly:   true,
	})
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: close %s: %w", ErrIO, path, cerr))
		}
	}()

	converter, err := l.resolver.ForFile(file.Header().CodePage)
	if err != nil {
		return fmt.Errorf("%w: charset of %s: %w", ErrDataConversion, path, err)
	}
	file.SetConverter(converter)

	if err := l.catalog.Reset(ctx); err != nil {
		return err
	}
	table := &Table{Name: name}
	for _, column := range file.Columns() {
		field := FieldOf(column)
		if err := l.catalog.Record(ctx, name, field); err != nil {
			return err
		}
		table.AddField(field)
	}
	if err := l.createTable(ctx, table); err != nil {
		return err
	}

	records, err := l.insertRecords(ctx, file, table)
	if err != nil {
		return err
	}
	abs, _ := filepath.Abs(path)
	l.session.Register(FileRecord{
		Path:        abs,
		Table:       name,
		Fingerprint: fingerprint,
		Charset:     converter.Name(),
		Records:     records,
		Loaded:      time.Now(),
	})
	l.logger.Infof("Loaded %s into %s: %d records - charset %s", path, name, records, converter.Name())
	return nil
}

// createTable drops and creates the data table of the fields
func (l *Loader) createTable(ctx context.Context, table *Table) error {
	d := l.store.Dialect()
	columns := make([]string, len(table.Fields))
	for i, field := range table.Fields {
		columns[i] = fmt.Sprintf("\t%s %s", d.Quote(field.Name), d.Type(RelationalType(field)))
	}
	ddl := fmt.Sprintf("CREATE TABLE %s(\n%s\n)", d.Quote(table.Name), strings.Join(columns, ",\n"))
	l.logger.Debug(ddl)
	if err := l.store.Exec(ctx, "DROP TABLE IF EXISTS "+d.Quote(table.Name)); err != nil {
		return fmt.Errorf("drop table %s: %w", table.Name, err)
	}
	if err := l.store.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table.Name, err)
	}
	return nil
}

func insertQuery(d store.Dialect, table *Table) string {
	names := make([]string, len(table.Fields))
	for i, field := range table.Fields {
		names[i] = d.Quote(field.Name)
	}
	return fmt.Sprintf("INSERT INTO %s(%s) VALUES (%s)", d.Quote(table.Name), strings.Join(names, ", "), placeholders(d, len(names)))
}

// insertRecords inserts the active records of the file and returns their number
func (l *Loader) insertRecords(ctx context.Context, file *dbase.File, table *Table) (records int, err error) {
	ins := &inserter{store: l.store, query: insertQuery(l.store.Dialect(), table), batch: l.options.BatchSize}
	defer func() {
		err = multierr.Append(err, ins.close())
	}()
	columns := file.Columns()
	for !file.EOF() {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		row, err := file.Next()
		if err != nil {
			return records, readError(table.Name, file.Pointer()+1, err)
		}
		if row.Deleted {
			continue
		}
		values := row.Values()
		for i, value := range values {
			if value == nil {
				values[i] = store.Null{Type: NullType(columns[i].DataType)}
			}
		}
		if err := ins.insert(ctx, values); err != nil {
			return records, fmt.Errorf("insert record %d into %s: %w", row.Position, table.Name, err)
		}
		records++
	}
	return records, ins.commit()
}

// readError classifies a failure of reading a record
func readError(table string, position uint32, err error) error {
	if errors.Is(err, dbase.ErrInvalidValue) || errors.Is(err, dbase.ErrInvalidEncoding) {
		return fmt.Errorf("%w: record %d of %s: %w", ErrDataConversion, position, table, err)
	}
	return fmt.Errorf("%w: record %d of %s: %w", ErrIO, position, table, err)
}

// inserter executes the insert statement, committing every record or every batch
type inserter struct {
	store   store.Store
	query   string
	batch   int
	tx      store.Tx
	stmt    store.Statement
	pending int
}

func (i *inserter) insert(ctx context.Context, values []interface{}) error {
	if i.stmt == nil {
		if err := i.begin(ctx); err != nil {
			return err
		}
	}
	if err := i.stmt.Exec(ctx, values...); err != nil {
		return err
	}
	i.pending++
	if i.batch > 1 && i.pending >= i.batch {
		return i.commit()
	}
	return nil
}

func (i *inserter) begin(ctx context.Context) error {
	if i.batch <= 1 {
		stmt, err := i.store.Prepare(ctx, i.query)
		if err != nil {
			return err
		}
		i.stmt = stmt
		return nil
	}
	tx, err := i.store.Begin(ctx)
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(ctx, i.query)
	if err != nil {
		return multierr.Append(err, tx.Rollback())
	}
	i.tx, i.stmt = tx, stmt
	return nil
}

// commit ends the running batch
func (i *inserter) commit() error {
	if i.tx == nil {
		return nil
	}
	err := i.stmt.Close()
	err = multierr.Append(err, i.tx.Commit())
	i.tx, i.stmt, i.pending = nil, nil, 0
	return err
}

// close rolls back an unfinished batch and releases the statement
func (i *inserter) close() error {
	if i.stmt == nil {
		return nil
	}
	err := i.stmt.Close()
	if i.tx != nil {
		err = multierr.Append(err, i.tx.Rollback())
	}
	i.tx, i.stmt = nil, nil
	return err
}
