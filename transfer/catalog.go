package transfer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Valentin-Kaiser/dbasesql/dbase"
	"github.com/Valentin-Kaiser/dbasesql/store"
	"go.uber.org/multierr"
)

// CatalogTable is the table holding the original DBF definition of every loaded column
const CatalogTable = "dbs_meta_columns"

// CatalogEntry is the original DBF definition of a loaded column
type CatalogEntry struct {
	Table   string
	Column  string
	Type    dbase.DataType
	Length  int
	Decimal int
}

// Catalog persists the DBF field definitions next to the loaded tables,
// so a dump can restore what the relational types do not carry.
type Catalog struct {
	store store.Store
}

func NewCatalog(s store.Store) *Catalog {
	return &Catalog{store: s}
}

func (c *Catalog) quoted() string {
	return c.store.Dialect().Quote(CatalogTable)
}

// Reset drops and recreates the catalog table
func (c *Catalog) Reset(ctx context.Context) error {
	d := c.store.Dialect()
	if err := c.store.Exec(ctx, "DROP TABLE IF EXISTS "+c.quoted()); err != nil {
		return fmt.Errorf("%w: drop %s: %w", ErrMetadataPersistence, CatalogTable, err)
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s(\n\t%s %s NOT NULL,\n\t%s %s NOT NULL,\n\t%s %s,\n\t%s %s NOT NULL,\n\t%s %s NOT NULL,\n\tPRIMARY KEY (%s, %s)\n)",
		c.quoted(),
		d.Quote("table_name"), d.Type("varchar(255)"),
		d.Quote("column_name"), d.Type("varchar(255)"),
		d.Quote("column_type"), d.Type("varchar(120)"),
		d.Quote("length"), d.Type("int"),
		d.Quote("decimal"), d.Type("int"),
		d.Quote("table_name"), d.Quote("column_name"),
	)
	if err := c.store.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrMetadataPersistence, CatalogTable, err)
	}
	return nil
}

// Record stores the definition of one field of a table
func (c *Catalog) Record(ctx context.Context, table string, field Field) error {
	d := c.store.Dialect()
	query := fmt.Sprintf("INSERT INTO %s(%s, %s, %s, %s, %s) VALUES (%s)",
		c.quoted(),
		d.Quote("table_name"), d.Quote("column_name"), d.Quote("column_type"), d.Quote("length"), d.Quote("decimal"),
		placeholders(d, 5),
	)
	if err := c.store.Exec(ctx, query, table, field.Name, field.Type.String(), field.Length, field.Decimal); err != nil {
		return fmt.Errorf("%w: record %s.%s: %w", ErrMetadataPersistence, table, field.Name, err)
	}
	return nil
}

// Entries returns the recorded fields of a table keyed by upper case column name
func (c *Catalog) Entries(ctx context.Context, table string) (entries map[string]CatalogEntry, err error) {
	d := c.store.Dialect()
	query := fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s WHERE %s = %s",
		d.Quote("column_name"), d.Quote("column_type"), d.Quote("length"), d.Quote("decimal"),
		c.quoted(), d.Quote("table_name"), d.Placeholder(1),
	)
	rows, err := c.store.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrMetadataPersistence, CatalogTable, err)
	}
	defer func() {
		err = multierr.Append(err, rows.Close())
	}()
	entries = make(map[string]CatalogEntry)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrMetadataPersistence, CatalogTable, err)
		}
		entry := CatalogEntry{
			Table:   table,
			Column:  fmt.Sprint(values[0]),
			Type:    dbase.DataTypeByName(fmt.Sprint(values[1])),
			Length:  intValue(values[2]),
			Decimal: intValue(values[3]),
		}
		entries[strings.ToUpper(entry.Column)] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrMetadataPersistence, CatalogTable, err)
	}
	return entries, nil
}

func placeholders(d store.Dialect, n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = d.Placeholder(i + 1)
	}
	return strings.Join(p, ", ")
}

func intValue(v interface{}) int {
	switch i := v.(type) {
	case int64:
		return int(i)
	case int32:
		return int(i)
	case int:
		return i
	case float64:
		return int(i)
	case []byte:
		n, _ := strconv.Atoi(strings.TrimSpace(string(i)))
		return n
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(i))
		return n
	}
	return 0
}
