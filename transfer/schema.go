package transfer

import "strings"

// Table is a relational table with the DBF fields it is built from
type Table struct {
	Name   string
	Fields []Field
}

// AddField appends a field, a field with the same name replaces the existing one
func (t *Table) AddField(field Field) {
	for i, f := range t.Fields {
		if strings.EqualFold(f.Name, field.Name) {
			t.Fields[i] = field
			return
		}
	}
	t.Fields = append(t.Fields, field)
}

// Schema is a set of tables kept in insertion order
type Schema struct {
	tables []*Table
	index  map[string]*Table
}

// Table returns the table with the name, creating it if it does not exist
func (s *Schema) Table(name string) *Table {
	if s.index == nil {
		s.index = make(map[string]*Table)
	}
	if table, ok := s.index[name]; ok {
		return table
	}
	table := &Table{Name: name}
	s.index[name] = table
	s.tables = append(s.tables, table)
	return table
}

// Tables returns the tables in the order they were first requested
func (s *Schema) Tables() []*Table {
	return s.tables
}
