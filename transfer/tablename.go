package transfer

import (
	"path/filepath"
	"strings"
)

// TableName derives the table name of a DBF file from its path relative to the root folder.
// Directories become "/" separated name segments and the .dbf extension is removed regardless of its case,
// e.g. root/customers/active.DBF is loaded as customers/active.
func TableName(root, path string) string {
	name := path
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		name = rel
	}
	name = filepath.ToSlash(name)
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".dbf") {
		name = name[:len(name)-len(ext)]
	}
	return name
}

// isDBF reports whether the file name has the .dbf extension in any case
func isDBF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".dbf")
}
