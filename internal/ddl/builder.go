// Package ddl builds statements for collection tables, identity sequences,
// and spatial indexes. Identifiers are always validated and quoted; property
// type specs pass a shape check and are then applied verbatim.
package ddl

import (
	"fmt"
	"sort"
	"strings"
)

// SequenceName returns the identity-sequence name for a collection.
func SequenceName(collection string) string {
	return collection + "_id_seq"
}

// spatialIndexName returns the RTree index name for a collection.
func spatialIndexName(collection string) string {
	return collection + "_geometry_idx"
}

// CreateSequence returns: CREATE SEQUENCE "<collection>_id_seq" START <start>.
func CreateSequence(collection string, start int64) (string, error) {
	if err := ValidateIdentifier(collection); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	if start < 1 {
		start = 1
	}
	return fmt.Sprintf("CREATE SEQUENCE %s START %d", QuoteIdentifier(SequenceName(collection)), start), nil
}

// DropSequence returns: DROP SEQUENCE IF EXISTS "<collection>_id_seq".
func DropSequence(collection string) (string, error) {
	if err := ValidateIdentifier(collection); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	return fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", QuoteIdentifier(SequenceName(collection))), nil
}

// CreateCollectionTable returns the CREATE TABLE statement with the fixed
// columns every collection carries. The id column draws from the collection's
// identity sequence; geometry is NOT NULL (one reference system per
// collection, registered separately).
func CreateCollectionTable(collection string) (string, error) {
	if err := ValidateIdentifier(collection); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	seq := QuoteLiteral(SequenceName(collection))
	return fmt.Sprintf(
		"CREATE TABLE %s (id BIGINT PRIMARY KEY DEFAULT nextval(%s), created_at TIMESTAMP DEFAULT current_timestamp, modified_at TIMESTAMP, geometry GEOMETRY NOT NULL)",
		QuoteIdentifier(collection), seq), nil
}

// CreateSpatialIndex returns: CREATE INDEX ... USING RTREE (geometry).
func CreateSpatialIndex(collection string) (string, error) {
	if err := ValidateIdentifier(collection); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s USING RTREE (geometry)",
		QuoteIdentifier(spatialIndexName(collection)),
		QuoteIdentifier(collection)), nil
}

// AddColumn returns: ALTER TABLE "<collection>" ADD COLUMN "<name>" <spec>.
// The column name is lower-cased; the type spec must pass the shape check and
// is then embedded verbatim.
func AddColumn(collection, name, spec string) (string, error) {
	if err := ValidateIdentifier(collection); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	name = strings.ToLower(name)
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid property name %q: %w", name, err)
	}
	if err := ValidateTypeSpec(spec); err != nil {
		return "", fmt.Errorf("invalid type spec for %q: %w", name, err)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		QuoteIdentifier(collection), QuoteIdentifier(name), spec), nil
}

// DropColumn returns: ALTER TABLE "<collection>" DROP COLUMN "<name>".
func DropColumn(collection, name string) (string, error) {
	if err := ValidateIdentifier(collection); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid property name %q: %w", name, err)
	}
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		QuoteIdentifier(collection), QuoteIdentifier(name)), nil
}

// DropTable returns: DROP TABLE "<collection>" [CASCADE].
func DropTable(collection string, cascade bool) (string, error) {
	if err := ValidateIdentifier(collection); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	stmt := fmt.Sprintf("DROP TABLE %s", QuoteIdentifier(collection))
	if cascade {
		stmt += " CASCADE"
	}
	return stmt, nil
}

// RenameTable returns: ALTER TABLE "<old>" RENAME TO "<new>".
func RenameTable(oldName, newName string) (string, error) {
	if err := ValidateIdentifier(oldName); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	if err := ValidateIdentifier(newName); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		QuoteIdentifier(oldName), QuoteIdentifier(newName)), nil
}

// SetIDDefault returns the statement pointing a collection's id column at a
// sequence (used after rename/copy when a fresh sequence is attached).
func SetIDDefault(collection string) (string, error) {
	if err := ValidateIdentifier(collection); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN id SET DEFAULT nextval(%s)",
		QuoteIdentifier(collection), QuoteLiteral(SequenceName(collection))), nil
}

// CopyRows returns: INSERT INTO "<dst>" SELECT * FROM "<src>".
func CopyRows(src, dst string) (string, error) {
	if err := ValidateIdentifier(src); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	if err := ValidateIdentifier(dst); err != nil {
		return "", fmt.Errorf("invalid collection name: %w", err)
	}
	return fmt.Sprintf("INSERT INTO %s SELECT * FROM %s",
		QuoteIdentifier(dst), QuoteIdentifier(src)), nil
}

// Property is one attribute column of a create/alter request.
type Property struct {
	Name string // lower-cased
	Spec string // type spec, verbatim
}

// SortedProperties returns the entries of a properties map in deterministic
// order with names lower-cased.
func SortedProperties(properties map[string]string) []Property {
	props := make([]Property, 0, len(properties))
	for name, spec := range properties {
		props = append(props, Property{Name: strings.ToLower(name), Spec: spec})
	}
	sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
	return props
}
