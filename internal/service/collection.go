package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"geolake/internal/ddl"
	"geolake/internal/domain"
)

// DefaultSRID is assumed when a create request carries no reference system.
const DefaultSRID = 4326

// CollectionService manages the lifecycle of collections: tables on the data
// plane named "<database>_<suffix>", each with an identity sequence, a spatial
// index, and a registered reference system. Every mutation is gated on the
// caller owning the collection's database-name prefix.
type CollectionService struct {
	databases domain.DatabaseRepository
	grants    domain.GrantRepository
	crs       domain.CRSRepository
	data      domain.DataPlane
	logger    *slog.Logger
}

func NewCollectionService(
	databases domain.DatabaseRepository,
	grants domain.GrantRepository,
	crs domain.CRSRepository,
	data domain.DataPlane,
	logger *slog.Logger,
) *CollectionService {
	return &CollectionService{
		databases: databases,
		grants:    grants,
		crs:       crs,
		data:      data,
		logger:    logger,
	}
}

// CreateCollection creates one collection: its identity sequence, the table
// with the fixed columns plus the caller's attribute columns (names
// lower-cased), a spatial index, and the SRID registration. The caller must
// own the collection's database-name prefix.
func (s *CollectionService) CreateCollection(ctx context.Context, name string, spec domain.CollectionSpec) error {
	if err := s.authorize(ctx, name); err != nil {
		return err
	}
	return s.create(ctx, name, spec)
}

// CreateCollections creates a batch sequentially. The batch is not atomic:
// each entry's outcome is reported individually, and the first failure stops
// the remaining entries (already created collections stay).
func (s *CollectionService) CreateCollections(ctx context.Context, specs map[string]domain.CollectionSpec) ([]domain.BatchResult, error) {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]domain.BatchResult, 0, len(names))
	for _, name := range names {
		err := s.CreateCollection(ctx, name, specs[name])
		results = append(results, batchResult(name, err))
		if err != nil {
			s.logger.Warn("batch create stopped", "collection", name, "error", err)
			break
		}
	}
	return results, nil
}

// DropCollections drops a batch sequentially, removing each table, its
// identity sequence, its SRID registration, and its grant rows. The first
// failure aborts the remainder; entries already dropped stay dropped.
func (s *CollectionService) DropCollections(ctx context.Context, names []string, cascade bool) ([]domain.BatchResult, error) {
	results := make([]domain.BatchResult, 0, len(names))
	for _, name := range names {
		err := s.drop(ctx, name, cascade)
		results = append(results, batchResult(name, err))
		if err != nil {
			s.logger.Warn("batch drop stopped", "collection", name, "error", err)
			break
		}
	}
	return results, nil
}

// AddProperties adds attribute columns to an existing collection. Names are
// lower-cased; the fixed columns cannot be shadowed.
func (s *CollectionService) AddProperties(ctx context.Context, collection string, properties map[string]string) error {
	if err := s.authorize(ctx, collection); err != nil {
		return err
	}
	if err := s.requireTable(ctx, collection); err != nil {
		return err
	}
	for _, p := range ddl.SortedProperties(properties) {
		if isFixedColumn(p.Name) {
			return domain.ErrValidation("property %q collides with a fixed column", p.Name)
		}
		stmt, err := ddl.AddColumn(collection, p.Name, p.Spec)
		if err != nil {
			return domain.ErrValidation("%v", err)
		}
		if err := s.data.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// DropProperties removes attribute columns. The fixed columns are protected.
func (s *CollectionService) DropProperties(ctx context.Context, collection string, names []string) error {
	if err := s.authorize(ctx, collection); err != nil {
		return err
	}
	if err := s.requireTable(ctx, collection); err != nil {
		return err
	}
	for _, name := range names {
		name = strings.ToLower(name)
		if isFixedColumn(name) {
			return domain.ErrValidation("column %q is fixed and cannot be dropped", name)
		}
		stmt, err := ddl.DropColumn(collection, name)
		if err != nil {
			return domain.ErrValidation("%v", err)
		}
		if err := s.data.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetProperties returns column metadata for a collection, resolved against
// the namespace registry so each row names the owning database and the
// un-prefixed collection suffix.
func (s *CollectionService) GetProperties(ctx context.Context, collection string) ([]domain.PropertyInfo, error) {
	if err := ddl.ValidateIdentifier(collection); err != nil {
		return nil, domain.ErrValidation("invalid collection name: %v", err)
	}
	cols, err := s.data.Columns(ctx, collection)
	if err != nil {
		return nil, err
	}
	db, err := s.databases.ForCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	suffix := strings.TrimPrefix(collection, db.Name+domain.CollectionSeparator)

	infos := make([]domain.PropertyInfo, 0, len(cols))
	for _, c := range cols {
		infos = append(infos, domain.PropertyInfo{
			Database:   db.Name,
			Collection: suffix,
			Name:       c.Name,
			DataType:   c.DataType,
		})
	}
	return infos, nil
}

// GetCollections lists the collections of a database, sorted by name.
func (s *CollectionService) GetCollections(ctx context.Context, database string) ([]string, error) {
	if err := ddl.ValidateIdentifier(database); err != nil {
		return nil, domain.ErrValidation("invalid database name: %v", err)
	}
	return s.data.ListTables(ctx, database+domain.CollectionSeparator)
}

// CollectionExists reports whether the collection's table exists.
func (s *CollectionService) CollectionExists(ctx context.Context, collection string) (bool, error) {
	if err := ddl.ValidateIdentifier(collection); err != nil {
		return false, domain.ErrValidation("invalid collection name: %v", err)
	}
	return s.data.TableExists(ctx, collection)
}

// RenameCollection renames a collection. Authorization runs against the
// destination name: the caller must own the prefix the collection is renamed
// INTO, which also covers moving it between the caller's own databases. The
// identity sequence is rebuilt under the new name, continuing after the
// highest assigned id, and the grant and SRID rows follow the rename.
func (s *CollectionService) RenameCollection(ctx context.Context, oldName, newName string) error {
	if err := s.authorize(ctx, newName); err != nil {
		return err
	}
	if err := s.requireTable(ctx, oldName); err != nil {
		return err
	}
	if exists, err := s.data.TableExists(ctx, newName); err != nil {
		return err
	} else if exists {
		return domain.ErrConflict("collection %q already exists", newName)
	}

	stmt, err := ddl.RenameTable(oldName, newName)
	if err != nil {
		return domain.ErrValidation("%v", err)
	}
	if err := s.data.Exec(ctx, stmt); err != nil {
		return err
	}
	if err := s.rebuildSequence(ctx, oldName, newName); err != nil {
		return err
	}
	if err := s.grants.Rename(ctx, oldName, newName); err != nil {
		return err
	}
	return s.crs.Rename(ctx, oldName, newName)
}

// CopyCollection copies a collection's definition and rows under a new name.
// Authorization runs against the destination name. The copy gets its own
// identity sequence, starting past the source's highest id, its own spatial
// index, and the source's SRID registration. Grants do not follow a copy.
func (s *CollectionService) CopyCollection(ctx context.Context, src, dst string) error {
	if err := s.authorize(ctx, dst); err != nil {
		return err
	}
	cols, err := s.data.Columns(ctx, src)
	if err != nil {
		return err
	}
	if exists, err := s.data.TableExists(ctx, dst); err != nil {
		return err
	} else if exists {
		return domain.ErrConflict("collection %q already exists", dst)
	}

	maxID, err := s.data.MaxID(ctx, src)
	if err != nil {
		return err
	}
	if err := s.execDDL(ddl.CreateSequence(dst, maxID+1))(ctx); err != nil {
		return err
	}
	if err := s.execDDL(ddl.CreateCollectionTable(dst))(ctx); err != nil {
		return err
	}
	for _, c := range cols {
		if isFixedColumn(c.Name) {
			continue
		}
		if err := s.execDDL(ddl.AddColumn(dst, c.Name, c.DataType))(ctx); err != nil {
			return err
		}
	}
	if err := s.execDDL(ddl.CopyRows(src, dst))(ctx); err != nil {
		return err
	}
	if err := s.execDDL(ddl.CreateSpatialIndex(dst))(ctx); err != nil {
		return err
	}

	srid, err := s.crs.Get(ctx, src)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return nil // source predates SRID registration
		}
		return err
	}
	return s.crs.Set(ctx, dst, srid)
}

// InsertIntoCollection inserts rows into a collection. Each row maps column
// names to values; geometry values are WKT strings. The id and timestamp
// columns fall back to their defaults when absent.
func (s *CollectionService) InsertIntoCollection(ctx context.Context, collection string, rows []map[string]any) error {
	if err := s.authorize(ctx, collection); err != nil {
		return err
	}
	if err := ddl.ValidateIdentifier(collection); err != nil {
		return domain.ErrValidation("invalid collection name: %v", err)
	}
	if len(rows) == 0 {
		return domain.ErrValidation("no rows to insert")
	}

	for _, row := range rows {
		cols, args, err := splitRow(row)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return domain.ErrValidation("empty row")
		}

		var b strings.Builder
		b.WriteString("INSERT INTO ")
		b.WriteString(ddl.QuoteIdentifier(collection))
		b.WriteString(" (")
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ddl.QuoteIdentifier(c))
		}
		b.WriteString(") VALUES (")
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			if c == domain.ColGeometry {
				b.WriteString("ST_GeomFromText(?)")
			} else {
				b.WriteString("?")
			}
		}
		b.WriteString(")")
		if err := s.data.Exec(ctx, b.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCollection updates the rows matched by the where clause, setting the
// supplied values and stamping modified_at. The where clause is embedded
// verbatim and must not be empty; id and the timestamp columns cannot be set.
func (s *CollectionService) UpdateCollection(ctx context.Context, collection string, values map[string]any, where string) error {
	if err := s.authorize(ctx, collection); err != nil {
		return err
	}
	if err := ddl.ValidateIdentifier(collection); err != nil {
		return domain.ErrValidation("invalid collection name: %v", err)
	}
	if strings.TrimSpace(where) == "" {
		return domain.ErrValidation("update requires a where clause")
	}
	if len(values) == 0 {
		return domain.ErrValidation("no values to set")
	}

	cols, args, err := splitRow(values)
	if err != nil {
		return err
	}
	for _, c := range cols {
		if c != domain.ColGeometry && isFixedColumn(c) {
			return domain.ErrValidation("column %q cannot be set directly", c)
		}
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(ddl.QuoteIdentifier(collection))
	b.WriteString(" SET ")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ddl.QuoteIdentifier(c))
		if c == domain.ColGeometry {
			b.WriteString(" = ST_GeomFromText(?)")
		} else {
			b.WriteString(" = ?")
		}
	}
	b.WriteString(", ")
	b.WriteString(ddl.QuoteIdentifier(domain.ColModifiedAt))
	b.WriteString(" = current_timestamp WHERE ")
	b.WriteString(where)

	return s.data.Exec(ctx, b.String(), args...)
}

// DeleteFromCollection deletes the rows matched by the where clause, embedded
// verbatim. An empty clause is rejected rather than emptying the collection.
func (s *CollectionService) DeleteFromCollection(ctx context.Context, collection, where string) error {
	if err := s.authorize(ctx, collection); err != nil {
		return err
	}
	if err := ddl.ValidateIdentifier(collection); err != nil {
		return domain.ErrValidation("invalid collection name: %v", err)
	}
	if strings.TrimSpace(where) == "" {
		return domain.ErrValidation("delete requires a where clause")
	}
	return s.data.Exec(ctx, "DELETE FROM "+ddl.QuoteIdentifier(collection)+" WHERE "+where)
}

func (s *CollectionService) create(ctx context.Context, name string, spec domain.CollectionSpec) error {
	if err := ddl.ValidateIdentifier(name); err != nil {
		return domain.ErrValidation("invalid collection name: %v", err)
	}
	exists, err := s.data.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrConflict("collection %q already exists", name)
	}

	srid := spec.CRS
	if srid <= 0 {
		srid = DefaultSRID
	}

	if err := s.execDDL(ddl.CreateSequence(name, 1))(ctx); err != nil {
		return err
	}
	if err := s.execDDL(ddl.CreateCollectionTable(name))(ctx); err != nil {
		return err
	}
	for _, p := range ddl.SortedProperties(spec.Properties) {
		if isFixedColumn(p.Name) {
			return domain.ErrValidation("property %q collides with a fixed column", p.Name)
		}
		if err := s.execDDL(ddl.AddColumn(name, p.Name, p.Spec))(ctx); err != nil {
			return err
		}
	}
	if err := s.execDDL(ddl.CreateSpatialIndex(name))(ctx); err != nil {
		return err
	}
	if err := s.crs.Set(ctx, name, srid); err != nil {
		return err
	}

	s.logger.Info("collection created", "collection", name, "srid", srid)
	return nil
}

func (s *CollectionService) drop(ctx context.Context, name string, cascade bool) error {
	if err := s.authorize(ctx, name); err != nil {
		return err
	}
	if err := s.requireTable(ctx, name); err != nil {
		return err
	}
	if err := s.execDDL(ddl.DropTable(name, cascade))(ctx); err != nil {
		return err
	}
	if err := s.execDDL(ddl.DropSequence(name))(ctx); err != nil {
		return err
	}
	if err := s.crs.Delete(ctx, name); err != nil {
		return err
	}
	if err := s.grants.DeleteForCollection(ctx, name); err != nil {
		return err
	}
	s.logger.Info("collection dropped", "collection", name)
	return nil
}

// rebuildSequence replaces a renamed collection's identity sequence so new
// ids keep the new name and continue after the highest assigned id.
func (s *CollectionService) rebuildSequence(ctx context.Context, oldName, newName string) error {
	maxID, err := s.data.MaxID(ctx, newName)
	if err != nil {
		return err
	}
	if err := s.execDDL(ddl.DropSequence(oldName))(ctx); err != nil {
		return err
	}
	if err := s.execDDL(ddl.CreateSequence(newName, maxID+1))(ctx); err != nil {
		return err
	}
	return s.execDDL(ddl.SetIDDefault(newName))(ctx)
}

func (s *CollectionService) authorize(ctx context.Context, collection string) error {
	id := domain.IdentityFromContext(ctx)
	allowed, err := s.databases.OwnsPrefix(ctx, id.Name, collection)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrAccessDenied("%s has no access to collection %s", id.Name, collection)
	}
	return nil
}

func (s *CollectionService) requireTable(ctx context.Context, collection string) error {
	if err := ddl.ValidateIdentifier(collection); err != nil {
		return domain.ErrValidation("invalid collection name: %v", err)
	}
	exists, err := s.data.TableExists(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound("collection %q does not exist", collection)
	}
	return nil
}

// execDDL adapts the two-value builder functions for sequential execution.
func (s *CollectionService) execDDL(stmt string, err error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err != nil {
			return domain.ErrValidation("%v", err)
		}
		return s.data.Exec(ctx, stmt)
	}
}

// splitRow orders a value map deterministically and validates column names.
// Keys are lower-cased to match column folding; two keys that collide after
// folding are rejected rather than letting one silently win.
func splitRow(row map[string]any) ([]string, []any, error) {
	byColumn := make(map[string]any, len(row))
	cols := make([]string, 0, len(row))
	for name, value := range row {
		c := strings.ToLower(name)
		if _, dup := byColumn[c]; dup {
			return nil, nil, domain.ErrValidation("conflicting values for column %q", c)
		}
		if err := ddl.ValidateIdentifier(c); err != nil {
			return nil, nil, domain.ErrValidation("invalid column name %q: %v", c, err)
		}
		byColumn[c] = value
		cols = append(cols, c)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols))
	for _, c := range cols {
		args = append(args, byColumn[c])
	}
	return cols, args, nil
}

func isFixedColumn(name string) bool {
	switch name {
	case domain.ColID, domain.ColCreatedAt, domain.ColModifiedAt, domain.ColGeometry:
		return true
	}
	return false
}

func batchResult(name string, err error) domain.BatchResult {
	r := domain.BatchResult{Name: name}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
