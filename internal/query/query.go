// Package query builds and executes read queries over collections.
//
// Trust boundary: collection names and other identifier-class inputs are
// validated and quoted before being embedded. Clause fragments (select,
// where, group, order) are embedded verbatim; the caller is the trust
// boundary for those values.
package query

import (
	"context"
	"fmt"
	"strings"

	"geolake/internal/ddl"
	"geolake/internal/domain"
)

// Bounding-box containment modes.
const (
	ModeWithin   = "within"
	ModeContains = "contains"
)

// Engine executes stateless, one-shot read queries against the data plane.
// Reads never mutate state; a read matching zero rows fails with
// EmptyResultError rather than returning an empty array. Every row read is
// gated on the caller holding the read capability for the collection.
type Engine struct {
	data   domain.DataPlane
	crs    domain.CRSRepository
	access domain.AccessChecker
}

// NewEngine creates a query engine over the given data plane, SRID registry,
// and access checker.
func NewEngine(data domain.DataPlane, crs domain.CRSRepository, access domain.AccessChecker) *Engine {
	return &Engine{data: data, crs: crs, access: access}
}

// PGOptions are the optional clause fragments of a generic read. They are
// applied in the fixed order select → where → group → order → limit → offset.
type PGOptions struct {
	Select string
	Where  string
	Group  string
	Order  string
	Limit  int
	Offset int
}

// BboxParams parameterize a bounding-box query.
type BboxParams struct {
	MinX, MinY float64
	MaxX, MaxY float64
	Mode       string // "within" or "contains"
	SRID       int
	Where      string // verbatim, combined with the spatial predicate via Op
	Op         string // "AND" (default) or "OR"
	Limit      int
	Offset     int
}

// NearestParams parameterize a nearest-neighbor query.
type NearestParams struct {
	X, Y   float64
	SRID   int
	Select string
	Where  string
	Group  string
	Limit  int
	Offset int
}

// GetPG builds a query over the collection from the supplied clause fragments
// and executes it. Zero matching rows is a failure by contract.
func (e *Engine) GetPG(ctx context.Context, collection string, o PGOptions) ([]byte, error) {
	if err := ddl.ValidateIdentifier(collection); err != nil {
		return nil, domain.ErrValidation("invalid collection name: %v", err)
	}
	if err := e.authorize(ctx, collection); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectClause(o.Select))
	b.WriteString(" FROM ")
	b.WriteString(ddl.QuoteIdentifier(collection))
	if o.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(o.Where)
	}
	if o.Group != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(o.Group)
	}
	if o.Order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(o.Order)
	}
	writePagination(&b, o.Limit, o.Offset)

	return e.run(ctx, collection, b.String())
}

// GetByBbox selects rows whose geometry is within, or contains, the
// axis-aligned rectangle spanned by the four coordinates, combined with the
// caller's where clause, ordered by id ascending.
func (e *Engine) GetByBbox(ctx context.Context, collection string, p BboxParams) ([]byte, error) {
	if err := ddl.ValidateIdentifier(collection); err != nil {
		return nil, domain.ErrValidation("invalid collection name: %v", err)
	}
	if err := e.authorize(ctx, collection); err != nil {
		return nil, err
	}

	var predicate string
	switch p.Mode {
	case ModeWithin:
		predicate = "ST_Within(geometry, ST_GeomFromText(%s))"
	case ModeContains:
		predicate = "ST_Contains(geometry, ST_GeomFromText(%s))"
	default:
		return nil, domain.ErrValidation("unrecognized bounding-box mode %q: must be %q or %q",
			p.Mode, ModeWithin, ModeContains)
	}

	if err := e.checkSRID(ctx, collection, p.SRID); err != nil {
		return nil, err
	}

	poly := ddl.QuoteLiteral(ddl.BboxPolygonWKT(p.MinX, p.MinY, p.MaxX, p.MaxY))

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectClause(""))
	b.WriteString(" FROM ")
	b.WriteString(ddl.QuoteIdentifier(collection))
	b.WriteString(" WHERE (")
	fmt.Fprintf(&b, predicate, poly)
	b.WriteString(")")
	if p.Where != "" {
		b.WriteString(" ")
		b.WriteString(combineOp(p.Op))
		b.WriteString(" (")
		b.WriteString(p.Where)
		b.WriteString(")")
	}
	b.WriteString(" ORDER BY id")
	writePagination(&b, p.Limit, p.Offset)

	return e.run(ctx, collection, b.String())
}

// GetNearest returns rows with a distance column to the point (x, y),
// ordered by ascending distance. Ordering relies on the collection's
// spatial index.
func (e *Engine) GetNearest(ctx context.Context, collection string, p NearestParams) ([]byte, error) {
	if err := ddl.ValidateIdentifier(collection); err != nil {
		return nil, domain.ErrValidation("invalid collection name: %v", err)
	}
	if err := e.authorize(ctx, collection); err != nil {
		return nil, err
	}
	if err := e.checkSRID(ctx, collection, p.SRID); err != nil {
		return nil, err
	}

	point := ddl.PointExpr(p.X, p.Y)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectClause(p.Select))
	fmt.Fprintf(&b, ", ST_Distance(geometry, %s) AS distance", point)
	b.WriteString(" FROM ")
	b.WriteString(ddl.QuoteIdentifier(collection))
	if p.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(p.Where)
	}
	if p.Group != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(p.Group)
	}
	fmt.Fprintf(&b, " ORDER BY ST_Distance(geometry, %s) ASC", point)
	writePagination(&b, p.Limit, p.Offset)

	return e.run(ctx, collection, b.String())
}

// GetCollectionSRID returns the reference system registered for the
// collection's geometry column.
func (e *Engine) GetCollectionSRID(ctx context.Context, collection string) (int, error) {
	return e.crs.Get(ctx, collection)
}

// HeadCollection returns the first n rows of a collection ordered by id.
func (e *Engine) HeadCollection(ctx context.Context, collection string, n int) ([]byte, error) {
	if n <= 0 {
		n = 10
	}
	return e.GetPG(ctx, collection, PGOptions{Order: "id", Limit: n})
}

// authorize gates a row read on the caller holding the read capability,
// through ownership, a grant, or a publish. Admins read everything.
func (e *Engine) authorize(ctx context.Context, collection string) error {
	id := domain.IdentityFromContext(ctx)
	if id.IsAdmin {
		return nil
	}
	allowed, err := e.access.Check(ctx, collection, id.Name, domain.CapRead)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrAccessDenied("%s has no access to collection %s", id.Name, collection)
	}
	return nil
}

// run executes the built query and enforces the empty-result contract.
func (e *Engine) run(ctx context.Context, collection, sqlQuery string) ([]byte, error) {
	out, count, err := e.data.QueryJSON(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrEmptyResult("query returned no rows for collection %q", collection)
	}
	return out, nil
}

// checkSRID rejects a query whose coordinates are declared in a reference
// system other than the one registered for the collection. srid 0 means
// "use the collection's system".
func (e *Engine) checkSRID(ctx context.Context, collection string, srid int) error {
	if srid == 0 {
		return nil
	}
	registered, err := e.crs.Get(ctx, collection)
	if err != nil {
		return err
	}
	if registered != srid {
		return domain.ErrValidation("srid %d does not match collection %q srid %d",
			srid, collection, registered)
	}
	return nil
}

// selectClause substitutes the default projection when no select fragment is
// supplied: all columns with geometry rendered as GeoJSON.
func selectClause(sel string) string {
	if sel == "" || sel == "*" {
		return "* REPLACE (ST_AsGeoJSON(geometry) AS geometry)"
	}
	return sel
}

func combineOp(op string) string {
	if strings.EqualFold(op, "OR") {
		return "OR"
	}
	return "AND"
}

func writePagination(b *strings.Builder, limit, offset int) {
	if limit > 0 {
		fmt.Fprintf(b, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(b, " OFFSET %d", offset)
	}
}
