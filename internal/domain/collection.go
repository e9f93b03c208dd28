package domain

// Fixed columns present on every collection. Attribute columns supplied by
// the caller may not shadow these.
const (
	ColID         = "id"
	ColCreatedAt  = "created_at"
	ColModifiedAt = "modified_at"
	ColGeometry   = "geometry"
)

// CollectionSeparator joins a database name and a collection suffix.
const CollectionSeparator = "_"

// CollectionSpec describes one collection in a batch create request.
type CollectionSpec struct {
	Properties map[string]string `json:"properties"` // attribute name -> type spec (verbatim)
	CRS        int               `json:"crs"`
}

// BatchResult reports the outcome of one entry of a non-atomic batch
// operation. Entries that were never attempted (the loop stops at the first
// failure) are absent from the result list.
type BatchResult struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

// OK reports whether the entry succeeded.
func (r BatchResult) OK() bool { return r.Error == "" }

// PropertyInfo is one column-metadata row returned by get_properties.
type PropertyInfo struct {
	Database   string `json:"database"`
	Collection string `json:"collection"` // un-prefixed suffix
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
}

// ColumnInfo is raw column metadata from the data plane.
type ColumnInfo struct {
	Name     string
	DataType string
}

// RelationSize is a point-in-time size snapshot of one data-plane relation.
type RelationSize struct {
	Name        string `json:"name"`
	RowEstimate int64  `json:"row_estimate"`
	TotalBytes  int64  `json:"total_bytes"`
}
