package ddl

import (
	"fmt"
	"strconv"
	"strings"
)

// BboxPolygonWKT builds the axis-aligned rectangle for a bounding-box query
// as WKT. Ring order: (minx,miny) → (maxx,miny) → (maxx,maxy) → (minx,maxy) →
// (minx,miny).
func BboxPolygonWKT(minx, miny, maxx, maxy float64) string {
	var b strings.Builder
	b.WriteString("POLYGON((")
	writeCoord(&b, minx, miny)
	b.WriteString(", ")
	writeCoord(&b, maxx, miny)
	b.WriteString(", ")
	writeCoord(&b, maxx, maxy)
	b.WriteString(", ")
	writeCoord(&b, minx, maxy)
	b.WriteString(", ")
	writeCoord(&b, minx, miny)
	b.WriteString("))")
	return b.String()
}

// PointExpr returns the ST_Point expression for the given coordinates.
func PointExpr(x, y float64) string {
	return fmt.Sprintf("ST_Point(%s, %s)", formatCoord(x), formatCoord(y))
}

func writeCoord(b *strings.Builder, x, y float64) {
	b.WriteString(formatCoord(x))
	b.WriteByte(' ')
	b.WriteString(formatCoord(y))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
