package ddl

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRe allows alphanumeric + underscores + hyphens, starting with a
// letter or underscore. Hyphens occur in practice because principal names are
// UUID-derived and prefix their collections.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// typeSpecRe matches simple SQL type names, optionally with precision/scale
// parameters and an array suffix:
//
//	WORD                         → INTEGER, VARCHAR, BOOLEAN, etc.
//	WORD(digits)                 → VARCHAR(255), DECIMAL(10)
//	WORD(digits, digits)         → DECIMAL(10,2), NUMERIC(18,4)
//	WORD[]                       → INTEGER[], VARCHAR[]
//
// Case-insensitive. Rejects semicolons, comments, quotes, and other
// injection vectors. Property type specs are otherwise applied verbatim.
var typeSpecRe = regexp.MustCompile(`(?i)^[A-Z][A-Z0-9_ ]*(?:\(\s*\d+\s*(?:,\s*\d+\s*)?\))?(?:\[\])?$`)

// maxIdentifierLen is the maximum length allowed for a SQL identifier.
const maxIdentifierLen = 128

// maxTypeSpecLen is the maximum length allowed for a property type spec.
const maxTypeSpecLen = 64

// ValidateIdentifier checks that name is a safe SQL identifier:
//   - Non-empty
//   - At most 128 characters
//   - Matches [a-zA-Z_][a-zA-Z0-9_-]*
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > maxIdentifierLen {
		return fmt.Errorf("name must be at most %d characters", maxIdentifierLen)
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("name must match [a-zA-Z_][a-zA-Z0-9_-]*")
	}
	return nil
}

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double-quote characters by doubling them (standard SQL).
//
// Always quotes unconditionally. The caller should validate first if needed.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral wraps a string value in single quotes, escaping any
// embedded single-quote characters by doubling them (standard SQL).
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// ValidateTypeSpec checks that a property type spec is a safe column type:
//   - Non-empty
//   - At most 64 characters
//   - Matches the allowed type pattern (word, optional precision/scale, optional array)
func ValidateTypeSpec(spec string) error {
	if spec == "" {
		return fmt.Errorf("type spec is required")
	}
	if len(spec) > maxTypeSpecLen {
		return fmt.Errorf("type spec must be at most %d characters", maxTypeSpecLen)
	}
	// Reject obvious injection patterns before the regex check.
	if strings.ContainsAny(spec, ";-'\"\\") {
		return fmt.Errorf("type spec contains invalid characters")
	}
	if !typeSpecRe.MatchString(spec) {
		return fmt.Errorf("type spec %q is not a recognized type pattern", spec)
	}
	return nil
}
