package schema

import "strings"

// AffinityOf maps a declared SQLite column type to a base type, following
// the SQLite affinity rules with extra cases for BOOLEAN and date/time
// declarations. An empty declaration maps to Blob (SQLite rule 3).
func AffinityOf(declared string) BaseType {
	d := strings.ToUpper(declared)
	switch {
	case d == "":
		return Blob
	case strings.Contains(d, "INT"):
		return Integer
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"), strings.Contains(d, "STRING"):
		return Text
	case strings.Contains(d, "BLOB"):
		return Blob
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return Float
	case strings.Contains(d, "BOOL"):
		return Boolean
	case strings.Contains(d, "DATETIMEOFFSET"):
		return DateTimeOffset
	case strings.Contains(d, "DATE"), strings.Contains(d, "TIME"):
		return DateTime
	case strings.Contains(d, "DEC"), strings.Contains(d, "NUM"):
		return Number
	default:
		return Number
	}
}
