package wire

import "bytes"

// TypeURL identifies a Flight SQL command message type.
type TypeURL string

// The command types this server recognizes. The values are the exact byte
// strings clients put in the Any envelope's type_url field.
const (
	TypeGetCatalogs            TypeURL = "type.googleapis.com/arrow.flight.protocol.sql.CommandGetCatalogs"
	TypeGetDbSchemas           TypeURL = "type.googleapis.com/arrow.flight.protocol.sql.CommandGetDbSchemas"
	TypeGetTables              TypeURL = "type.googleapis.com/arrow.flight.protocol.sql.CommandGetTables"
	TypeGetTableTypes          TypeURL = "type.googleapis.com/arrow.flight.protocol.sql.CommandGetTableTypes"
	TypeStatementQuery         TypeURL = "type.googleapis.com/arrow.flight.protocol.sql.CommandStatementQuery"
	TypePreparedStatementQuery TypeURL = "type.googleapis.com/arrow.flight.protocol.sql.CommandPreparedStatementQuery"
)

var flightSQLPrefix = []byte("type.googleapis.com/arrow.flight.protocol.sql.")

// classifyOrder fixes the priority when a buffer matches more than one type
// URL: metadata commands first, then queries.
var classifyOrder = []TypeURL{
	TypeGetCatalogs,
	TypeGetDbSchemas,
	TypeGetTables,
	TypeGetTableTypes,
	TypeStatementQuery,
	TypePreparedStatementQuery,
}

// Field-number tables for the supported inner messages. Adding a command type
// is a table change, not new parsing code.
const (
	anyFieldTypeURL = 1
	anyFieldValue   = 2
)

// queryField maps command types whose inner message carries SQL text to the
// field number of that text.
var queryField = map[TypeURL]int{
	TypeStatementQuery:         1, // CommandStatementQuery.query
	TypePreparedStatementQuery: 1, // CommandPreparedStatementQuery.prepared_statement_handle
}

// catalogFilterField maps metadata command types to the field number of their
// optional catalog filter.
var catalogFilterField = map[TypeURL]int{
	TypeGetDbSchemas: 1, // CommandGetDbSchemas.catalog
	TypeGetTables:    1, // CommandGetTables.catalog
}

// IsFlightSQLCommand reports whether buf looks like a Flight SQL command. The
// check is a loose substring test on the type-URL prefix, not schema
// validation; the protobuf framing around the URL varies too much to anchor
// on.
func IsFlightSQLCommand(buf []byte) bool {
	return bytes.Contains(buf, flightSQLPrefix)
}

// Classify returns the first recognized command type whose type URL appears in
// buf, or "" when none matches.
func Classify(buf []byte) TypeURL {
	for _, t := range classifyOrder {
		if bytes.Contains(buf, []byte(t)) {
			return t
		}
	}
	return ""
}

// QueryText extracts the SQL text carried by a statement-style command. An
// empty string means the field is absent or the envelope did not decode.
func QueryText(t TypeURL, buf []byte) string {
	num, ok := queryField[t]
	if !ok {
		return ""
	}
	inner := ExtractAnyValue(buf)
	if inner == nil {
		return ""
	}
	return ExtractStringField(inner, num)
}

// CatalogFilter extracts the optional catalog filter of a metadata command.
func CatalogFilter(t TypeURL, buf []byte) string {
	num, ok := catalogFilterField[t]
	if !ok {
		return ""
	}
	inner := ExtractAnyValue(buf)
	if inner == nil {
		return ""
	}
	return ExtractStringField(inner, num)
}
