package wire

import "testing"

func statementCommand(query string) []byte {
	inner := appendBytesField(nil, 1, []byte(query))
	return anyEnvelope(TypeStatementQuery, inner)
}

func metadataCommand(t TypeURL, catalogFilter string) []byte {
	var inner []byte
	if catalogFilter != "" {
		inner = appendBytesField(nil, 1, []byte(catalogFilter))
	}
	return anyEnvelope(t, inner)
}

func TestIsFlightSQLCommand(t *testing.T) {
	if !IsFlightSQLCommand(statementCommand("SELECT 1")) {
		t.Fatal("statement command not recognized")
	}
	if IsFlightSQLCommand([]byte("SELECT * FROM numbers")) {
		t.Fatal("raw SQL misclassified as Flight SQL command")
	}
	if IsFlightSQLCommand(nil) {
		t.Fatal("empty buffer misclassified as Flight SQL command")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want TypeURL
	}{
		{"statement query", statementCommand("SELECT 1"), TypeStatementQuery},
		{"get catalogs", metadataCommand(TypeGetCatalogs, ""), TypeGetCatalogs},
		{"get db schemas", metadataCommand(TypeGetDbSchemas, "test"), TypeGetDbSchemas},
		{"get tables", metadataCommand(TypeGetTables, ""), TypeGetTables},
		{"get table types", metadataCommand(TypeGetTableTypes, ""), TypeGetTableTypes},
		{"prepared statement", anyEnvelope(TypePreparedStatementQuery, nil), TypePreparedStatementQuery},
		{"unknown", []byte("SELECT 1"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.buf); got != tt.want {
				t.Fatalf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryText(t *testing.T) {
	query := `SELECT id FROM "test"."main"."numbers"`
	if got := QueryText(TypeStatementQuery, statementCommand(query)); got != query {
		t.Fatalf("QueryText = %q, want %q", got, query)
	}
}

func TestQueryTextAbsent(t *testing.T) {
	tests := []struct {
		name string
		t    TypeURL
		buf  []byte
	}{
		{"empty envelope", TypeStatementQuery, anyEnvelope(TypeStatementQuery, nil)},
		{"not a query command", TypeGetCatalogs, metadataCommand(TypeGetCatalogs, "")},
		{"malformed buffer", TypeStatementQuery, []byte{0xff, 0x00, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QueryText(tt.t, tt.buf); got != "" {
				t.Fatalf("QueryText = %q, want empty", got)
			}
		})
	}
}

func TestCatalogFilter(t *testing.T) {
	if got := CatalogFilter(TypeGetTables, metadataCommand(TypeGetTables, "demo")); got != "demo" {
		t.Fatalf("CatalogFilter = %q, want %q", got, "demo")
	}
	if got := CatalogFilter(TypeGetDbSchemas, metadataCommand(TypeGetDbSchemas, "")); got != "" {
		t.Fatalf("CatalogFilter without filter = %q, want empty", got)
	}
	if got := CatalogFilter(TypeGetCatalogs, metadataCommand(TypeGetCatalogs, "")); got != "" {
		t.Fatalf("CatalogFilter for GetCatalogs = %q, want empty", got)
	}
}
