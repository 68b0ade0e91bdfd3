package integration

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/flight/flightsql"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func stringValues(t *testing.T, col interface{ Len() int }, idx func(int) string) []string {
	t.Helper()
	out := make([]string, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		out = append(out, idx(i))
	}
	return out
}

func TestGetCatalogs(t *testing.T) {
	client := testHarness.FlightClient(t)
	ctx := testContext(t)

	info, err := client.GetCatalogs(ctx)
	if err != nil {
		t.Fatalf("GetCatalogs failed: %v", err)
	}

	rows, records := collectRecords(t, client, ctx, info)
	if rows != 2 {
		t.Fatalf("expected 2 catalogs, got %d", rows)
	}
	names := records[0].Column(0).(*array.String)
	if names.Value(0) != "test" || names.Value(1) != "demo" {
		t.Fatalf("unexpected catalog names: %v", stringValues(t, names, names.Value))
	}
}

func TestGetDBSchemas(t *testing.T) {
	client := testHarness.FlightClient(t)
	ctx := testContext(t)

	t.Run("all catalogs", func(t *testing.T) {
		info, err := client.GetDBSchemas(ctx, &flightsql.GetDBSchemasOpts{})
		if err != nil {
			t.Fatalf("GetDbSchemas failed: %v", err)
		}
		rows, records := collectRecords(t, client, ctx, info)
		if rows != 2 {
			t.Fatalf("expected one schema per catalog, got %d rows", rows)
		}
		schemas := records[0].Column(1).(*array.String)
		for i := 0; i < schemas.Len(); i++ {
			if schemas.Value(i) != "main" {
				t.Fatalf("expected schema main, got %q", schemas.Value(i))
			}
		}
	})

	t.Run("filtered", func(t *testing.T) {
		catalog := "demo"
		info, err := client.GetDBSchemas(ctx, &flightsql.GetDBSchemasOpts{Catalog: &catalog})
		if err != nil {
			t.Fatalf("GetDbSchemas failed: %v", err)
		}
		rows, records := collectRecords(t, client, ctx, info)
		if rows != 1 {
			t.Fatalf("expected 1 row, got %d", rows)
		}
		catalogs := records[0].Column(0).(*array.String)
		if catalogs.Value(0) != "demo" {
			t.Fatalf("expected demo, got %q", catalogs.Value(0))
		}
	})

	t.Run("unknown catalog", func(t *testing.T) {
		catalog := "nope"
		info, err := client.GetDBSchemas(ctx, &flightsql.GetDBSchemasOpts{Catalog: &catalog})
		if err != nil {
			t.Fatalf("GetDbSchemas failed: %v", err)
		}
		rows, _ := collectRecords(t, client, ctx, info)
		if rows != 0 {
			t.Fatalf("expected 0 rows, got %d", rows)
		}
	})
}

func TestGetTablesCrossProduct(t *testing.T) {
	client := testHarness.FlightClient(t)
	ctx := testContext(t)

	info, err := client.GetTables(ctx, &flightsql.GetTablesOpts{IncludeSchema: true})
	if err != nil {
		t.Fatalf("GetTables failed: %v", err)
	}

	rows, records := collectRecords(t, client, ctx, info)
	if rows != 14 {
		t.Fatalf("expected 7 tables across 2 catalogs, got %d rows", rows)
	}

	rec := records[0]
	catalogs := rec.Column(0).(*array.String)
	names := rec.Column(2).(*array.String)
	types := rec.Column(3).(*array.String)
	blobs := rec.Column(4).(*array.Binary)

	// Catalog-major ordering: the first half belongs to the first catalog.
	for i := 0; i < 7; i++ {
		if catalogs.Value(i) != "test" {
			t.Fatalf("row %d: expected catalog test, got %q", i, catalogs.Value(i))
		}
		if catalogs.Value(i+7) != "demo" {
			t.Fatalf("row %d: expected catalog demo, got %q", i+7, catalogs.Value(i+7))
		}
		if names.Value(i) != names.Value(i+7) {
			t.Fatalf("catalog halves disagree on table %d: %q vs %q", i, names.Value(i), names.Value(i+7))
		}
		if types.Value(i) != "TABLE" {
			t.Fatalf("row %d: expected TABLE, got %q", i, types.Value(i))
		}
	}

	for i := 0; i < int(rec.NumRows()); i++ {
		schema, err := flight.DeserializeSchema(blobs.Value(i), memory.DefaultAllocator)
		if err != nil {
			t.Fatalf("table %q: bad schema blob: %v", names.Value(i), err)
		}
		if schema.NumFields() == 0 {
			t.Fatalf("table %q: empty schema", names.Value(i))
		}
	}
}

func TestGetTablesFiltered(t *testing.T) {
	client := testHarness.FlightClient(t)
	ctx := testContext(t)

	catalog := "demo"
	info, err := client.GetTables(ctx, &flightsql.GetTablesOpts{Catalog: &catalog})
	if err != nil {
		t.Fatalf("GetTables failed: %v", err)
	}
	rows, records := collectRecords(t, client, ctx, info)
	if rows != 7 {
		t.Fatalf("expected 7 rows, got %d", rows)
	}
	catalogs := records[0].Column(0).(*array.String)
	for i := 0; i < catalogs.Len(); i++ {
		if catalogs.Value(i) != "demo" {
			t.Fatalf("row %d: expected demo, got %q", i, catalogs.Value(i))
		}
	}
}

func TestGetTablesUnknownCatalog(t *testing.T) {
	client := testHarness.FlightClient(t)
	ctx := testContext(t)

	catalog := "nope"
	info, err := client.GetTables(ctx, &flightsql.GetTablesOpts{Catalog: &catalog})
	if err != nil {
		t.Fatalf("GetTables failed: %v", err)
	}
	rows, _ := collectRecords(t, client, ctx, info)
	if rows != 0 {
		t.Fatalf("expected 0 rows, got %d", rows)
	}
}

func TestGetTableTypes(t *testing.T) {
	client := testHarness.FlightClient(t)
	ctx := testContext(t)

	info, err := client.GetTableTypes(ctx)
	if err != nil {
		t.Fatalf("GetTableTypes failed: %v", err)
	}
	rows, records := collectRecords(t, client, ctx, info)
	if rows != 2 {
		t.Fatalf("expected 2 table types, got %d", rows)
	}
	types := records[0].Column(0).(*array.String)
	if types.Value(0) != "TABLE" || types.Value(1) != "VIEW" {
		t.Fatalf("unexpected table types: %v", stringValues(t, types, types.Value))
	}
}

func TestGetTablesFixtureSchemas(t *testing.T) {
	client := testHarness.FlightClient(t)
	ctx := testContext(t)

	catalog := "test"
	info, err := client.GetTables(ctx, &flightsql.GetTablesOpts{Catalog: &catalog, IncludeSchema: true})
	if err != nil {
		t.Fatalf("GetTables failed: %v", err)
	}
	_, records := collectRecords(t, client, ctx, info)

	rec := records[0]
	names := rec.Column(2).(*array.String)
	blobs := rec.Column(4).(*array.Binary)

	found := map[string]arrow.Type{}
	for i := 0; i < int(rec.NumRows()); i++ {
		schema, err := flight.DeserializeSchema(blobs.Value(i), memory.DefaultAllocator)
		if err != nil {
			t.Fatalf("table %q: bad schema blob: %v", names.Value(i), err)
		}
		found[names.Value(i)] = schema.Field(0).Type.ID()
	}

	// Encoded fixtures advertise their wire encoding in the listing.
	if got := found["dictionary_test"]; got != arrow.DICTIONARY {
		t.Fatalf("dictionary_test schema mismatch: %s", got)
	}
	if got := found["run_end_test"]; got != arrow.RUN_END_ENCODED {
		t.Fatalf("run_end_test schema mismatch: %s", got)
	}
}
