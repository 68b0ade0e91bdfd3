package server

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/posthog/mockling/engine"
)

// Result schemas for the metadata listings. These shapes are part of the
// wire contract: clients bind to them positionally.
var (
	catalogsSchema = arrow.NewSchema([]arrow.Field{
		{Name: "catalog_name", Type: arrow.BinaryTypes.String},
	}, nil)

	dbSchemasSchema = arrow.NewSchema([]arrow.Field{
		{Name: "catalog_name", Type: arrow.BinaryTypes.String},
		{Name: "db_schema_name", Type: arrow.BinaryTypes.String},
	}, nil)

	tablesSchema = arrow.NewSchema([]arrow.Field{
		{Name: "catalog_name", Type: arrow.BinaryTypes.String},
		{Name: "db_schema_name", Type: arrow.BinaryTypes.String},
		{Name: "table_name", Type: arrow.BinaryTypes.String},
		{Name: "table_type", Type: arrow.BinaryTypes.String},
		{Name: "table_schema", Type: arrow.BinaryTypes.Binary},
	}, nil)

	tableTypesSchema = arrow.NewSchema([]arrow.Field{
		{Name: "table_type", Type: arrow.BinaryTypes.String},
	}, nil)
)

// physicalSchema is the single schema the backing engine actually has. Every
// synthetic catalog is a view over it.
const physicalSchema = "main"

// Catalog emulates a multi-catalog database on top of the single-schema
// engine. Listings are computed fresh on every call so a DoGet ticket replay
// matches what GetFlightInfo advertised.
type Catalog struct {
	catalogs []string
	eng      *engine.Engine
	fixtures *engine.FixtureSet
	alloc    memory.Allocator
}

// NewCatalog builds the emulator over the given synthetic catalog names.
func NewCatalog(catalogs []string, eng *engine.Engine, fixtures *engine.FixtureSet, alloc memory.Allocator) *Catalog {
	return &Catalog{catalogs: catalogs, eng: eng, fixtures: fixtures, alloc: alloc}
}

// Names returns the synthetic catalog names in configured order.
func (c *Catalog) Names() []string {
	return c.catalogs
}

func (c *Catalog) knownCatalog(name string) bool {
	for _, cat := range c.catalogs {
		if cat == name {
			return true
		}
	}
	return false
}

// filtered returns the catalogs a listing should cover: all of them without
// a filter, the matching one with a known filter, none with an unknown
// filter. An unknown filter is not an error, it yields an empty listing.
func (c *Catalog) filtered(filter string) []string {
	if filter == "" {
		return c.catalogs
	}
	if c.knownCatalog(filter) {
		return []string{filter}
	}
	return nil
}

// Catalogs lists the synthetic catalogs.
func (c *Catalog) Catalogs() arrow.RecordBatch {
	b := array.NewRecordBuilder(c.alloc, catalogsSchema)
	defer b.Release()

	names := b.Field(0).(*array.StringBuilder)
	for _, cat := range c.catalogs {
		names.Append(cat)
	}
	return b.NewRecordBatch()
}

// DBSchemas lists the main schema once per covered catalog.
func (c *Catalog) DBSchemas(filter string) arrow.RecordBatch {
	b := array.NewRecordBuilder(c.alloc, dbSchemasSchema)
	defer b.Release()

	catCol := b.Field(0).(*array.StringBuilder)
	schemaCol := b.Field(1).(*array.StringBuilder)
	for _, cat := range c.filtered(filter) {
		catCol.Append(cat)
		schemaCol.Append(physicalSchema)
	}
	return b.NewRecordBatch()
}

// Tables lists every physical table once per covered catalog, catalog-major,
// tables sorted by name within a catalog. Each row carries the table's Arrow
// schema serialized as an IPC blob; fixture schemas take precedence over what
// the engine infers for their shadow tables.
func (c *Catalog) Tables(ctx context.Context, filter string) (arrow.RecordBatch, error) {
	names, err := c.eng.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	blobs := make([][]byte, len(names))
	for i, name := range names {
		schema, err := c.tableSchema(ctx, name)
		if err != nil {
			return nil, err
		}
		blobs[i] = flight.SerializeSchema(schema, c.alloc)
	}

	b := array.NewRecordBuilder(c.alloc, tablesSchema)
	defer b.Release()

	catCol := b.Field(0).(*array.StringBuilder)
	schemaCol := b.Field(1).(*array.StringBuilder)
	nameCol := b.Field(2).(*array.StringBuilder)
	typeCol := b.Field(3).(*array.StringBuilder)
	blobCol := b.Field(4).(*array.BinaryBuilder)

	for _, cat := range c.filtered(filter) {
		for i, name := range names {
			catCol.Append(cat)
			schemaCol.Append(physicalSchema)
			nameCol.Append(name)
			typeCol.Append("TABLE")
			blobCol.Append(blobs[i])
		}
	}
	return b.NewRecordBatch(), nil
}

// TableTypes lists the fixed table type set.
func (c *Catalog) TableTypes() arrow.RecordBatch {
	b := array.NewRecordBuilder(c.alloc, tableTypesSchema)
	defer b.Release()

	types := b.Field(0).(*array.StringBuilder)
	types.Append("TABLE")
	types.Append("VIEW")
	return b.NewRecordBatch()
}

func (c *Catalog) tableSchema(ctx context.Context, table string) (*arrow.Schema, error) {
	if f := c.fixtures.Lookup(table); f != nil {
		return f.Schema, nil
	}
	schema, err := c.eng.TableSchema(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("schema for table %q: %w", table, err)
	}
	return schema, nil
}
