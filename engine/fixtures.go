package engine

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Fixture is a pre-built Arrow record for a table whose encoding DuckDB
// cannot produce through a scan. Record holds the batch exactly as it goes
// on the wire; Rows is the logical row count.
type Fixture struct {
	Table  string
	Schema *arrow.Schema
	Record arrow.RecordBatch
	Rows   int64
}

// FixtureSet holds the fixture tables keyed by name.
type FixtureSet struct {
	byName map[string]*Fixture
	names  []string
}

// BuildFixtures constructs the dictionary and run-end-encoded fixtures.
func BuildFixtures(alloc memory.Allocator) *FixtureSet {
	fs := &FixtureSet{byName: make(map[string]*Fixture)}
	fs.add(buildDictionaryFixture(alloc))
	fs.add(buildRunEndFixture(alloc))
	return fs
}

func (fs *FixtureSet) add(f *Fixture) {
	fs.byName[f.Table] = f
	fs.names = append(fs.names, f.Table)
}

// Lookup returns the fixture for a table name, or nil.
func (fs *FixtureSet) Lookup(table string) *Fixture {
	return fs.byName[table]
}

// Names returns the fixture table names in registration order.
func (fs *FixtureSet) Names() []string {
	return fs.names
}

// Release frees the fixture records.
func (fs *FixtureSet) Release() {
	for _, f := range fs.byName {
		f.Record.Release()
	}
}

func buildDictionaryFixture(alloc memory.Allocator) *Fixture {
	dictType := &arrow.DictionaryType{
		IndexType: arrow.PrimitiveTypes.Int8,
		ValueType: arrow.BinaryTypes.String,
	}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "dict_col", Type: dictType, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(alloc, schema)
	defer builder.Release()

	db := builder.Field(0).(*array.BinaryDictionaryBuilder)
	for _, s := range []string{"alpha", "beta", "alpha", "gamma", "beta"} {
		if err := db.AppendString(s); err != nil {
			panic(err)
		}
	}

	rec := builder.NewRecordBatch()
	return &Fixture{Table: "dictionary_test", Schema: schema, Record: rec, Rows: rec.NumRows()}
}

func buildRunEndFixture(alloc memory.Allocator) *Fixture {
	reeType := arrow.RunEndEncodedOf(arrow.PrimitiveTypes.Int32, arrow.PrimitiveTypes.Int64)
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ree_col", Type: reeType, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(alloc, schema)
	defer builder.Release()

	rb := builder.Field(0).(*array.RunEndEncodedBuilder)
	vb := rb.ValueBuilder().(*array.Int64Builder)
	for _, run := range []struct {
		value  int64
		length int
	}{
		{1, 2},
		{2, 2},
		{3, 2},
	} {
		rb.Append(uint64(run.length))
		vb.Append(run.value)
	}

	rec := builder.NewRecordBatch()
	return &Fixture{Table: "run_end_test", Schema: schema, Record: rec, Rows: rec.NumRows()}
}
