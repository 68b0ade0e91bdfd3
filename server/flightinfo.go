package server

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/posthog/mockling/wire"
)

// GetFlightInfo classifies the descriptor command and answers with the result
// schema plus a self-contained ticket. Metadata commands never touch the
// engine here; query commands run once to validate and count.
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	cmd := desc.GetCmd()

	if wire.IsFlightSQLCommand(cmd) {
		switch t := wire.Classify(cmd); t {
		case wire.TypeGetCatalogs:
			observeFlightInfoRequest("get_catalogs")
			return s.metadataInfo(desc, catalogsSchema, KindGetCatalogs, ""), nil
		case wire.TypeGetDbSchemas:
			observeFlightInfoRequest("get_db_schemas")
			return s.metadataInfo(desc, dbSchemasSchema, KindGetDBSchemas, wire.CatalogFilter(t, cmd)), nil
		case wire.TypeGetTables:
			observeFlightInfoRequest("get_tables")
			return s.metadataInfo(desc, tablesSchema, KindGetTables, wire.CatalogFilter(t, cmd)), nil
		case wire.TypeGetTableTypes:
			observeFlightInfoRequest("get_table_types")
			return s.metadataInfo(desc, tableTypesSchema, KindGetTableTypes, ""), nil
		case wire.TypeStatementQuery, wire.TypePreparedStatementQuery:
			if query := wire.QueryText(t, cmd); query != "" {
				observeFlightInfoRequest("statement_query")
				return s.queryInfo(ctx, desc, query)
			}
			// Envelope decoded but carried no text; fall through to the
			// raw-string path below.
		}
		// An unmatched type URL (GetSqlInfo and friends) also falls
		// through: the envelope bytes are treated as a bare SQL string
		// and fail at plan time instead.
	}

	// Not a recognized envelope: accept the descriptor bytes as a bare SQL
	// string when they are printable.
	if len(cmd) == 0 || !utf8.Valid(cmd) {
		return nil, status.Error(codes.InvalidArgument, "unknown command format")
	}
	observeFlightInfoRequest("raw_query")
	return s.queryInfo(ctx, desc, string(cmd))
}

// metadataInfo builds the FlightInfo for a catalog listing. Listings are
// materialized at DoGet time, so record counts are unknown here.
func (s *Server) metadataInfo(desc *flight.FlightDescriptor, schema *arrow.Schema, kind, filter string) *flight.FlightInfo {
	return &flight.FlightInfo{
		Schema:           flight.SerializeSchema(schema, s.alloc),
		FlightDescriptor: desc,
		Endpoint: []*flight.FlightEndpoint{{
			Ticket: &flight.Ticket{Ticket: MetadataTicket(kind, filter)},
		}},
		TotalRecords: -1,
		TotalBytes:   -1,
	}
}

// queryInfo plans a statement: rewrite catalog references, resolve the schema
// and exact row count, and encode the rewritten text into the ticket so DoGet
// replays the same statement.
func (s *Server) queryInfo(ctx context.Context, desc *flight.FlightDescriptor, query string) (*flight.FlightInfo, error) {
	rewritten := RewriteCatalogRefs(query)

	var (
		schema *arrow.Schema
		count  int64
	)
	if f := s.fixtures.Lookup(TableTarget(rewritten)); f != nil {
		schema, count = f.Schema, f.Rows
	} else {
		var err error
		schema, count, err = s.eng.Describe(ctx, rewritten)
		if err != nil {
			observeQueryFailure()
			slog.Warn("Query failed to plan.", "query", rewritten, "error", err)
			return nil, status.Errorf(codes.Internal, "failed to prepare query: %v", err)
		}
	}

	return &flight.FlightInfo{
		Schema:           flight.SerializeSchema(schema, s.alloc),
		FlightDescriptor: desc,
		Endpoint: []*flight.FlightEndpoint{{
			Ticket: &flight.Ticket{Ticket: QueryTicket(rewritten)},
		}},
		TotalRecords: count,
		TotalBytes:   -1,
	}, nil
}
