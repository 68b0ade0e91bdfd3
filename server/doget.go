package server

import (
	"database/sql"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/posthog/mockling/engine"
)

// queryBatchSize is the number of rows per record batch streamed for query
// results.
const queryBatchSize = 1024

// DoGet reproduces the result a ticket stands for. Tickets are
// self-contained: no state from the planning call is needed, so a ticket can
// be replayed on a fresh connection or a different instance of the same
// configuration.
func (s *Server) DoGet(tkt *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	observeStreamOpen()
	defer observeStreamClosed()

	t := ParseTicket(tkt.GetTicket())
	switch {
	case t.Kind == KindGetCatalogs:
		observeDoGetRequest("get_catalogs")
		return s.sendRecord(stream, s.catalog.Catalogs())
	case t.Kind == KindGetDBSchemas:
		observeDoGetRequest("get_db_schemas")
		return s.sendRecord(stream, s.catalog.DBSchemas(t.Filter))
	case t.Kind == KindGetTables:
		observeDoGetRequest("get_tables")
		rec, err := s.catalog.Tables(stream.Context(), t.Filter)
		if err != nil {
			return status.Errorf(codes.Internal, "list tables: %v", err)
		}
		return s.sendRecord(stream, rec)
	case t.Kind == KindGetTableTypes:
		observeDoGetRequest("get_table_types")
		return s.sendRecord(stream, s.catalog.TableTypes())
	case t.Kind != "":
		// Unknown CMD kinds get the same last-ditch treatment as any
		// other unrecognized ticket: try the whole thing as SQL.
		observeDoGetRequest("raw_query")
		if err := s.streamQuery(stream, string(tkt.GetTicket())); err != nil {
			return status.Errorf(codes.InvalidArgument, "unknown ticket: %v", err)
		}
		return nil
	case t.Raw:
		observeDoGetRequest("raw_query")
		if err := s.streamQuery(stream, t.Query); err != nil {
			return status.Errorf(codes.InvalidArgument, "unknown ticket: %v", err)
		}
		return nil
	default:
		observeDoGetRequest("query")
		if err := s.streamQuery(stream, t.Query); err != nil {
			observeQueryFailure()
			return status.Errorf(codes.Internal, "query failed: %v", err)
		}
		return nil
	}
}

// streamQuery re-applies the catalog rewrite (a no-op for tickets built by
// GetFlightInfo) and streams the result, fixtures first.
func (s *Server) streamQuery(stream flight.FlightService_DoGetServer, query string) error {
	rewritten := RewriteCatalogRefs(query)

	if f := s.fixtures.Lookup(TableTarget(rewritten)); f != nil {
		return s.sendFixture(stream, f)
	}

	return s.eng.Query(stream.Context(), rewritten, func(schema *arrow.Schema, rows *sql.Rows) error {
		writer := flight.NewRecordWriter(stream, ipc.WithSchema(schema))
		defer func() {
			if err := writer.Close(); err != nil {
				slog.Warn("Failed to close record writer.", "error", err)
			}
		}()

		for {
			rec, err := engine.RowsToRecord(s.alloc, rows, schema, queryBatchSize)
			if err != nil {
				return err
			}
			if rec == nil {
				return nil
			}
			err = writer.Write(rec)
			rec.Release()
			if err != nil {
				return err
			}
		}
	})
}

// sendRecord streams a fully formed metadata batch and releases it.
func (s *Server) sendRecord(stream flight.FlightService_DoGetServer, rec arrow.RecordBatch) error {
	defer rec.Release()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(rec.Schema()))
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Warn("Failed to close record writer.", "error", err)
		}
	}()

	if err := writer.Write(rec); err != nil {
		return status.Errorf(codes.Internal, "write batch: %v", err)
	}
	return nil
}

// sendFixture streams a fixture's record without releasing it; fixtures are
// shared across requests.
func (s *Server) sendFixture(stream flight.FlightService_DoGetServer, f *engine.Fixture) error {
	writer := flight.NewRecordWriter(stream, ipc.WithSchema(f.Schema))
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Warn("Failed to close record writer.", "error", err)
		}
	}()
	return writer.Write(f.Record)
}
