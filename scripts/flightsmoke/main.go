// Smoke test a running mockling instance over Flight SQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/flight/flightsql"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/posthog/mockling/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8815", "Flight SQL address")
	token := flag.String("token", "", "Bearer token, if the server requires one")
	query := flag.String("query", `SELECT id, name FROM "test"."main"."numbers" ORDER BY id`, "Query to run")
	flag.Parse()

	client, err := flightsql.NewClient(*addr, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(server.MaxGRPCMessageSize),
			grpc.MaxCallSendMsgSize(server.MaxGRPCMessageSize),
		),
	)
	if err != nil {
		slog.Error("Failed to create Flight SQL client.", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close client.", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if *token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+*token)
	}

	fmt.Println("=== Catalogs ===")
	info, err := client.GetCatalogs(ctx)
	if err != nil {
		slog.Error("GetCatalogs failed.", "error", err)
		os.Exit(1)
	}
	catalogs := fetchStrings(ctx, client, info, 0)
	for _, c := range catalogs {
		fmt.Println(c)
	}

	fmt.Println("\n=== Tables ===")
	info, err = client.GetTables(ctx, &flightsql.GetTablesOpts{})
	if err != nil {
		slog.Error("GetTables failed.", "error", err)
		os.Exit(1)
	}
	for _, name := range fetchStrings(ctx, client, info, 2) {
		fmt.Println(name)
	}

	fmt.Printf("\n=== Query: %s ===\n", *query)
	info, err = client.Execute(ctx, *query)
	if err != nil {
		slog.Error("Execute failed.", "error", err)
		os.Exit(1)
	}
	fmt.Printf("planned rows: %d\n", info.GetTotalRecords())

	rows := int64(0)
	for _, ep := range info.GetEndpoint() {
		reader, err := client.DoGet(ctx, ep.GetTicket())
		if err != nil {
			slog.Error("DoGet failed.", "error", err)
			os.Exit(1)
		}
		for reader.Next() {
			rows += reader.Record().NumRows()
		}
		if err := reader.Err(); err != nil {
			reader.Release()
			slog.Error("Stream failed.", "error", err)
			os.Exit(1)
		}
		reader.Release()
	}
	fmt.Printf("fetched rows: %d\n", rows)

	if rows != info.GetTotalRecords() {
		slog.Error("Row count mismatch.", "planned", info.GetTotalRecords(), "fetched", rows)
		os.Exit(1)
	}
	fmt.Println("\nOK")
}

// fetchStrings drains the info's endpoints and collects the given string
// column from every batch.
func fetchStrings(ctx context.Context, client *flightsql.Client, info *flight.FlightInfo, col int) []string {
	var out []string
	for _, ep := range info.GetEndpoint() {
		reader, err := client.DoGet(ctx, ep.GetTicket())
		if err != nil {
			slog.Error("DoGet failed.", "error", err)
			os.Exit(1)
		}
		for reader.Next() {
			values := reader.Record().Column(col).(*array.String)
			for i := 0; i < values.Len(); i++ {
				out = append(out, values.Value(i))
			}
		}
		if err := reader.Err(); err != nil {
			reader.Release()
			slog.Error("Stream failed.", "error", err)
			os.Exit(1)
		}
		reader.Release()
	}
	return out
}
