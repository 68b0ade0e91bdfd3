package integration

import (
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBearerAuth(t *testing.T) {
	h, err := NewTestHarness(HarnessConfig{
		AuthToken:        "integration-secret",
		SkipControlPlane: true,
	})
	if err != nil {
		t.Fatalf("failed to create harness: %v", err)
	}
	t.Cleanup(h.Close)

	client := h.FlightClient(t)
	ctx := testContext(t)

	t.Run("missing token", func(t *testing.T) {
		_, err := client.Execute(ctx, `SELECT 1`)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		_, err := client.Execute(bearerContext(ctx, "nope"), `SELECT 1`)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		authCtx := bearerContext(ctx, "integration-secret")
		info, err := client.Execute(authCtx, `SELECT 1`)
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		rows, _ := collectRecords(t, client, authCtx, info)
		if rows != 1 {
			t.Fatalf("expected 1 row, got %d", rows)
		}
	})

	t.Run("streams require token too", func(t *testing.T) {
		info, err := client.Execute(bearerContext(ctx, "integration-secret"), `SELECT 1`)
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		reader, err := client.DoGet(ctx, info.GetEndpoint()[0].GetTicket())
		if err == nil {
			for reader.Next() {
			}
			err = reader.Err()
			reader.Release()
		}
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	})
}
