package integration

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/flight/flightsql"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/posthog/mockling/controlplane"
	"github.com/posthog/mockling/engine"
	"github.com/posthog/mockling/server"
)

// TestHarness runs an in-process server stack on ephemeral ports.
type TestHarness struct {
	FlightAddr  string
	ControlAddr string

	srv  *server.Server
	ctrl *controlplane.Server
	eng  *engine.Engine
}

// HarnessConfig configures the test harness.
type HarnessConfig struct {
	// Catalogs to emulate (default: test, demo).
	Catalogs []string
	// AuthToken, when non-empty, enables bearer auth on Flight calls.
	AuthToken string
	// SkipControlPlane skips the control plane HTTP listener.
	SkipControlPlane bool
}

// NewTestHarness starts a fresh engine, Flight server, and control plane.
func NewTestHarness(cfg HarnessConfig) (*TestHarness, error) {
	if len(cfg.Catalogs) == 0 {
		cfg.Catalogs = []string{"test", "demo"}
	}

	eng, err := engine.Open(context.Background(), ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	h := &TestHarness{eng: eng}

	flightLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		eng.Close()
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	h.FlightAddr = flightLn.Addr().String()

	h.srv = server.New(server.Config{
		Host:      "127.0.0.1",
		Catalogs:  cfg.Catalogs,
		AuthToken: cfg.AuthToken,
	}, eng)

	go func() {
		_ = h.srv.Serve(flightLn)
	}()

	if !cfg.SkipControlPlane {
		ctrlLn, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("failed to listen for control plane: %w", err)
		}
		h.ControlAddr = ctrlLn.Addr().String()
		h.ctrl = controlplane.New(controlplane.Config{FlightAddr: h.FlightAddr})
		go func() {
			_ = h.ctrl.Serve(ctrlLn)
		}()
	}

	return h, nil
}

// Close shuts everything down.
func (h *TestHarness) Close() {
	if h.ctrl != nil {
		h.ctrl.Shutdown()
	}
	if h.srv != nil {
		h.srv.Shutdown()
	}
	if h.eng != nil {
		h.eng.Close()
	}
}

// FlightClient dials the harness Flight listener.
func (h *TestHarness) FlightClient(t *testing.T) *flightsql.Client {
	t.Helper()
	client, err := flightsql.NewClient(h.FlightAddr, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(server.MaxGRPCMessageSize),
			grpc.MaxCallSendMsgSize(server.MaxGRPCMessageSize),
		),
	)
	if err != nil {
		t.Fatalf("failed to create Flight SQL client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

// bearerContext returns a context carrying a Bearer authorization header.
func bearerContext(ctx context.Context, token string) context.Context {
	return metadata.NewOutgoingContext(ctx, metadata.Pairs("authorization", "Bearer "+token))
}
