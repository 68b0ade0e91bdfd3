// Package server implements the Flight SQL surface of the emulator: command
// classification, catalog listings, query planning, and batch streaming.
package server

import (
	"encoding/json"
	"log/slog"
	"net"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/posthog/mockling/engine"
)

// MaxGRPCMessageSize is the max gRPC message size for Flight SQL
// communication. Arrow batches can be large.
const MaxGRPCMessageSize = 1 << 30 // 1GB

// Server is the Flight SQL endpoint. It embeds the base server so the
// unimplemented remainder of the Flight surface answers with Unimplemented
// instead of breaking the connection.
type Server struct {
	flight.BaseFlightServer

	cfg      Config
	eng      *engine.Engine
	catalog  *Catalog
	fixtures *engine.FixtureSet
	alloc    memory.Allocator

	flightSrv flight.Server
}

// New builds a server over an opened engine.
func New(cfg Config, eng *engine.Engine) *Server {
	alloc := memory.DefaultAllocator
	fixtures := engine.BuildFixtures(alloc)
	return &Server{
		cfg:      cfg,
		eng:      eng,
		catalog:  NewCatalog(cfg.Catalogs, eng, fixtures, alloc),
		fixtures: fixtures,
		alloc:    alloc,
	}
}

// Serve starts serving Flight on the given listener, blocking until
// Shutdown or a listener error.
func (s *Server) Serve(listener net.Listener) error {
	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxGRPCMessageSize),
		grpc.MaxSendMsgSize(MaxGRPCMessageSize),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	}
	if s.cfg.AuthToken != "" {
		opts = append(opts,
			grpc.ChainUnaryInterceptor(BearerTokenUnaryInterceptor(s.cfg.AuthToken)),
			grpc.ChainStreamInterceptor(BearerTokenStreamInterceptor(s.cfg.AuthToken)),
		)
	}

	s.flightSrv = flight.NewServerWithMiddleware(nil, opts...)
	s.flightSrv.RegisterFlightService(s)
	s.flightSrv.InitListener(listener)

	slog.Info("Flight SQL server listening.", "addr", listener.Addr().String(), "catalogs", s.cfg.Catalogs, "auth", s.cfg.AuthToken != "")
	return s.flightSrv.Serve()
}

// Shutdown stops the gRPC server and releases the fixtures.
func (s *Server) Shutdown() {
	if s.flightSrv != nil {
		s.flightSrv.Shutdown()
	}
	s.fixtures.Release()
}

// DoAction handles custom Flight actions.
func (s *Server) DoAction(cmd *flight.Action, stream flight.FlightService_DoActionServer) error {
	switch cmd.Type {
	case "HealthCheck":
		resp, _ := json.Marshal(map[string]string{"status": "ok"})
		return stream.Send(&flight.Result{Body: resp})
	default:
		return status.Errorf(codes.NotFound, "unknown action type: %s", cmd.Type)
	}
}
