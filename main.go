package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/posthog/mockling/controlplane"
	"github.com/posthog/mockling/engine"
	"github.com/posthog/mockling/server"
)

// FileConfig represents the YAML configuration file structure.
type FileConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	ControlPort *int     `yaml:"control_port"`
	MetricsPort *int     `yaml:"metrics_port"`
	Database    string   `yaml:"database"`
	Catalogs    []string `yaml:"catalogs"`
	AuthToken   string   `yaml:"auth_token"`
}

func loadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// env returns the environment variable value or a default.
func env(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func main() {
	var cli configCLIInputs
	configFile := flag.String("config", env("MOCKLING_CONFIG", ""), "Path to YAML config file (env: MOCKLING_CONFIG)")
	flag.StringVar(&cli.Host, "host", "", "Host to bind to (env: MOCKLING_HOST)")
	flag.IntVar(&cli.Port, "port", 0, "Flight SQL port (env: MOCKLING_PORT)")
	flag.IntVar(&cli.ControlPort, "control-port", 0, "Control plane HTTP port, 0 disables (env: MOCKLING_CONTROL_PORT)")
	flag.IntVar(&cli.MetricsPort, "metrics-port", 0, "Prometheus metrics port, 0 disables (env: MOCKLING_METRICS_PORT)")
	flag.StringVar(&cli.Database, "database", "", "DuckDB database path or :memory: (env: MOCKLING_DATABASE)")
	flag.StringVar(&cli.Catalogs, "catalogs", "", "Comma-separated catalog names to emulate (env: MOCKLING_CATALOGS)")
	flag.StringVar(&cli.AuthToken, "auth-token", "", "Bearer token required on Flight calls, empty disables (env: MOCKLING_AUTH_TOKEN)")
	showHelp := flag.Bool("help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Mockling - Flight SQL test double backed by DuckDB\n\n")
		fmt.Fprintf(os.Stderr, "Usage: mockling [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  MOCKLING_CONFIG        Path to YAML config file\n")
		fmt.Fprintf(os.Stderr, "  MOCKLING_HOST          Host to bind to (default: 127.0.0.1)\n")
		fmt.Fprintf(os.Stderr, "  MOCKLING_PORT          Flight SQL port (default: 8815)\n")
		fmt.Fprintf(os.Stderr, "  MOCKLING_CONTROL_PORT  Control plane HTTP port (default: 8080, 0 disables)\n")
		fmt.Fprintf(os.Stderr, "  MOCKLING_METRICS_PORT  Prometheus metrics port (default: 0, disabled)\n")
		fmt.Fprintf(os.Stderr, "  MOCKLING_DATABASE      DuckDB database path (default: :memory:)\n")
		fmt.Fprintf(os.Stderr, "  MOCKLING_CATALOGS      Catalog names to emulate (default: test,demo)\n")
		fmt.Fprintf(os.Stderr, "  MOCKLING_AUTH_TOKEN    Bearer token for Flight calls (default: disabled)\n")
		fmt.Fprintf(os.Stderr, "\nPrecedence: CLI flags > environment variables > config file > defaults\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	cli.Set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { cli.Set[f.Name] = true })

	shutdownLogging := initLogging()
	defer shutdownLogging()
	shutdownTracing := initTracing()
	defer shutdownTracing()

	var fileCfg *FileConfig
	if *configFile != "" {
		var err error
		fileCfg, err = loadConfigFile(*configFile)
		if err != nil {
			slog.Error("Failed to load config file.", "path", *configFile, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded configuration file.", "path", *configFile)
	}

	cfg := resolveEffectiveConfig(fileCfg, cli, os.Getenv, func(msg string) {
		slog.Warn(msg)
	})

	ctx := context.Background()

	eng, err := engine.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to open engine.", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	srv := server.New(cfg.Server, eng)

	flightLn, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		slog.Error("Failed to listen on Flight SQL address.", "addr", cfg.Server.Addr(), "error", err)
		os.Exit(1)
	}

	var ctrl *controlplane.Server
	if cfg.ControlPort != 0 {
		ctrl = controlplane.New(controlplane.Config{
			FlightAddr: cfg.Server.Addr(),
		})
		ctrlLn, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.ControlPort)))
		if err != nil {
			slog.Error("Failed to listen on control plane address.", "port", cfg.ControlPort, "error", err)
			os.Exit(1)
		}
		go func() {
			if err := ctrl.Serve(ctrlLn); err != nil {
				slog.Error("Control plane server error.", "error", err)
			}
		}()
	}

	if cfg.MetricsPort != 0 {
		metricsAddr := net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.MetricsPort))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			slog.Info("Metrics server listening.", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				slog.Error("Metrics server error.", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("Shutting down.", "signal", sig.String())
		if ctrl != nil {
			ctrl.Shutdown()
		}
		srv.Shutdown()
	}()

	if err := srv.Serve(flightLn); err != nil {
		slog.Error("Flight SQL server error.", "error", err)
		os.Exit(1)
	}
}
