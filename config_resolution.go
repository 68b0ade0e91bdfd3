package main

import (
	"strconv"

	"github.com/posthog/mockling/server"
)

type configCLIInputs struct {
	Set map[string]bool

	Host        string
	Port        int
	ControlPort int
	MetricsPort int
	Database    string
	Catalogs    string
	AuthToken   string
}

type resolvedConfig struct {
	Server      server.Config
	Database    string
	ControlPort int
	MetricsPort int
}

func defaultConfig() resolvedConfig {
	return resolvedConfig{
		Server: server.Config{
			Host:     "127.0.0.1",
			Port:     8815,
			Catalogs: []string{"test", "demo"},
		},
		Database:    ":memory:",
		ControlPort: 8080,
		MetricsPort: 0,
	}
}

// resolveEffectiveConfig merges defaults, the YAML file, environment, and CLI
// flags, in increasing precedence. getenv is injected so tests do not touch
// the process environment.
func resolveEffectiveConfig(fileCfg *FileConfig, cli configCLIInputs, getenv func(string) string, warn func(string)) resolvedConfig {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	if warn == nil {
		warn = func(string) {}
	}
	if cli.Set == nil {
		cli.Set = map[string]bool{}
	}

	cfg := defaultConfig()

	if fileCfg != nil {
		if fileCfg.Host != "" {
			cfg.Server.Host = fileCfg.Host
		}
		if fileCfg.Port != 0 {
			cfg.Server.Port = fileCfg.Port
		}
		if fileCfg.ControlPort != nil {
			cfg.ControlPort = *fileCfg.ControlPort
		}
		if fileCfg.MetricsPort != nil {
			cfg.MetricsPort = *fileCfg.MetricsPort
		}
		if fileCfg.Database != "" {
			cfg.Database = fileCfg.Database
		}
		if len(fileCfg.Catalogs) > 0 {
			cfg.Server.Catalogs = fileCfg.Catalogs
		}
		if fileCfg.AuthToken != "" {
			cfg.Server.AuthToken = fileCfg.AuthToken
		}
	}

	if v := getenv("MOCKLING_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := getenv("MOCKLING_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		} else {
			warn("Invalid MOCKLING_PORT: " + err.Error())
		}
	}
	if v := getenv("MOCKLING_CONTROL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ControlPort = p
		} else {
			warn("Invalid MOCKLING_CONTROL_PORT: " + err.Error())
		}
	}
	if v := getenv("MOCKLING_METRICS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.MetricsPort = p
		} else {
			warn("Invalid MOCKLING_METRICS_PORT: " + err.Error())
		}
	}
	if v := getenv("MOCKLING_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := getenv("MOCKLING_CATALOGS"); v != "" {
		if catalogs := server.ParseCatalogs(v); len(catalogs) > 0 {
			cfg.Server.Catalogs = catalogs
		} else {
			warn("Invalid MOCKLING_CATALOGS: no catalog names in " + strconv.Quote(v))
		}
	}
	if v := getenv("MOCKLING_AUTH_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}

	if cli.Set["host"] {
		cfg.Server.Host = cli.Host
	}
	if cli.Set["port"] {
		cfg.Server.Port = cli.Port
	}
	if cli.Set["control-port"] {
		cfg.ControlPort = cli.ControlPort
	}
	if cli.Set["metrics-port"] {
		cfg.MetricsPort = cli.MetricsPort
	}
	if cli.Set["database"] {
		cfg.Database = cli.Database
	}
	if cli.Set["catalogs"] {
		if catalogs := server.ParseCatalogs(cli.Catalogs); len(catalogs) > 0 {
			cfg.Server.Catalogs = catalogs
		} else {
			warn("Invalid --catalogs: no catalog names in " + strconv.Quote(cli.Catalogs))
		}
	}
	if cli.Set["auth-token"] {
		cfg.Server.AuthToken = cli.AuthToken
	}

	return cfg
}
