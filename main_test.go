package main

import (
	"reflect"
	"strings"
	"testing"
)

func envFromMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestResolveEffectiveConfigDefaults(t *testing.T) {
	resolved := resolveEffectiveConfig(nil, configCLIInputs{}, envFromMap(nil), nil)

	if resolved.Server.Host != "127.0.0.1" {
		t.Fatalf("expected default host, got %q", resolved.Server.Host)
	}
	if resolved.Server.Port != 8815 {
		t.Fatalf("expected default port, got %d", resolved.Server.Port)
	}
	if resolved.ControlPort != 8080 {
		t.Fatalf("expected default control port, got %d", resolved.ControlPort)
	}
	if resolved.MetricsPort != 0 {
		t.Fatalf("expected metrics disabled by default, got %d", resolved.MetricsPort)
	}
	if resolved.Database != ":memory:" {
		t.Fatalf("expected default database, got %q", resolved.Database)
	}
	if !reflect.DeepEqual(resolved.Server.Catalogs, []string{"test", "demo"}) {
		t.Fatalf("expected default catalogs, got %v", resolved.Server.Catalogs)
	}
	if resolved.Server.AuthToken != "" {
		t.Fatalf("expected auth disabled by default, got %q", resolved.Server.AuthToken)
	}
}

func TestResolveEffectiveConfigPrecedence(t *testing.T) {
	zero := 0
	fileCfg := &FileConfig{
		Host:        "file-host",
		Port:        5000,
		ControlPort: &zero,
		MetricsPort: &zero,
		Database:    "/tmp/file.db",
		Catalogs:    []string{"file_cat"},
		AuthToken:   "file-token",
	}

	env := map[string]string{
		"MOCKLING_HOST":         "env-host",
		"MOCKLING_PORT":         "6000",
		"MOCKLING_CONTROL_PORT": "6080",
		"MOCKLING_METRICS_PORT": "6090",
		"MOCKLING_DATABASE":     "/tmp/env.db",
		"MOCKLING_CATALOGS":     "env_cat",
		"MOCKLING_AUTH_TOKEN":   "env-token",
	}

	resolved := resolveEffectiveConfig(fileCfg, configCLIInputs{
		Set: map[string]bool{
			"host":         true,
			"port":         true,
			"control-port": true,
			"metrics-port": true,
			"database":     true,
			"catalogs":     true,
			"auth-token":   true,
		},
		Host:        "cli-host",
		Port:        7000,
		ControlPort: 7080,
		MetricsPort: 7090,
		Database:    "/tmp/cli.db",
		Catalogs:    "alpha,beta",
		AuthToken:   "cli-token",
	}, envFromMap(env), nil)

	if resolved.Server.Host != "cli-host" {
		t.Fatalf("host precedence mismatch: got %q", resolved.Server.Host)
	}
	if resolved.Server.Port != 7000 {
		t.Fatalf("port precedence mismatch: got %d", resolved.Server.Port)
	}
	if resolved.ControlPort != 7080 {
		t.Fatalf("control port precedence mismatch: got %d", resolved.ControlPort)
	}
	if resolved.MetricsPort != 7090 {
		t.Fatalf("metrics port precedence mismatch: got %d", resolved.MetricsPort)
	}
	if resolved.Database != "/tmp/cli.db" {
		t.Fatalf("database precedence mismatch: got %q", resolved.Database)
	}
	if !reflect.DeepEqual(resolved.Server.Catalogs, []string{"alpha", "beta"}) {
		t.Fatalf("catalogs precedence mismatch: got %v", resolved.Server.Catalogs)
	}
	if resolved.Server.AuthToken != "cli-token" {
		t.Fatalf("auth token precedence mismatch: got %q", resolved.Server.AuthToken)
	}
}

func TestResolveEffectiveConfigEnvOverridesFile(t *testing.T) {
	fileCfg := &FileConfig{
		Host:     "file-host",
		Port:     5000,
		Database: "/tmp/file.db",
	}

	env := map[string]string{
		"MOCKLING_HOST": "env-host",
		"MOCKLING_PORT": "6000",
	}

	resolved := resolveEffectiveConfig(fileCfg, configCLIInputs{}, envFromMap(env), nil)

	if resolved.Server.Host != "env-host" {
		t.Fatalf("expected env host, got %q", resolved.Server.Host)
	}
	if resolved.Server.Port != 6000 {
		t.Fatalf("expected env port, got %d", resolved.Server.Port)
	}
	if resolved.Database != "/tmp/file.db" {
		t.Fatalf("expected file database to survive, got %q", resolved.Database)
	}
}

func TestResolveEffectiveConfigFileCanDisablePorts(t *testing.T) {
	zero := 0
	fileCfg := &FileConfig{
		ControlPort: &zero,
	}

	resolved := resolveEffectiveConfig(fileCfg, configCLIInputs{}, envFromMap(nil), nil)

	if resolved.ControlPort != 0 {
		t.Fatalf("expected control plane disabled by file, got %d", resolved.ControlPort)
	}
}

func TestResolveEffectiveConfigInvalidEnvValues(t *testing.T) {
	fileCfg := &FileConfig{
		Port:     5000,
		Catalogs: []string{"file_cat"},
	}

	env := map[string]string{
		"MOCKLING_PORT":         "not-a-number",
		"MOCKLING_CONTROL_PORT": "also-bad",
		"MOCKLING_CATALOGS":     " , ,",
	}

	var warns []string
	resolved := resolveEffectiveConfig(fileCfg, configCLIInputs{}, envFromMap(env), func(msg string) {
		warns = append(warns, msg)
	})

	if resolved.Server.Port != 5000 {
		t.Fatalf("invalid env port should not override valid file value, got %d", resolved.Server.Port)
	}
	if resolved.ControlPort != 8080 {
		t.Fatalf("invalid env control port should not override default, got %d", resolved.ControlPort)
	}
	if !reflect.DeepEqual(resolved.Server.Catalogs, []string{"file_cat"}) {
		t.Fatalf("empty env catalogs should not override file value, got %v", resolved.Server.Catalogs)
	}

	wantWarnings := []string{
		"Invalid MOCKLING_PORT",
		"Invalid MOCKLING_CONTROL_PORT",
		"Invalid MOCKLING_CATALOGS",
	}
	for _, w := range wantWarnings {
		found := false
		for _, got := range warns {
			if strings.Contains(got, w) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected warning containing %q, warnings: %v", w, warns)
		}
	}
}

func TestResolveEffectiveConfigCatalogsFromEnvCSV(t *testing.T) {
	env := map[string]string{
		"MOCKLING_CATALOGS": "prod, staging ,dev",
	}

	resolved := resolveEffectiveConfig(nil, configCLIInputs{}, envFromMap(env), nil)

	if !reflect.DeepEqual(resolved.Server.Catalogs, []string{"prod", "staging", "dev"}) {
		t.Fatalf("expected trimmed catalogs from env, got %v", resolved.Server.Catalogs)
	}
}
