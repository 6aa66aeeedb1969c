// config.go - Haupt-Konfigurationsfunktionen fuer vaeflow
//
// Dieses Modul enthaelt:
// - LogLevel: Gibt Log-Level zurueck (VAEFLOW_DEBUG)
// - MonitorHost: Adresse des Monitoring-Endpunkts (VAEFLOW_MONITOR_HOST)
// - RunsDBPath: Pfad der Run-Historie-Datenbank (VAEFLOW_RUNS_DB)
// - Seed: Globaler Zufalls-Seed (VAEFLOW_SEED)
// - Var: Liest und trimmt eine Environment-Variable
package envconfig

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Var liest eine Environment-Variable und entfernt Whitespace und Quotes
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// Debug gibt zurueck, ob Debug-Logging aktiviert ist
// Konfigurierbar via VAEFLOW_DEBUG
func Debug() bool {
	if s := Var("VAEFLOW_DEBUG"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return true
	}
	return false
}

// LogLevel gibt das konfigurierte Log-Level zurueck
// Konfigurierbar via VAEFLOW_DEBUG
func LogLevel() slog.Level {
	if Debug() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// MonitorHost gibt die Adresse des Monitoring-HTTP-Endpunkts zurueck
// Konfigurierbar via VAEFLOW_MONITOR_HOST
// Default: 127.0.0.1:11500; "off" deaktiviert den Endpunkt
func MonitorHost() string {
	s := Var("VAEFLOW_MONITOR_HOST")
	switch s {
	case "":
		return "127.0.0.1:11500"
	case "off":
		return ""
	}
	return s
}

// RunsDBPath gibt den Pfad der Run-Historie-Datenbank zurueck
// Konfigurierbar via VAEFLOW_RUNS_DB
func RunsDBPath() string {
	if s := Var("VAEFLOW_RUNS_DB"); s != "" {
		return s
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "runs.sqlite"
	}
	return filepath.Join(home, ".vaeflow", "runs.sqlite")
}

// Seed gibt den globalen Zufalls-Seed zurueck
// Konfigurierbar via VAEFLOW_SEED; 0 bedeutet zeitbasiert
func Seed() int64 {
	if s := Var("VAEFLOW_SEED"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		slog.Warn("invalid environment variable, using default", "key", "VAEFLOW_SEED", "value", s)
	}
	return 0
}

// EnvVar beschreibt eine Environment-Variable fuer die CLI-Dokumentation
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"VAEFLOW_DEBUG":        {"VAEFLOW_DEBUG", Debug(), "Show additional debug information (e.g. VAEFLOW_DEBUG=1)"},
		"VAEFLOW_MONITOR_HOST": {"VAEFLOW_MONITOR_HOST", MonitorHost(), "Address of the metrics endpoint, or \"off\""},
		"VAEFLOW_RUNS_DB":      {"VAEFLOW_RUNS_DB", RunsDBPath(), "Path of the run history database"},
		"VAEFLOW_SEED":         {"VAEFLOW_SEED", Seed(), "Global random seed (0 = time based)"},
	}
}
