package util

import (
	"fmt"
	"log/slog"
	"strings"
)

// ParseCommaSeparatedHosts parses a comma-separated string into a slice of trimmed host strings
func ParseCommaSeparatedHosts(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	hosts := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			hosts = append(hosts, trimmed)
		}
	}

	return hosts
}

// ParseHostList is a ConfigVarSpec.ParseFunc accepting either a
// comma-separated string or a YAML list of hosts
func ParseHostList(raw any) (any, error) {
	switch value := raw.(type) {
	case nil:
		return []string{}, nil
	case string:
		return ParseCommaSeparatedHosts(value), nil
	case []string:
		return ParseCommaSeparatedHosts(strings.Join(value, ",")), nil
	case []any:
		hosts := make([]string, 0, len(value))
		for _, item := range value {
			host, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("host list item must be a string, got %T", item)
			}
			hosts = append(hosts, host)
		}
		return ParseCommaSeparatedHosts(strings.Join(hosts, ",")), nil
	default:
		return nil, fmt.Errorf("host list must be a string or a list, got %T", raw)
	}
}

// ParseLogLevel maps a log-level name to its slog level, defaulting to info
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
