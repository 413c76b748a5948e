package main

import "flag"

// Flags holds all command-line flags
type Flags struct {
	Config     *string
	Datasource *string
	SQL        *string
	Args       *string // Comma-separated bind values
	Page       *int
	Size       *int
	Checksum   *bool
	LogLevel   *string
	Version    *bool
}

// ParseFlags parses command-line flags
func ParseFlags() *Flags {
	f := &Flags{
		Config:     flag.String("config", "dbcore.yaml", "Configuration file path"),
		Datasource: flag.String("ds", "", "Datasource name (default: first configured)"),
		SQL:        flag.String("sql", "", "SELECT statement to run"),
		Args:       flag.String("args", "", "Comma-separated values bound to ? placeholders"),
		Page:       flag.Int("page", 0, "Page number, 1-based (0 = all rows)"),
		Size:       flag.Int("size", 0, "Page size"),
		Checksum:   flag.Bool("checksum", false, "Print XXH3 checksum of the result"),
		LogLevel:   flag.String("log-level", "", "Override logging level (debug, info, warn, error)"),
		Version:    flag.Bool("version", false, "Show version"),
	}
	flag.Parse()
	return f
}
