package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	ShowVersion bool
	ShowHelp    bool

	// Per-command arguments
	TemplateID string
	File       string
	ArgsJSON   string
	OutPath    string
}

// parseFlags parses global flags, the command word, and the command's
// own flags. It returns the empty command when none was given.
func parseFlags() (*CLIConfig, string, error) {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("GRAPHCFG_CONFIG", ""),
		"Path to configuration file (env: GRAPHCFG_CONFIG)")
	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("GRAPHCFG_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: GRAPHCFG_LOG_LEVEL)")
	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("GRAPHCFG_LOG_FORMAT", "text"),
		"Log format: json, text (env: GRAPHCFG_LOG_FORMAT)")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")

	flag.Usage = printDetailedHelp
	flag.Parse()

	if cfg.ShowVersion || cfg.ShowHelp {
		return cfg, flag.Arg(0), nil
	}

	command := flag.Arg(0)
	if command == "" {
		return cfg, "", nil
	}

	cmdFlags := flag.NewFlagSet(command, flag.ContinueOnError)
	cmdFlags.StringVar(&cfg.TemplateID, "id", "", "Template ID in the store")
	cmdFlags.StringVar(&cfg.File, "file", "", "Local file path")
	cmdFlags.StringVar(&cfg.ArgsJSON, "args", "", "Expansion arguments as a JSON dict")
	cmdFlags.StringVar(&cfg.OutPath, "out", "", "Output file path (default: stdout)")
	if err := cmdFlags.Parse(flag.Args()[1:]); err != nil {
		return nil, "", err
	}

	return cfg, command, nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - graph template management

Usage: %s [options] <command> [command options]

Commands:
  expand    Expand a template into a serialized graph description.
            Reads the template from the store (-id) or a local JSON
            file (-file); -args supplies caller arguments.
  validate  Check a serialized graph description (-file) for
            structural problems.
  put       Create or update a stored template from a JSON file
            (-file, optional -id override).
  list      List stored templates.
  delete    Delete a stored template (-id).
  serve     Run the HTTP API and metrics endpoint.

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Expand a stored template with arguments
  %s expand -id object-tracker -args '{"rate": {"num": 30}}' -out graph.bin

  # Expand a local template file without a server
  %s expand -file tracker.json -args '{"rate": {"num": 30}}'

  # Validate an expanded graph description
  %s validate -file graph.bin

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
