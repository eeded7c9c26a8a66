// Command sawt runs the Arabic restaurant ordering service.
//
// Usage:
//
//	sawt serve -c config.yaml
//	sawt chat -c config.yaml
//	sawt migrate -c config.yaml
//	sawt seed --yes -c config.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP server."`
	Chat     ChatCmd     `cmd:"" help:"Chat with the bot from the terminal."`
	Migrate  MigrateCmd  `cmd:"" help:"Apply the database schema."`
	Seed     SeedCmd     `cmd:"" help:"Load the demo menu, areas, and promo codes."`
	Reindex  ReindexCmd  `cmd:"" help:"Rebuild the menu vector index."`
	Cleanup  CleanupCmd  `cmd:"" help:"Delete expired sessions once."`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration file."`
	Schema   SchemaCmd   `cmd:"" help:"Generate JSON Schema for the configuration."`

	Config    string `short:"c" help:"Path to config file (empty = environment-driven defaults)." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:""`
	LogFormat string `help:"Log format (text, json)." default:""`
}

// loadConfig loads and validates the configuration, then lets CLI flags
// override the logging section before the logger is rebuilt from it.
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}
	if err := initLogger(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("sawt"),
		kong.Description("Sawt - Arabic restaurant ordering bot"),
		kong.UsageOnError(),
	)

	// Commands that fail before loadConfig still need a usable logger.
	if err := initLogger(config.LoggingConfig{Level: cli.LogLevel, Format: cli.LogFormat}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
