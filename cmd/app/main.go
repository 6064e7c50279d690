package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/forgelink/internal"
	pkgconfig "github.com/starford/forgelink/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if configPath != "" {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if snap := cmd.String("snapshot"); snap != "" {
		cfg.Host.Snapshot = snap
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func resolve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ResolveOnce(ctx, cmd.String("component"), internal.WithConfig(cfg))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:  "forgelink",
		Usage: "Derive and cache cloud data identifiers for CAD design files and components",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "snapshot",
				Aliases: []string{"s"},
				Usage:   "Path to an exported host document snapshot (overrides config)",
				Sources: cli.EnvVars("FORGELINK_SNAPSHOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and keep the catalog in sync with the cache directory",
				Action: serve,
			},
			{
				Name:  "resolve",
				Usage: "Resolve identifiers for the snapshot's active design and print them as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "component",
						Usage: "In-file component id to resolve instead of the whole design",
					},
				},
				Action: resolve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the identifier tools over MCP on stdin/stdout",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
