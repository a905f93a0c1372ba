package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file as TOML.

Examples:
  esmdeps config show                 # Show effective config
  esmdeps -c esmdeps.toml config show # Show config from specific file`,
				Action: runConfigShow,
			},
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates an esmdeps configuration file for syntax errors and invalid values.

Examples:
  esmdeps config validate                    # Validates default config locations
  esmdeps -c esmdeps.toml config validate    # Validates specific file
  esmdeps -c .esmdeps/esmdeps.toml config validate`,
				Action: runConfigValidate,
			},
		},
	}
}

func loadConfigResult(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

func runConfigValidate(c *cli.Context) error {
	result, err := loadConfigResult(c)
	if err != nil {
		color.Red("Configuration validation failed:")
		fmt.Fprintf(c.App.Writer, "  - %s\n", err)
		return err
	}

	if result.Source != "" {
		color.Green("Configuration valid: %s", result.Source)
	} else {
		color.Yellow("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	result, err := loadConfigResult(c)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if result.Source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(content)
	return err
}
