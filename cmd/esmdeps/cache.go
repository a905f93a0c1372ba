package main

import (
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/esmdeps/internal/cache"
	"github.com/panbanda/esmdeps/internal/output"
	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the extraction cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache size and expired entries",
				Flags:  outputFlags(),
				Action: runCacheStats,
			},
			{
				Name:  "clear",
				Usage: "Remove cached module reports",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "expired",
						Usage: "Only remove entries older than the configured TTL",
					},
				},
				Action: runCacheClear,
			},
		},
	}
}

// openCache opens the configured cache directory even when caching is
// disabled for extraction.
func openCache(c *cli.Context) (*config.Config, *cache.Cache, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func runCacheStats(c *cli.Context) error {
	cfg, store, err := openCache(c)
	if err != nil {
		return err
	}
	usage, err := store.Usage()
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.NewTable("Cache", []string{"Metric", "Value"}, [][]string{
		{"Directory", usage.Dir},
		{"Entries", strconv.Itoa(usage.Entries)},
		{"Expired", strconv.Itoa(usage.Expired)},
		{"Size (bytes)", strconv.FormatInt(usage.Bytes, 10)},
		{"Oldest", formatTime(usage.Oldest)},
		{"Newest", formatTime(usage.Newest)},
	}, nil, usage))
}

func runCacheClear(c *cli.Context) error {
	_, store, err := openCache(c)
	if err != nil {
		return err
	}
	expiredOnly := hasTrailingBool(c, "expired")
	removed, err := store.Prune(!expiredOnly)
	if err != nil {
		return err
	}
	if expiredOnly {
		color.Green("Removed %d expired cache entries", removed)
	} else {
		color.Green("Removed %d cache entries", removed)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
