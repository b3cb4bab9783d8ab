package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewviz/pkg/cache"
	"github.com/matzehuels/crewviz/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached documents, layouts and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == config.CacheNone {
				printInfo("Caching is disabled")
				return nil
			}
			if cfg.Cache.Backend == config.CacheFile {
				dir, err := fileCacheDir(cfg)
				if err != nil {
					return err
				}
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					printInfo("Cache is empty")
					return nil
				}
			}

			cc, err := c.newCache(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer cc.Close()

			switch cc := cc.(type) {
			case *cache.FileCache:
				if err := cc.Clear(); err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				printSuccess("Cleared cache")
				printDetail("Directory: %s", cc.Dir())
			case *cache.RedisCache:
				n, err := cc.Clear(ctx)
				if err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				printSuccess("Cleared %d cached entries", n)
				printDetail("Redis: %s (prefix %q)", cfg.Cache.RedisAddr, cfg.Cache.Prefix)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend != config.CacheFile {
				return fmt.Errorf("cache backend is %s, not file", cfg.Cache.Backend)
			}
			dir, err := fileCacheDir(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

func fileCacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}
