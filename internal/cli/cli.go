// Package cli implements the crewviz command-line interface.
//
// Commands load a workflow document from a file, a URL or the built-in demo,
// run it through the shared [pipeline.Runner] and write positioned JSON or
// rendered artifacts. `serve` exposes the same pipeline over HTTP.
//
// All commands read crewviz.toml (see [config.Find]) unless --config names
// another file. --verbose switches logging to debug and traces every
// pipeline, cache and HTTP event.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crewviz/pkg/buildinfo"
	"github.com/matzehuels/crewviz/pkg/cache"
	"github.com/matzehuels/crewviz/pkg/config"
	errs "github.com/matzehuels/crewviz/pkg/errors"
	"github.com/matzehuels/crewviz/pkg/observability"
	"github.com/matzehuels/crewviz/pkg/pipeline"
	"github.com/matzehuels/crewviz/pkg/source"
	"github.com/matzehuels/crewviz/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "crewviz"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetVerbose switches to debug logging and routes pipeline, cache and HTTP
// hooks to the logger.
func (c *CLI) SetVerbose(verbose bool) {
	if !verbose {
		c.SetLogLevel(LogInfo)
		return
	}
	c.SetLogLevel(LogDebug)
	observability.NewLogHooks(c.Logger).Install()
}

// =============================================================================
// Factories
// =============================================================================

// loadConfig reads --config, or the first crewviz.toml found, over the
// built-in defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = config.Find()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// newRunner creates a pipeline runner backed by the configured cache. Keys
// are scoped by version so that a new engine never reuses old layouts.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, buildinfo.Version+":")
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	runner.TTL = cfg.Cache.TTL
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == config.CacheRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:   cfg.Cache.RedisAddr,
			DB:     cfg.Cache.RedisDB,
			Prefix: cfg.Cache.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return rc, nil
	}

	dir, err := fileCacheDir(cfg)
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore opens the configured workflow store.
func (c *CLI) newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMongo:
		return store.NewMongoStore(ctx, store.MongoOptions{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.Database,
			Collection: cfg.Store.Collection,
		})
	case config.StoreFile:
		return store.NewFileStore(cfg.Store.Dir)
	default:
		return store.NewMemoryStore(), nil
	}
}

// openSource resolves a command argument to a source. Fetched documents go
// through the runner's cache.
func (c *CLI) openSource(arg string, runner *pipeline.Runner, refresh bool) (source.Source, error) {
	return source.Open(arg,
		source.WithCache(runner.Cache, runner.Keyer),
		source.WithRefresh(refresh),
		source.WithLogger(c.Logger),
	)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/crewviz/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// outputBase derives the output path stem for a source argument:
// "crews/research.json" becomes "crews/research", a URL becomes its last
// path segment, and the demo becomes "demo".
func outputBase(arg string) string {
	if arg == source.DemoName {
		return source.DemoName
	}
	if errs.IsURL(arg) {
		u, err := url.Parse(arg)
		if err != nil || strings.Trim(u.Path, "/") == "" {
			return "workflow"
		}
		arg = path.Base(u.Path)
	}
	base := strings.TrimSuffix(arg, filepath.Ext(arg))
	if base == "" {
		return "workflow"
	}
	return base
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
	}
	return parts
}
