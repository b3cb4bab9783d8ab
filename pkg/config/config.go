// Package config loads crewviz settings from a TOML file.
//
// A file only needs the keys it changes; everything else keeps the value
// from [Default]. Unknown keys are rejected so that typos surface early.
//
//	[layout]
//	strategy = "connectivity"
//	center = true
//	viewport_center_x = 600
//
//	[layout.sizes.agent]
//	width = 280
//	height = 200
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//	database = "crewviz"
//
//	[server]
//	addr = ":8080"
//	default_workflow = "examples/research_crew.json"
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// FileName is the config file looked up by [Find].
const FileName = "crewviz.toml"

// Config is the root of the TOML document.
type Config struct {
	Layout Layout `toml:"layout"`
	Cache  Cache  `toml:"cache"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
}

// Layout mirrors [layout.Config] with TOML names.
type Layout struct {
	Strategy          string                 `toml:"strategy"`
	Center            bool                   `toml:"center"`
	ViewportCenterX   float64                `toml:"viewport_center_x"`
	TopBandY          float64                `toml:"top_band_y"`
	AgentBandY        float64                `toml:"agent_band_y"`
	HorizontalSpacing float64                `toml:"horizontal_spacing"`
	ToolGap           float64                `toml:"tool_gap"`
	InterToolGap      float64                `toml:"inter_tool_gap"`
	MarginX           float64                `toml:"margin_x"`
	DefaultColumnX    float64                `toml:"default_column_x"`
	Sizes             map[string]layout.Size `toml:"sizes"`
}

// Cache selects the layout and artifact cache.
type Cache struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	Prefix    string `toml:"prefix"`
	TTLStr    string `toml:"ttl"`

	TTL time.Duration `toml:"-"`
}

// Store selects the workflow document store.
type Store struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server configures `crewviz serve`.
type Server struct {
	Addr            string `toml:"addr"`
	DefaultWorkflow string `toml:"default_workflow"`
	ReadTimeoutStr  string `toml:"read_timeout"`

	ReadTimeout time.Duration `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	lc := layout.DefaultConfig()
	sizes := make(map[string]layout.Size, len(lc.Sizes))
	for k, s := range lc.Sizes {
		sizes[string(k)] = s
	}
	return &Config{
		Layout: Layout{
			Strategy:          string(lc.Strategy),
			Center:            lc.Center,
			ViewportCenterX:   lc.ViewportCenterX,
			TopBandY:          lc.TopBandY,
			AgentBandY:        lc.AgentBandY,
			HorizontalSpacing: lc.HorizontalSpacing,
			ToolGap:           lc.ToolGap,
			InterToolGap:      lc.InterToolGap,
			MarginX:           lc.MarginX,
			DefaultColumnX:    lc.DefaultColumnX,
			Sizes:             sizes,
		},
		Cache: Cache{
			Backend: CacheFile,
			Prefix:  "crewviz:",
			TTLStr:  "168h",
		},
		Store: Store{
			Backend:  StoreMemory,
			Database: "crewviz",
		},
		Server: Server{
			Addr:           ":8080",
			ReadTimeoutStr: "30s",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, c.adjust()
	}
	// A [layout.sizes.<kind>] table replaces that kind's whole size; kinds
	// the file does not name keep their defaults.
	sizes := c.Layout.Sizes
	c.Layout.Sizes = nil

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if !md.IsDefined("layout", "sizes") {
		c.Layout.Sizes = sizes
	} else {
		merged := maps.Clone(sizes)
		for k, s := range c.Layout.Sizes {
			merged[string(workflow.ParseKind(k))] = s
		}
		c.Layout.Sizes = merged
	}
	return c, c.adjust()
}

// Find returns the first crewviz.toml in the working directory or the user
// config directory, or "" when there is none.
func Find() string {
	candidates := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "crewviz", FileName))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	items := make([]string, len(undecoded))
	for i, k := range undecoded {
		items[i] = k.String()
	}
	return fmt.Errorf("unknown config items: %s", strings.Join(items, ", "))
}

// adjust parses derived fields and validates enumerations.
func (c *Config) adjust() error {
	var err error
	if _, err = layout.ParseStrategy(c.Layout.Strategy); err != nil {
		return err
	}
	if c.Cache.TTL, err = time.ParseDuration(c.Cache.TTLStr); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	if c.Server.ReadTimeout, err = time.ParseDuration(c.Server.ReadTimeoutStr); err != nil {
		return fmt.Errorf("server.read_timeout: %w", err)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("cache.backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreMongo:
	default:
		return fmt.Errorf("store.backend: %q (must be one of: memory, file, mongo)", c.Store.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	if c.Store.Backend == StoreMongo && c.Store.MongoURI == "" {
		return fmt.Errorf("store.mongo_uri is required for the mongo backend")
	}
	return nil
}

// LayoutConfig converts the [layout] table to an engine configuration.
// Size keys go through [workflow.ParseKind], so "input" names the Input kind.
func (c *Config) LayoutConfig() layout.Config {
	l := c.Layout
	strategy, _ := layout.ParseStrategy(l.Strategy)
	sizes := make(map[workflow.Kind]layout.Size, len(l.Sizes))
	for k, s := range l.Sizes {
		sizes[workflow.ParseKind(k)] = s
	}
	return layout.Config{
		Strategy:          strategy,
		Sizes:             sizes,
		TopBandY:          l.TopBandY,
		AgentBandY:        l.AgentBandY,
		HorizontalSpacing: l.HorizontalSpacing,
		ToolGap:           l.ToolGap,
		InterToolGap:      l.InterToolGap,
		MarginX:           l.MarginX,
		DefaultColumnX:    l.DefaultColumnX,
		Center:            l.Center,
		ViewportCenterX:   l.ViewportCenterX,
	}
}
