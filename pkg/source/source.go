package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crewviz/pkg/cache"
	errs "github.com/matzehuels/crewviz/pkg/errors"
	"github.com/matzehuels/crewviz/pkg/httputil"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// Source yields a workflow document.
type Source interface {
	Load(ctx context.Context) (workflow.Graph, error)
}

// Func adapts a function to [Source].
type Func func(ctx context.Context) (workflow.Graph, error)

// Load calls f.
func (f Func) Load(ctx context.Context) (workflow.Graph, error) { return f(ctx) }

// =============================================================================
// Static
// =============================================================================

// Static serves a fixed graph. Each Load returns a deep copy.
type Static struct {
	Graph workflow.Graph
}

// Load returns a copy of the graph.
func (s Static) Load(context.Context) (workflow.Graph, error) {
	return s.Graph.Clone(), nil
}

// Empty returns a source of the empty graph.
func Empty() Static { return Static{} }

// =============================================================================
// File
// =============================================================================

// File reads a JSON document from disk on every Load.
type File struct {
	Path string
}

// Load reads and decodes the file.
func (f File) Load(ctx context.Context) (workflow.Graph, error) {
	if err := errs.ValidatePath(f.Path); err != nil {
		return workflow.Graph{}, err
	}
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return workflow.Graph{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "workflow file not found: %s", f.Path)
	}
	if err != nil {
		return workflow.Graph{}, errs.Wrap(errs.ErrCodeLoadFailed, err, "read %s", f.Path)
	}
	return decode(data, f.Path)
}

// =============================================================================
// URL
// =============================================================================

// URL fetches a JSON document over HTTP. When a cache is configured the raw
// body is kept for TTL and reused by later loads.
type URL struct {
	Address string
	Fetcher *httputil.Fetcher
	Cache   cache.Cache
	Keyer   cache.Keyer
	TTL     time.Duration
	Refresh bool
	Logger  *log.Logger
}

// Load fetches, caches and decodes the document.
func (u URL) Load(ctx context.Context) (workflow.Graph, error) {
	if err := errs.ValidateURL(u.Address); err != nil {
		return workflow.Graph{}, err
	}

	c, keyer, logger := u.Cache, u.Keyer, u.Logger
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	key := keyer.DocumentKey(u.Address)

	if !u.Refresh {
		if data, hit, err := c.Get(ctx, key); err == nil && hit {
			logger.Debug("document cache hit", "url", u.Address)
			return decode(data, u.Address)
		}
	}

	fetcher := u.Fetcher
	if fetcher == nil {
		fetcher = httputil.NewFetcher()
	}
	data, err := fetcher.Get(ctx, u.Address)
	if err != nil {
		return workflow.Graph{}, fetchError(err, u.Address)
	}

	g, err := decode(data, u.Address)
	if err != nil {
		return workflow.Graph{}, err
	}
	ttl := u.TTL
	if ttl == 0 {
		ttl = cache.DocumentTTL
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("document cache write failed", "url", u.Address, "error", err)
	}
	return g, nil
}

func fetchError(err error, url string) error {
	var status *httputil.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Wrap(errs.ErrCodeTimeout, err, "fetch %s", url)
	case errors.As(err, &status) && status.StatusCode == 404:
		return errs.Wrap(errs.ErrCodeNotFound, err, "fetch %s", url)
	case errors.As(err, &status):
		return errs.Wrap(errs.ErrCodeLoadFailed, err, "fetch %s", url)
	default:
		return errs.Wrap(errs.ErrCodeNetwork, err, "fetch %s", url)
	}
}

// =============================================================================
// Open
// =============================================================================

// Option configures sources built by [Open].
type Option func(*URL)

// WithCache caches fetched documents in c.
func WithCache(c cache.Cache, keyer cache.Keyer) Option {
	return func(u *URL) { u.Cache, u.Keyer = c, keyer }
}

// WithRefresh bypasses cached documents.
func WithRefresh(refresh bool) Option { return func(u *URL) { u.Refresh = refresh } }

// WithFetcher sets the HTTP fetcher.
func WithFetcher(f *httputil.Fetcher) Option { return func(u *URL) { u.Fetcher = f } }

// WithLogger sets the logger for cache diagnostics.
func WithLogger(l *log.Logger) Option { return func(u *URL) { u.Logger = l } }

// Open returns a [URL] source for http(s) arguments, the [Demo] source for
// "demo", and a [File] source otherwise. Options only affect URL sources.
func Open(arg string, opts ...Option) (Source, error) {
	switch {
	case arg == "":
		return nil, errs.New(errs.ErrCodeInvalidInput, "no workflow document given")
	case arg == DemoName:
		return Demo(), nil
	case errs.IsURL(arg):
		u := URL{Address: arg}
		for _, opt := range opts {
			opt(&u)
		}
		return u, nil
	default:
		return File{Path: arg}, nil
	}
}

func decode(data []byte, origin string) (workflow.Graph, error) {
	g, err := workflow.UnmarshalGraph(data)
	if err != nil {
		return workflow.Graph{}, errs.Wrap(errs.ErrCodeInvalidDocument, err, "decode %s", origin)
	}
	return g, nil
}

// String describes a source for log output.
func String(s Source) string {
	switch s := s.(type) {
	case File:
		return s.Path
	case URL:
		return s.Address
	case Static:
		return fmt.Sprintf("static (%d nodes)", len(s.Graph.Nodes))
	default:
		return fmt.Sprintf("%T", s)
	}
}
